package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"marrow/internal/diag"
	"marrow/internal/source"
	"marrow/internal/token"
)

// Lexer produces the token stream for one file.
type Lexer struct {
	file    *source.File
	cursor  Cursor
	opts    Options
	look    *token.Token // one-token lookahead buffer
	hold    []token.Trivia
	emitted int
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next significant token with its leading trivia attached.
// After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	if lx.opts.MaxTokens > 0 && lx.emitted >= lx.opts.MaxTokens {
		sp := lx.cursor.SpanFrom(lx.cursor.Mark())
		lx.report(diag.LexTokenLimit, sp, fmt.Sprintf("token limit of %d exceeded", lx.opts.MaxTokens))
		return token.Token{Kind: token.EOF, Span: sp}
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.cursor.SpanFrom(lx.cursor.Mark())}
	}

	var tok token.Token
	ch := lx.cursor.Peek()
	switch {
	case ch == '_':
		if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '_' && isIdentContinueByte(b1) {
			tok = lx.scanIdentOrKeyword()
		} else {
			mark := lx.cursor.Mark()
			lx.cursor.Bump()
			tok = token.Token{Kind: token.Underscore, Span: lx.cursor.SpanFrom(mark), Text: "_"}
		}
	case isIdentStartByte(ch) || ch >= utf8.RuneSelf:
		tok = lx.scanIdentOrKeyword()
	case ch >= '0' && ch <= '9':
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanString()
	case ch == '$':
		tok = lx.scanDollar()
	default:
		tok = lx.scanPunct()
	}

	tok.Leading = lx.hold
	lx.hold = nil
	lx.emitted++
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		tok := lx.Next()
		lx.look = &tok
	}
	return *lx.look
}

func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			mark := lx.cursor.Mark()
			for !lx.cursor.EOF() {
				b := lx.cursor.Peek()
				if b != ' ' && b != '\t' && b != '\r' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, mark)
		case ch == '\n':
			mark := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.pushTrivia(token.TriviaNewline, mark)
		case ch == '/':
			b0, b1, ok := lx.cursor.Peek2()
			if !ok || b0 != '/' {
				return
			}
			switch b1 {
			case '/':
				mark := lx.cursor.Mark()
				for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
					lx.cursor.Bump()
				}
				lx.pushTrivia(token.TriviaLineComment, mark)
			case '*':
				lx.scanBlockComment()
			default:
				return
			}
		default:
			return
		}
	}
}

func (lx *Lexer) scanBlockComment() {
	mark := lx.cursor.Mark()
	lx.cursor.Bump() // '/'
	lx.cursor.Bump() // '*'
	depth := 1
	for !lx.cursor.EOF() && depth > 0 {
		b0, b1, ok := lx.cursor.Peek2()
		switch {
		case ok && b0 == '*' && b1 == '/':
			lx.cursor.Bump()
			lx.cursor.Bump()
			depth--
		case ok && b0 == '/' && b1 == '*':
			lx.cursor.Bump()
			lx.cursor.Bump()
			depth++
		default:
			lx.cursor.Bump()
		}
	}
	if depth > 0 {
		lx.report(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(mark), "unterminated block comment")
	}
	lx.pushTrivia(token.TriviaBlockComment, mark)
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, mark Mark) {
	sp := lx.cursor.SpanFrom(mark)
	lx.hold = append(lx.hold, token.Trivia{
		Kind: kind,
		Span: sp,
		Text: string(lx.file.Content[sp.Start:sp.End]),
	})
}

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	mark := lx.cursor.Mark()
	lx.bumpIdent()
	sp := lx.cursor.SpanFrom(mark)
	text := string(lx.file.Content[sp.Start:sp.End])
	// Identifiers compare canonically: macro names written with combining
	// characters must match their precomposed registry entries.
	if !isASCII(text) {
		text = norm.NFC.String(text)
	}
	return token.Token{Kind: token.LookupKeyword(text), Span: sp, Text: text}
}

// bumpIdent consumes an identifier body starting at the current position.
func (lx *Lexer) bumpIdent() {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b < utf8.RuneSelf {
			if !isIdentContinueByte(b) {
				return
			}
			lx.cursor.Bump()
			continue
		}
		r, size := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:lx.cursor.Limit])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		for range size {
			lx.cursor.Bump()
		}
	}
}

func (lx *Lexer) scanNumber() token.Token {
	mark := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if (b < '0' || b > '9') && b != '_' {
			break
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(mark)
	if !lx.cursor.EOF() && isIdentStartByte(lx.cursor.Peek()) {
		lx.bumpIdent()
		sp = lx.cursor.SpanFrom(mark)
		lx.report(diag.LexBadNumber, sp, "identifier characters after numeric literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}
	return token.Token{Kind: token.IntLit, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func (lx *Lexer) scanString() token.Token {
	mark := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		if b == '\\' && !lx.cursor.EOF() {
			lx.cursor.Bump()
			continue
		}
		if b == '"' {
			sp := lx.cursor.SpanFrom(mark)
			return token.Token{Kind: token.StringLit, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		if b == '\n' {
			break
		}
	}
	sp := lx.cursor.SpanFrom(mark)
	lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

// scanDollar lexes `$ident` metavariables into Placeholder tokens; a bare
// `$` stays a Dollar punct.
func (lx *Lexer) scanDollar() token.Token {
	mark := lx.cursor.Mark()
	lx.cursor.Bump() // '$'
	if !lx.cursor.EOF() && (isIdentStartByte(lx.cursor.Peek()) || lx.cursor.Peek() == '_') {
		lx.bumpIdent()
		sp := lx.cursor.SpanFrom(mark)
		return token.Token{Kind: token.Placeholder, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}
	sp := lx.cursor.SpanFrom(mark)
	return token.Token{Kind: token.Dollar, Span: sp, Text: "$"}
}

func (lx *Lexer) scanPunct() token.Token {
	mark := lx.cursor.Mark()
	b := lx.cursor.Bump()

	two := func(next byte, kind token.Kind, text string) (token.Token, bool) {
		if lx.cursor.Peek() == next {
			lx.cursor.Bump()
			return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(mark), Text: text}, true
		}
		return token.Token{}, false
	}

	switch b {
	case ':':
		if tok, ok := two(':', token.ColonColon, "::"); ok {
			return tok
		}
		return lx.punct(mark, token.Colon, ":")
	case '-':
		if tok, ok := two('>', token.Arrow, "->"); ok {
			return tok
		}
		return lx.punct(mark, token.Minus, "-")
	case '=':
		if tok, ok := two('>', token.FatArrow, "=>"); ok {
			return tok
		}
		return lx.punct(mark, token.Assign, "=")
	case '#':
		return lx.punct(mark, token.Hash, "#")
	case '!':
		return lx.punct(mark, token.Bang, "!")
	case ',':
		return lx.punct(mark, token.Comma, ",")
	case ';':
		return lx.punct(mark, token.Semicolon, ";")
	case '.':
		return lx.punct(mark, token.Dot, ".")
	case '<':
		return lx.punct(mark, token.Lt, "<")
	case '>':
		return lx.punct(mark, token.Gt, ">")
	case '&':
		return lx.punct(mark, token.Amp, "&")
	case '|':
		return lx.punct(mark, token.Pipe, "|")
	case '*':
		return lx.punct(mark, token.Star, "*")
	case '+':
		return lx.punct(mark, token.Plus, "+")
	case '/':
		return lx.punct(mark, token.Slash, "/")
	case '%':
		return lx.punct(mark, token.Percent, "%")
	case '?':
		return lx.punct(mark, token.Question, "?")
	case '@':
		return lx.punct(mark, token.At, "@")
	case '(':
		return lx.punct(mark, token.LParen, "(")
	case ')':
		return lx.punct(mark, token.RParen, ")")
	case '{':
		return lx.punct(mark, token.LBrace, "{")
	case '}':
		return lx.punct(mark, token.RBrace, "}")
	case '[':
		return lx.punct(mark, token.LBracket, "[")
	case ']':
		return lx.punct(mark, token.RBracket, "]")
	}

	sp := lx.cursor.SpanFrom(mark)
	lx.report(diag.LexUnknownChar, sp, fmt.Sprintf("unknown character %q", b))
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func (lx *Lexer) punct(mark Mark, kind token.Kind, text string) token.Token {
	return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(mark), Text: text}
}

func isIdentStartByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || (b >= '0' && b <= '9')
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Package parser turns the token stream into annotated declaration trees.
// It enforces only syntactic well-formedness: balanced delimiters, valid
// identifiers, literal shapes. Whether an annotation kind is semantically
// legal in a given position is left to the consumer of that position.
package parser

import (
	"fmt"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/lexer"
	"marrow/internal/source"
	"marrow/internal/token"
)

// Parser consumes a fully buffered token slice. Buffering keeps the same
// entry point usable for source files and for re-parsing macro output.
type Parser struct {
	toks     []token.Token
	pos      int
	reporter diag.Reporter
}

// New creates a parser over a token slice. The slice must end with EOF.
func New(toks []token.Token, reporter diag.Reporter) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(toks, token.Token{Kind: token.EOF})
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Parser{toks: toks, reporter: reporter}
}

// FromLexer drains lx and returns a parser over its tokens.
func FromLexer(lx *lexer.Lexer, reporter diag.Reporter) *Parser {
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return New(toks, reporter)
		}
	}
}

// FromTrees flattens token trees back into a parser, used to re-parse
// executor output into declarations.
func FromTrees(trees []token.Tree, reporter diag.Reporter) *Parser {
	return New(token.FlattenTrees(trees), reporter)
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) bump() token.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) at(kind token.Kind) bool { return p.cur().Kind == kind }

func (p *Parser) expect(kind token.Kind, code diag.Code, what string) (token.Token, bool) {
	if p.at(kind) {
		return p.bump(), true
	}
	diag.ReportError(p.reporter, code, p.cur().Span,
		fmt.Sprintf("expected %s, found %q", what, p.cur().Text))
	return p.cur(), false
}

// ParseFile parses declarations until EOF. Declarations that fail to parse
// are dropped after reporting; their tokens are skipped to a sync point.
func (p *Parser) ParseFile() []*ast.Declaration {
	var decls []*ast.Declaration
	for !p.at(token.EOF) {
		before := p.pos
		decl := p.parseDecl(false)
		if decl == nil {
			p.recover()
			if p.pos == before {
				p.bump()
			}
			continue
		}
		decls = append(decls, decl)
	}
	return decls
}

// recover skips the remainder of a broken declaration: everything up to and
// including a top-level ';' or the '}' of a top-level brace group. A '}' at
// depth zero is left in place since it closes the enclosing container, not
// the broken item.
func (p *Parser) recover() {
	depth := 0
	for !p.at(token.EOF) {
		if p.at(token.RBrace) && depth == 0 {
			return
		}
		tok := p.bump()
		switch {
		case tok.Kind.IsOpenDelim():
			depth++
		case tok.Kind.IsCloseDelim():
			if depth > 0 {
				depth--
				if depth == 0 && tok.Kind == token.RBrace {
					return
				}
			}
		case tok.Kind == token.Semicolon && depth == 0:
			return
		}
	}
}

// parseDecl parses one annotated declaration. inContainer allows RBrace to
// terminate the scan without an error.
func (p *Parser) parseDecl(inContainer bool) *ast.Declaration {
	outer, ok := p.parseOuterAnnotations()
	if !ok {
		return nil
	}

	start := p.cur().Span
	var trees []token.Tree

	if p.at(token.KwPub) {
		trees = append(trees, token.NewLeaf(p.bump()))
	}

	if !p.cur().Kind.IsItemKeyword() {
		diag.ReportError(p.reporter, diag.SynExpectDeclaration, p.cur().Span,
			fmt.Sprintf("expected a declaration, found %q", p.cur().Text))
		return nil
	}
	kw := p.bump()
	trees = append(trees, token.NewLeaf(kw))

	name := ""
	if kw.Kind != token.KwImpl {
		ident, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "declaration name")
		if !ok {
			return nil
		}
		name = ident.Text
		trees = append(trees, token.NewLeaf(ident))
	}

	if kw.Kind == token.KwMod {
		return p.parseContainer(outer, kw, name, trees, start)
	}

	// Leaf item: accumulate token trees until a top-level ';' or the body
	// brace group.
	for {
		switch {
		case p.at(token.Semicolon):
			trees = append(trees, token.NewLeaf(p.bump()))
			return p.finishLeaf(outer, kw.Text, name, trees, start)
		case p.at(token.LBrace):
			group, ok := p.parseGroup()
			if !ok {
				return nil
			}
			trees = append(trees, group)
			return p.finishLeaf(outer, kw.Text, name, trees, start)
		case p.cur().Kind.IsOpenDelim():
			group, ok := p.parseGroup()
			if !ok {
				return nil
			}
			trees = append(trees, group)
		case p.at(token.EOF), inContainer && p.at(token.RBrace):
			diag.ReportError(p.reporter, diag.SynUnterminatedItem, p.cur().Span,
				fmt.Sprintf("declaration %q is missing ';' or a body", name))
			return nil
		case p.cur().Kind.IsCloseDelim():
			diag.ReportError(p.reporter, diag.SynUnbalancedDelimiter, p.cur().Span,
				fmt.Sprintf("unmatched %q", p.cur().Text))
			return nil
		default:
			trees = append(trees, token.NewLeaf(p.bump()))
		}
	}
}

func (p *Parser) finishLeaf(outer []ast.Annotation, keyword, name string, trees []token.Tree, start source.Span) *ast.Declaration {
	span := start
	if len(trees) > 0 {
		span = span.Cover(trees[len(trees)-1].Span)
	}
	for i := range outer {
		span = span.Cover(outer[i].Span)
	}
	return &ast.Declaration{
		Span:    span,
		Outer:   outer,
		Keyword: keyword,
		Name:    name,
		Tokens:  trees,
	}
}

func (p *Parser) parseContainer(outer []ast.Annotation, kw token.Token, name string, header []token.Tree, start source.Span) *ast.Declaration {
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "'{'"); !ok {
		return nil
	}

	inner, ok := p.parseInnerAnnotations()
	if !ok {
		return nil
	}

	var children []*ast.Declaration
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		child := p.parseDecl(true)
		if child == nil {
			p.recover()
			if p.pos == before {
				p.bump()
			}
			continue
		}
		children = append(children, child)
	}
	end, ok := p.expect(token.RBrace, diag.SynUnbalancedDelimiter, "'}'")
	if !ok {
		return nil
	}

	return &ast.Declaration{
		Span:      start.Cover(end.Span),
		Outer:     outer,
		Inner:     inner,
		Keyword:   kw.Text,
		Name:      name,
		Tokens:    header,
		Container: true,
		Children:  children,
	}
}

// parseGroup reads one balanced delimited group into a token tree.
func (p *Parser) parseGroup() (token.Tree, bool) {
	open := p.bump()
	delim, ok := token.DelimFor(open.Kind)
	if !ok {
		diag.ReportError(p.reporter, diag.SynUnbalancedDelimiter, open.Span,
			fmt.Sprintf("expected a delimiter, found %q", open.Text))
		return token.Tree{}, false
	}

	var nodes []token.Tree
	for {
		switch {
		case p.at(delim.Close()):
			closing := p.bump()
			return token.NewGroup(delim, nodes, open.Span.Cover(closing.Span)), true
		case p.at(token.EOF):
			diag.ReportError(p.reporter, diag.SynUnbalancedDelimiter, open.Span,
				fmt.Sprintf("unclosed %q", open.Text))
			return token.Tree{}, false
		case p.cur().Kind.IsOpenDelim():
			inner, ok := p.parseGroup()
			if !ok {
				return token.Tree{}, false
			}
			nodes = append(nodes, inner)
		case p.cur().Kind.IsCloseDelim():
			diag.ReportError(p.reporter, diag.SynUnbalancedDelimiter, p.cur().Span,
				fmt.Sprintf("mismatched %q inside %q group", p.cur().Text, open.Text))
			return token.Tree{}, false
		default:
			nodes = append(nodes, token.NewLeaf(p.bump()))
		}
	}
}

package lexer

import (
	"marrow/internal/diag"
	"marrow/internal/source"
)

// Options configures a Lexer.
type Options struct {
	// Reporter receives lexical diagnostics; nil drops them (lexing continues).
	Reporter diag.Reporter
	// MaxTokens aborts lexing after that many tokens (0 = unlimited).
	MaxTokens int
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

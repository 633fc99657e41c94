// Package diag defines the diagnostic model shared by the lexer, parser and
// expansion engine: severities, stable numeric codes, the Diagnostic value
// with its primary span and notes, and the Bag/Reporter plumbing phases use
// to emit them.
package diag

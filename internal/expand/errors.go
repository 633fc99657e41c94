package expand

import (
	"errors"
	"fmt"

	"marrow/internal/diag"
	"marrow/internal/source"
)

// Sentinel causes; wrap them via Error so every failure carries the span of
// the annotation that triggered it.
var (
	ErrUnknownMacro         = errors.New("unknown macro")
	ErrArity                = errors.New("macro expansion arity")
	ErrRecursionLimit       = errors.New("recursion limit exceeded")
	ErrAssemblyPrecondition = errors.New("assembly precondition violated")
)

// Error is a fatal expansion failure attributed to a source location.
// Expansion is all-or-nothing per top-level declaration: an Error aborts the
// declaration it occurred in and everything derived from it.
type Error struct {
	Code diag.Code
	Span source.Span
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Diagnostic converts the error into a reportable diagnostic.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Error())
}

func newError(code diag.Code, cause error, span source.Span, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Span: span,
		Msg:  fmt.Sprintf(format, args...),
		Err:  cause,
	}
}

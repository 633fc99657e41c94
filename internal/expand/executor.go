package expand

import (
	"marrow/internal/ast"
	"marrow/internal/source"
	"marrow/internal/token"
)

// Request is one macro invocation. Arg is a single flat group whose first
// node is the invocation's delimited argument group (after default
// elaboration) and whose remaining nodes are the assembled item tokens.
type Request struct {
	Name string
	Span source.Span
	Arg  token.Tree
}

// MacroArg returns the invocation's own delimited argument group.
func (r Request) MacroArg() token.Tree {
	if len(r.Arg.Nodes) == 0 {
		return token.Tree{}
	}
	return r.Arg.Nodes[0]
}

// ItemTrees returns the assembled item tokens following the argument group.
func (r Request) ItemTrees() []token.Tree {
	if len(r.Arg.Nodes) == 0 {
		return nil
	}
	return r.Arg.Nodes[1:]
}

// OutcomeKind discriminates what an executor produced.
type OutcomeKind uint8

const (
	// OutcomeDeclarations is the only kind legal in annotation position.
	OutcomeDeclarations OutcomeKind = iota
	// OutcomeTokens is expression- or statement-level output; executors may
	// produce it for other positions, and this engine rejects it with an
	// arity error.
	OutcomeTokens
)

// Outcome is the executor's result for one invocation.
type Outcome struct {
	Kind  OutcomeKind
	Decls []*ast.Declaration
	Trees []token.Tree
}

// Declarations builds the zero-or-more-declarations outcome.
func Declarations(decls ...*ast.Declaration) Outcome {
	return Outcome{Kind: OutcomeDeclarations, Decls: decls}
}

// TokenOutput builds a non-declaration outcome.
func TokenOutput(trees ...token.Tree) Outcome {
	return Outcome{Kind: OutcomeTokens, Trees: trees}
}

// Invoker is the external macro executor capability. Implementations must
// fail with ErrUnknownMacro (possibly wrapped) when the name is unbound and
// must be re-entrant: expansion may invoke macros while already inside an
// invocation triggered by their own output.
type Invoker interface {
	Invoke(req Request) (Outcome, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(req Request) (Outcome, error)

func (f InvokerFunc) Invoke(req Request) (Outcome, error) { return f(req) }

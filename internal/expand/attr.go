package expand

import (
	"errors"

	"marrow/internal/assemble"
	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/source"
	"marrow/internal/token"
)

// Expander drives attribute and derive expansion for one top-level request.
// It owns the request's Budget; a fresh Expander is needed per top-level
// declaration (or per module, depending on how the caller scopes limits).
type Expander struct {
	inv    Invoker
	budget *Budget
}

// New creates an expander calling inv, bounded by budget. A nil budget gets
// the default limit.
func New(inv Invoker, budget *Budget) *Expander {
	if budget == nil {
		budget = NewBudget(0)
	}
	return &Expander{inv: inv, budget: budget}
}

// Budget exposes the expander's invocation counter.
func (x *Expander) Budget() *Budget { return x.budget }

// Expand fully rewrites decl: attribute-position macros to fixpoint, then
// derivation-list macros, recursively through container children and macro
// output. The result contains no macro-invocation annotations anywhere.
func (x *Expander) Expand(decl *ast.Declaration) ([]*ast.Declaration, error) {
	attrOut, err := x.ExpandAttributes(decl)
	if err != nil {
		return nil, err
	}
	var final []*ast.Declaration
	for _, d := range attrOut {
		seq, err := x.ExpandDerive(d)
		if err != nil {
			return nil, err
		}
		final = append(final, seq...)
	}
	return final, nil
}

// ExpandAttributes resolves every macro-invocation annotation in outer
// (and, via promotion, inner) position. The returned declarations carry no
// AnnMacro entries among their outer annotations.
//
// The scan-expand-recurse step runs on an explicit work-list rather than
// the call stack: output declarations re-enter the front of the queue, so
// ordering is preserved and the budget bounds adversarial self-expansion
// without risking native stack overflow.
func (x *Expander) ExpandAttributes(decl *ast.Declaration) ([]*ast.Declaration, error) {
	pending := []*ast.Declaration{decl}
	var done []*ast.Declaration

	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]

		Promote(cur)

		i := ast.FirstMacro(cur.Outer)
		if i < 0 {
			if cur.Container {
				children, err := x.expandChildren(cur.Children)
				if err != nil {
					return nil, err
				}
				cur.Children = children
			}
			done = append(done, cur)
			continue
		}

		produced, err := x.invokeAttribute(cur, i)
		if err != nil {
			return nil, err
		}

		// Preceding annotations are re-attached to each produced
		// declaration as a deep copy: later expansion of one output must
		// not observe mutations made through another.
		prefix := cur.Outer[:i]
		for _, out := range produced {
			out.Outer = append(ast.CloneAnnotations(prefix), out.Outer...)
		}
		pending = append(produced, pending...)
	}

	return done, nil
}

// invokeAttribute expands the macro annotation at index i of cur.Outer and
// returns the replacement declarations.
func (x *Expander) invokeAttribute(cur *ast.Declaration, i int) ([]*ast.Declaration, error) {
	m := cur.Outer[i]

	// item_tokens: annotations after the invocation, then the declaration
	// itself. Annotations before it are excluded here and re-attached to
	// the results by the caller.
	item, err := assemble.Declaration(cur, cur.Outer[i+1:])
	if err != nil {
		return nil, assemblyError(err, m.Span)
	}

	outcome, err := x.invoke(m, item)
	if err != nil {
		return nil, err
	}
	return outcome.Decls, nil
}

// invoke charges the budget, performs default elaboration and calls the
// executor, normalizing its failures into span-carrying errors.
func (x *Expander) invoke(m ast.Annotation, item token.Tree) (Outcome, error) {
	if err := x.budget.Charge(m.Span); err != nil {
		return Outcome{}, err
	}

	arg := token.NewGroup(token.DelimNone, append([]token.Tree{elaborate(m)}, item.Nodes...), m.Span)
	outcome, err := x.inv.Invoke(Request{Name: m.Name, Span: m.Span, Arg: arg})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return Outcome{}, err
		}
		code := diag.UnknownCode
		if errors.Is(err, ErrUnknownMacro) {
			code = diag.ExpUnknownMacro
		}
		return Outcome{}, newError(code, err, m.Span, "macro %q: %v", m.Name, err)
	}
	if outcome.Kind != OutcomeDeclarations {
		return Outcome{}, newError(diag.ExpArity, ErrArity, m.Span,
			"macro %q produced non-declaration output in annotation position", m.Name)
	}
	return outcome, nil
}

// elaborate applies default elaboration: an invocation written without a
// delimited group behaves exactly as one written with an empty `()`.
func elaborate(m ast.Annotation) token.Tree {
	if m.Arg != nil {
		return m.Arg.Clone()
	}
	return token.NewGroup(token.DelimParen, nil, m.Span)
}

// expandChildren expands each child independently and splices the results
// in place, preserving the children's relative order. Siblings share no
// state; only the budget is common to the whole request.
func (x *Expander) expandChildren(children []*ast.Declaration) ([]*ast.Declaration, error) {
	var out []*ast.Declaration
	for _, child := range children {
		res, err := x.Expand(child)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

func assemblyError(err error, span source.Span) error {
	var pre *assemble.PreconditionError
	if errors.As(err, &pre) {
		sp := pre.Tok.Span
		if sp == (source.Span{}) {
			sp = span
		}
		return newError(diag.ExpAssemblyPrecondition, ErrAssemblyPrecondition, sp, "%v", err)
	}
	return err
}

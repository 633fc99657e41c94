// Package assemble serializes declarations back into flat token sequences
// used as macro-invocation input. Output carries token identity and
// delimiter structure only; whitespace fidelity is not a goal.
package assemble

import (
	"fmt"

	"marrow/internal/ast"
	"marrow/internal/source"
	"marrow/internal/token"
)

// PreconditionError reports an unresolved placeholder reaching the
// assembler. This is a contract violation by the caller, not a recoverable
// user error.
type PreconditionError struct {
	Tok token.Token
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("unresolved placeholder %q in assembled declaration", e.Tok.Text)
}

// Declaration serializes decl together with exactly the given annotation
// subset into a single flat group (DelimNone). The declaration's own Outer
// list is ignored; callers pass the subset the contract requires.
func Declaration(decl *ast.Declaration, anns []ast.Annotation) (token.Tree, error) {
	var nodes []token.Tree
	for i := range anns {
		nodes = append(nodes, OuterAnnotation(anns[i])...)
	}
	nodes = append(nodes, declTrees(decl)...)

	group := token.NewGroup(token.DelimNone, nodes, decl.Span)
	if tok, found := group.FindPlaceholder(); found {
		return token.Tree{}, &PreconditionError{Tok: tok}
	}
	return group, nil
}

// declTrees renders the declaration itself, annotations excluded. Container
// bodies are rebuilt from children, each child carrying its own outer
// annotations; leftover inner annotations render in #![...] form at the
// body head.
func declTrees(decl *ast.Declaration) []token.Tree {
	if !decl.Container {
		return token.CloneTrees(decl.Tokens)
	}

	nodes := token.CloneTrees(decl.Tokens)
	var body []token.Tree
	for i := range decl.Inner {
		body = append(body, InnerAnnotation(decl.Inner[i])...)
	}
	for _, child := range decl.Children {
		var childAnns []token.Tree
		for i := range child.Outer {
			childAnns = append(childAnns, OuterAnnotation(child.Outer[i])...)
		}
		body = append(body, childAnns...)
		body = append(body, declTrees(child)...)
	}
	nodes = append(nodes, token.NewGroup(token.DelimBrace, body, decl.Span))
	return nodes
}

// OuterAnnotation renders an annotation in its outer #[...] form.
func OuterAnnotation(ann ast.Annotation) []token.Tree {
	return []token.Tree{
		punct(token.Hash, "#", ann.Span),
		token.NewGroup(token.DelimBracket, annotationContent(ann), ann.Span),
	}
}

// InnerAnnotation renders an annotation in its inner #![...] form.
func InnerAnnotation(ann ast.Annotation) []token.Tree {
	return []token.Tree{
		punct(token.Hash, "#", ann.Span),
		punct(token.Bang, "!", ann.Span),
		token.NewGroup(token.DelimBracket, annotationContent(ann), ann.Span),
	}
}

// annotationContent renders the annotation without its #[ ] shell.
func annotationContent(ann ast.Annotation) []token.Tree {
	name := token.NewLeaf(token.Token{Kind: token.Ident, Span: ann.Span, Text: ann.Name})

	switch ann.Kind {
	case ast.AnnWord:
		return []token.Tree{name}

	case ast.AnnKeyValue:
		return []token.Tree{
			name,
			punct(token.Assign, "=", ann.Span),
			token.NewLeaf(ann.Value),
		}

	case ast.AnnList:
		var items []token.Tree
		for i := range ann.Items {
			if i > 0 {
				items = append(items, punct(token.Comma, ",", ann.Span))
			}
			items = append(items, annotationContent(ann.Items[i])...)
		}
		return []token.Tree{name, token.NewGroup(token.DelimParen, items, ann.Span)}

	case ast.AnnMacro:
		out := []token.Tree{name, punct(token.Bang, "!", ann.Span)}
		if ann.Arg != nil {
			out = append(out, ann.Arg.Clone())
		}
		return out
	}
	return []token.Tree{name}
}

func punct(kind token.Kind, text string, span source.Span) token.Tree {
	return token.NewLeaf(token.Token{Kind: kind, Span: span, Text: text})
}

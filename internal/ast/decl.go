package ast

import (
	"marrow/internal/source"
	"marrow/internal/token"
)

// Declaration is a named item together with its annotations. Leaf items keep
// their full syntactic form (visibility, keyword, name, signature, body) as
// opaque token trees in Tokens. Container items (`mod`) keep only their
// header tokens there; the body lives in Children plus Inner.
type Declaration struct {
	Span source.Span

	// Outer annotations written before the item, in source order.
	Outer []Annotation
	// Inner annotations written at the head of a container body (#![...]).
	// Meaningful only when Container is true; cleared by promotion.
	Inner []Annotation

	// Keyword is the item keyword text ("fn", "struct", "mod", "impl", ...).
	Keyword string
	// Name is the declared identifier; empty for nameless items (impl blocks).
	Name string

	// Tokens is the annotation-free token form of the item. For containers
	// this covers the header only (up to but excluding the brace group).
	Tokens []token.Tree

	// Container marks `mod` items; their body is Children, not Tokens.
	Container bool
	Children  []*Declaration
}

// Clone deep-copies the declaration tree.
func (d *Declaration) Clone() *Declaration {
	if d == nil {
		return nil
	}
	cp := &Declaration{
		Span:      d.Span,
		Outer:     CloneAnnotations(d.Outer),
		Inner:     CloneAnnotations(d.Inner),
		Keyword:   d.Keyword,
		Name:      d.Name,
		Tokens:    token.CloneTrees(d.Tokens),
		Container: d.Container,
	}
	if d.Children != nil {
		cp.Children = make([]*Declaration, len(d.Children))
		for i := range d.Children {
			cp.Children[i] = d.Children[i].Clone()
		}
	}
	return cp
}

// ExpansionComplete reports whether no macro-invocation annotation remains
// anywhere in the declaration, outer, inner, derive entries or children.
func (d *Declaration) ExpansionComplete() bool {
	if annsHaveMacroDeep(d.Outer) || annsHaveMacroDeep(d.Inner) {
		return false
	}
	for _, child := range d.Children {
		if !child.ExpansionComplete() {
			return false
		}
	}
	return true
}

func annsHaveMacroDeep(anns []Annotation) bool {
	for i := range anns {
		if anns[i].IsMacro() {
			return true
		}
		if annsHaveMacroDeep(anns[i].Items) {
			return true
		}
	}
	return false
}

// DeriveList returns the index of the first outer `derive(...)` list
// annotation, or -1.
func (d *Declaration) DeriveList() int {
	for i := range d.Outer {
		if d.Outer[i].Kind == AnnList && d.Outer[i].Name == "derive" {
			return i
		}
	}
	return -1
}

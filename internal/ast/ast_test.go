package ast

import (
	"testing"

	"marrow/internal/token"
)

func macroAnn(name string, argText string) Annotation {
	ann := Annotation{Kind: AnnMacro, Name: name}
	if argText != "" {
		arg := token.NewGroup(token.DelimParen, []token.Tree{
			token.NewLeaf(token.Token{Kind: token.Ident, Text: argText}),
		}, ann.Span)
		ann.Arg = &arg
	}
	return ann
}

func TestAnnotation_CloneIndependence(t *testing.T) {
	orig := Annotation{
		Kind: AnnList,
		Name: "derive",
		Items: []Annotation{
			macroAnn("From", "u8"),
			{Kind: AnnWord, Name: "Clone"},
		},
	}

	cp := orig.Clone()
	cp.Items[0].Arg.Nodes[0].Tok.Text = "mutated"
	cp.Items[1].Name = "Copy"

	if orig.Items[0].Arg.Nodes[0].Tok.Text != "u8" {
		t.Errorf("macro argument shared between clones")
	}
	if orig.Items[1].Name != "Clone" {
		t.Errorf("nested annotation shared between clones")
	}
}

func TestDeclaration_CloneIndependence(t *testing.T) {
	inner := &Declaration{Keyword: "fn", Name: "child", Outer: []Annotation{macroAnn("trace_fn", "")}}
	d := &Declaration{
		Keyword:   "mod",
		Name:      "m",
		Container: true,
		Inner:     []Annotation{{Kind: AnnWord, Name: "marker"}},
		Children:  []*Declaration{inner},
	}

	cp := d.Clone()
	cp.Children[0].Name = "renamed"
	cp.Inner[0].Name = "other"

	if d.Children[0].Name != "child" {
		t.Errorf("child declaration shared between clones")
	}
	if d.Inner[0].Name != "marker" {
		t.Errorf("inner annotations shared between clones")
	}
}

func TestFirstMacro(t *testing.T) {
	anns := []Annotation{
		{Kind: AnnWord, Name: "doc"},
		macroAnn("a", ""),
		macroAnn("b", ""),
	}
	if got := FirstMacro(anns); got != 1 {
		t.Errorf("FirstMacro = %d, want 1", got)
	}
	if got := FirstMacro(anns[:1]); got != -1 {
		t.Errorf("FirstMacro on clean sequence = %d, want -1", got)
	}
}

func TestDeclaration_ExpansionComplete(t *testing.T) {
	clean := &Declaration{
		Keyword: "struct",
		Name:    "S",
		Outer: []Annotation{
			{Kind: AnnWord, Name: "doc"},
			{Kind: AnnList, Name: "derive", Items: []Annotation{{Kind: AnnWord, Name: "Clone"}}},
		},
	}
	if !clean.ExpansionComplete() {
		t.Error("clean declaration reported incomplete")
	}

	dirty := clean.Clone()
	dirty.Outer[1].Items = append(dirty.Outer[1].Items, macroAnn("From", ""))
	if dirty.ExpansionComplete() {
		t.Error("macro entry inside derive list must count as unexpanded")
	}

	nested := &Declaration{
		Keyword:   "mod",
		Container: true,
		Children:  []*Declaration{{Keyword: "fn", Outer: []Annotation{macroAnn("m", "")}}},
	}
	if nested.ExpansionComplete() {
		t.Error("macro on child declaration must count as unexpanded")
	}
}

func TestDeclaration_DeriveList(t *testing.T) {
	d := &Declaration{
		Outer: []Annotation{
			{Kind: AnnWord, Name: "doc"},
			{Kind: AnnList, Name: "derive"},
		},
	}
	if got := d.DeriveList(); got != 1 {
		t.Errorf("DeriveList = %d, want 1", got)
	}
	if got := (&Declaration{}).DeriveList(); got != -1 {
		t.Errorf("DeriveList on bare declaration = %d, want -1", got)
	}
}

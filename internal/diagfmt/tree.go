package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"marrow/internal/assemble"
	"marrow/internal/ast"
	"marrow/internal/source"
	"marrow/internal/token"
)

// AnnotationJSON is one annotation in the declaration dump.
type AnnotationJSON struct {
	Kind  string           `json:"kind"`
	Name  string           `json:"name"`
	Value string           `json:"value,omitempty"`
	Items []AnnotationJSON `json:"items,omitempty"`
	Arg   string           `json:"arg,omitempty"`
	Span  source.Span      `json:"span"`
}

// DeclarationJSON is one declaration in the dump, children included.
type DeclarationJSON struct {
	Keyword  string             `json:"keyword"`
	Name     string             `json:"name,omitempty"`
	Outer    []AnnotationJSON   `json:"outer,omitempty"`
	Inner    []AnnotationJSON   `json:"inner,omitempty"`
	Tokens   string             `json:"tokens"`
	Children []*DeclarationJSON `json:"children,omitempty"`
	Span     source.Span        `json:"span"`
}

// FormatDeclsPretty renders declarations as an indented tree. Annotations
// print in their source form above the item they attach to.
func FormatDeclsPretty(w io.Writer, decls []*ast.Declaration) error {
	for _, d := range decls {
		writeDeclPretty(w, d, 0)
	}
	return nil
}

func writeDeclPretty(w io.Writer, d *ast.Declaration, depth int) {
	indent := strings.Repeat("  ", depth)
	for i := range d.Outer {
		fmt.Fprintf(w, "%s%s\n", indent, token.RenderTrees(assemble.OuterAnnotation(d.Outer[i])))
	}
	header := d.Keyword
	if d.Name != "" {
		header += " " + d.Name
	}
	if !d.Container {
		fmt.Fprintf(w, "%s%s: %s\n", indent, header, token.RenderTrees(d.Tokens))
		return
	}
	fmt.Fprintf(w, "%s%s {\n", indent, header)
	for i := range d.Inner {
		fmt.Fprintf(w, "%s  %s\n", indent, token.RenderTrees(assemble.InnerAnnotation(d.Inner[i])))
	}
	for _, child := range d.Children {
		writeDeclPretty(w, child, depth+1)
	}
	fmt.Fprintf(w, "%s}\n", indent)
}

// FormatDeclsJSON renders declarations as an indented JSON array.
func FormatDeclsJSON(w io.Writer, decls []*ast.Declaration) error {
	out := make([]*DeclarationJSON, 0, len(decls))
	for _, d := range decls {
		out = append(out, declJSON(d))
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func declJSON(d *ast.Declaration) *DeclarationJSON {
	out := &DeclarationJSON{
		Keyword: d.Keyword,
		Name:    d.Name,
		Outer:   annotationsJSON(d.Outer),
		Inner:   annotationsJSON(d.Inner),
		Tokens:  token.RenderTrees(d.Tokens),
		Span:    d.Span,
	}
	for _, child := range d.Children {
		out.Children = append(out.Children, declJSON(child))
	}
	return out
}

func annotationsJSON(anns []ast.Annotation) []AnnotationJSON {
	if len(anns) == 0 {
		return nil
	}
	out := make([]AnnotationJSON, len(anns))
	for i, a := range anns {
		out[i] = AnnotationJSON{
			Kind:  a.Kind.String(),
			Name:  a.Name,
			Value: a.Value.Text,
			Items: annotationsJSON(a.Items),
			Span:  a.Span,
		}
		if a.Arg != nil {
			out[i].Arg = token.RenderTrees([]token.Tree{*a.Arg})
		}
	}
	return out
}

package assemble

import (
	"errors"
	"strings"
	"testing"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/lexer"
	"marrow/internal/parser"
	"marrow/internal/source"
	"marrow/internal/token"
)

func parseOne(t *testing.T, src string) *ast.Declaration {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.mw", []byte(src))
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	decls := parser.FromLexer(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), rep).ParseFile()
	if bag.HasErrors() || len(decls) != 1 {
		t.Fatalf("fixture parse failed: %d decls, %+v", len(decls), bag.Items())
	}
	return decls[0]
}

func render(t *testing.T, tree token.Tree) string {
	t.Helper()
	return token.RenderTrees([]token.Tree{tree})
}

func TestDeclaration_WithoutAnnotations(t *testing.T) {
	d := parseOne(t, `#[doc = "ignored"] pub struct Wrapped(u16);`)
	group, err := Declaration(d, nil)
	if err != nil {
		t.Fatalf("Declaration() error: %v", err)
	}
	got := render(t, group)
	want := "pub struct Wrapped (u16) ;"
	if got != want {
		t.Errorf("assembled = %q, want %q", got, want)
	}
}

func TestDeclaration_WithAnnotationSubset(t *testing.T) {
	d := parseOne(t, `#[doc = "keep"] #[maybe_pub!] fn f() {}`)
	group, err := Declaration(d, d.Outer[1:])
	if err != nil {
		t.Fatalf("Declaration() error: %v", err)
	}
	got := render(t, group)
	if !strings.HasPrefix(got, "# [maybe_pub !]") {
		t.Errorf("assembled = %q, want maybe_pub annotation first", got)
	}
	if strings.Contains(got, "doc") {
		t.Errorf("assembled = %q, must not contain excluded annotation", got)
	}
}

func TestDeclaration_AnnotationForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "key value",
			src:  `#[doc = "d"] struct S;`,
			want: `# [doc = "d"] struct S ;`,
		},
		{
			name: "list with nesting",
			src:  `#[cfg(feature(fancy), linux)] struct S;`,
			want: `# [cfg (feature (fancy) , linux)] struct S ;`,
		},
		{
			name: "macro with argument",
			src:  `#[trace_fn!(info)] fn f() {}`,
			want: `# [trace_fn ! (info)] fn f () {}`,
		},
		{
			name: "bare macro keeps no group",
			src:  `#[maybe_pub!] struct S;`,
			want: `# [maybe_pub !] struct S ;`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseOne(t, tt.src)
			group, err := Declaration(d, d.Outer)
			if err != nil {
				t.Fatalf("Declaration() error: %v", err)
			}
			if got := render(t, group); got != tt.want {
				t.Errorf("assembled = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeclaration_ContainerBody(t *testing.T) {
	d := parseOne(t, `mod m { #![marker] #[inline] fn inside() {} struct Deep; }`)
	group, err := Declaration(d, nil)
	if err != nil {
		t.Fatalf("Declaration() error: %v", err)
	}
	got := render(t, group)
	want := "mod m {# ! [marker] # [inline] fn inside () {} struct Deep ;}"
	if got != want {
		t.Errorf("assembled = %q, want %q", got, want)
	}
}

func TestDeclaration_PlaceholderPrecondition(t *testing.T) {
	d := parseOne(t, `fn f() { $body }`)
	_, err := Declaration(d, nil)
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
	if pre.Tok.Text != "$body" {
		t.Errorf("offending token = %q, want $body", pre.Tok.Text)
	}
}

func TestDeclaration_OutputIsIndependentCopy(t *testing.T) {
	d := parseOne(t, `struct S;`)
	group, err := Declaration(d, nil)
	if err != nil {
		t.Fatalf("Declaration() error: %v", err)
	}
	group.Nodes[0].Tok.Text = "mutated"
	if d.Tokens[0].Tok.Text != "struct" {
		t.Errorf("assembly output shares storage with the declaration")
	}
}

package macros

import (
	"errors"
	"testing"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/expand"
	"marrow/internal/lexer"
	"marrow/internal/parser"
	"marrow/internal/source"
	"marrow/internal/token"
)

func parseSrc(t *testing.T, src string) []*ast.Declaration {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.mw", []byte(src))
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	decls := parser.FromLexer(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), rep).ParseFile()
	if bag.HasErrors() {
		t.Fatalf("parse %q: %v", src, bag.Items())
	}
	return decls
}

func parseOne(t *testing.T, src string) *ast.Declaration {
	t.Helper()
	decls := parseSrc(t, src)
	if len(decls) != 1 {
		t.Fatalf("parse %q: got %d declarations, want 1", src, len(decls))
	}
	return decls[0]
}

func expandOne(t *testing.T, inv expand.Invoker, src string) []*ast.Declaration {
	t.Helper()
	out, err := expand.New(inv, nil).Expand(parseOne(t, src))
	if err != nil {
		t.Fatalf("Expand(%q) error: %v", src, err)
	}
	return out
}

func TestDefault_Names(t *testing.T) {
	want := []string{"From", "loop", "maybe_pub", "noop", "trace_fn"}
	got := Default().Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestNoop_Identity(t *testing.T) {
	out := expandOne(t, Default(), `#[noop!] struct S;`)
	if len(out) != 1 {
		t.Fatalf("result = %d declarations, want 1", len(out))
	}
	if got := token.RenderTrees(out[0].Tokens); got != "struct S ;" {
		t.Errorf("tokens = %q, want %q", got, "struct S ;")
	}
	if !out[0].ExpansionComplete() {
		t.Error("macro annotations survive expansion")
	}
}

func TestMaybePub(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"adds pub", `#[maybe_pub!] fn helper() {}`, "pub fn helper () {}"},
		{"already pub", `#[maybe_pub!] pub fn helper() {}`, "pub fn helper () {}"},
		{"default elaboration", `#[maybe_pub!()] struct S;`, "pub struct S ;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := expandOne(t, Default(), tt.src)
			if len(out) != 1 {
				t.Fatalf("result = %d declarations, want 1", len(out))
			}
			if got := token.RenderTrees(out[0].Tokens); got != tt.want {
				t.Errorf("tokens = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaybePub_IdentityRebind(t *testing.T) {
	// A build that wants conditional visibility off rebinds the macro to
	// identity instead of editing every annotation site.
	r := Default()
	r.RebindIdentity("maybe_pub")

	out := expandOne(t, r, `#[maybe_pub!] fn helper() {}`)
	if got := token.RenderTrees(out[0].Tokens); got != "fn helper () {}" {
		t.Errorf("tokens = %q, want unchanged declaration", got)
	}
}

func TestTraceFn(t *testing.T) {
	out := expandOne(t, Default(), `#[trace_fn!(debug)] fn work() { body(); }`)
	if len(out) != 1 {
		t.Fatalf("result = %d declarations, want 1", len(out))
	}
	want := `fn work () {trace (debug , "work") ; body () ;}`
	if got := token.RenderTrees(out[0].Tokens); got != want {
		t.Errorf("tokens = %q, want %q", got, want)
	}
}

func TestTraceFn_DefaultLevel(t *testing.T) {
	out := expandOne(t, Default(), `#[trace_fn!] fn work() { body(); }`)
	want := `fn work () {trace (info , "work") ; body () ;}`
	if got := token.RenderTrees(out[0].Tokens); got != want {
		t.Errorf("tokens = %q, want %q", got, want)
	}
}

func TestTraceFn_RejectsNonFunctions(t *testing.T) {
	_, err := expand.New(Default(), nil).Expand(parseOne(t, `#[trace_fn!] struct S;`))
	if err == nil {
		t.Fatal("expected an error for a non-function item")
	}
}

func TestFromDerive(t *testing.T) {
	out := expandOne(t, Default(), `#[derive(From!)] struct Wrapped(u16);`)
	if len(out) != 2 {
		t.Fatalf("result = %d declarations, want struct + impl", len(out))
	}
	if out[0].Name != "Wrapped" || out[1].Keyword != "impl" {
		t.Fatalf("result = [%s %s, %s %s]", out[0].Keyword, out[0].Name, out[1].Keyword, out[1].Name)
	}
	rendered := token.RenderTrees(out[1].Tokens)
	want := "impl From < u16 > for Wrapped {fn from (v : u16) -> Wrapped {Wrapped (v)}}"
	if rendered != want {
		t.Errorf("impl tokens = %q, want %q", rendered, want)
	}
}

func TestFromDerive_ExplicitSource(t *testing.T) {
	out := expandOne(t, Default(), `#[derive(From!(u8), Clone)] struct Wrapped(u16);`)
	if len(out) != 2 {
		t.Fatalf("result = %d declarations, want 2", len(out))
	}
	rendered := token.RenderTrees(out[1].Tokens)
	want := "impl From < u8 > for Wrapped {fn from (v : u8) -> Wrapped {Wrapped (v)}}"
	if rendered != want {
		t.Errorf("impl tokens = %q, want %q", rendered, want)
	}
	// Plain entries stay on the original for downstream tooling.
	list := out[0].Outer[out[0].DeriveList()]
	if len(list.Items) != 1 || list.Items[0].Name != "Clone" {
		t.Errorf("remaining derive entries = %+v, want [Clone]", list.Items)
	}
}

func TestLoop_HitsRecursionLimit(t *testing.T) {
	x := expand.New(Default(), expand.NewBudget(16))
	_, err := x.Expand(parseOne(t, `#[loop!] struct S;`))
	if !errors.Is(err, expand.ErrRecursionLimit) {
		t.Fatalf("error = %v, want ErrRecursionLimit", err)
	}
	if x.Budget().Used() != 16 {
		t.Errorf("budget used = %d, want 16", x.Budget().Used())
	}
}

func TestDeny(t *testing.T) {
	r := Default()
	r.Deny("trace_fn")

	_, err := expand.New(r, nil).Expand(parseOne(t, `#[trace_fn!] fn f() {}`))
	if !errors.Is(err, expand.ErrUnknownMacro) {
		t.Fatalf("error = %v, want ErrUnknownMacro", err)
	}
	for _, n := range r.Names() {
		if n == "trace_fn" {
			t.Error("denied macro still listed")
		}
	}
}

func TestUnknownMacro(t *testing.T) {
	_, err := expand.New(Default(), nil).Expand(parseOne(t, `#[nope!] struct S;`))
	if !errors.Is(err, expand.ErrUnknownMacro) {
		t.Fatalf("error = %v, want ErrUnknownMacro", err)
	}
}

func TestRegister_Custom(t *testing.T) {
	r := NewRegistry()
	r.Register(Macro{Name: "drop", Expand: func(expand.Request) (expand.Outcome, error) {
		return expand.Declarations(), nil
	}})

	out, err := expand.New(r, nil).Expand(parseOne(t, `#[drop!] struct Gone;`))
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("result = %d declarations, want 0", len(out))
	}
}

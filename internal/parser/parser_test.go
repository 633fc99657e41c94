package parser

import (
	"testing"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/lexer"
	"marrow/internal/source"
	"marrow/internal/token"
)

func parseSrc(t *testing.T, src string) ([]*ast.Declaration, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.mw", []byte(src))
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	return FromLexer(lx, rep).ParseFile(), bag
}

func mustParseOne(t *testing.T, src string) *ast.Declaration {
	t.Helper()
	decls, bag := parseSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(decls) != 1 {
		t.Fatalf("parsed %d declarations, want 1", len(decls))
	}
	return decls[0]
}

func TestParser_LeafDeclarations(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		keyword string
		ident   string
	}{
		{"semicolon struct", `struct Wrapped(u16);`, "struct", "Wrapped"},
		{"braced struct", `struct Point { x: i32, y: i32 }`, "struct", "Point"},
		{"function", `fn add(a: i32, b: i32) -> i32 { a + b }`, "fn", "add"},
		{"public function", `pub fn visible() {}`, "fn", "visible"},
		{"type alias", `type Meters = u32;`, "type", "Meters"},
		{"constant", `const LIMIT = 128;`, "const", "LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParseOne(t, tt.src)
			if d.Keyword != tt.keyword || d.Name != tt.ident {
				t.Errorf("parsed %s %q, want %s %q", d.Keyword, d.Name, tt.keyword, tt.ident)
			}
			if d.Container {
				t.Error("leaf declaration marked as container")
			}
		})
	}
}

func TestParser_AnnotationForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ast.AnnotationKind
	}{
		{"word", `#[inline] fn f() {}`, ast.AnnWord},
		{"key value", `#[doc = "docs"] fn f() {}`, ast.AnnKeyValue},
		{"list", `#[derive(Clone, Debug)] struct S;`, ast.AnnList},
		{"macro bare", `#[maybe_pub!] struct S;`, ast.AnnMacro},
		{"macro with group", `#[trace_fn!(info)] fn f() {}`, ast.AnnMacro},
		{"macro with bracket group", `#[rows![1, 2, 3]] struct S;`, ast.AnnMacro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParseOne(t, tt.src)
			if len(d.Outer) != 1 {
				t.Fatalf("parsed %d outer annotations, want 1", len(d.Outer))
			}
			if d.Outer[0].Kind != tt.kind {
				t.Errorf("annotation kind = %v, want %v", d.Outer[0].Kind, tt.kind)
			}
		})
	}
}

func TestParser_MacroAnnotationArg(t *testing.T) {
	d := mustParseOne(t, `#[trace_fn!(info)] fn f() {}`)
	ann := d.Outer[0]
	if ann.Name != "trace_fn" || ann.Arg == nil {
		t.Fatalf("annotation = %+v, want trace_fn with argument group", ann)
	}
	if ann.Arg.Delim != token.DelimParen || len(ann.Arg.Nodes) != 1 {
		t.Fatalf("argument group = %+v, want (info)", ann.Arg)
	}
	if ann.Arg.Nodes[0].Tok.Text != "info" {
		t.Errorf("argument token = %q, want info", ann.Arg.Nodes[0].Tok.Text)
	}

	bare := mustParseOne(t, `#[maybe_pub!] struct S;`)
	if bare.Outer[0].Arg != nil {
		t.Error("bare macro invocation must keep a nil argument until elaboration")
	}
}

func TestParser_NestedAnnotationList(t *testing.T) {
	d := mustParseOne(t, `#[cfg(feature(fancy), target = "linux")] fn f() {}`)
	ann := d.Outer[0]
	if ann.Kind != ast.AnnList || len(ann.Items) != 2 {
		t.Fatalf("annotation = %+v, want list with 2 items", ann)
	}
	if ann.Items[0].Kind != ast.AnnList || ann.Items[0].Name != "feature" {
		t.Errorf("first item = %+v, want nested list feature(...)", ann.Items[0])
	}
	if ann.Items[1].Kind != ast.AnnKeyValue || ann.Items[1].Name != "target" {
		t.Errorf("second item = %+v, want key-value target", ann.Items[1])
	}
}

func TestParser_AnnotationOrderPreserved(t *testing.T) {
	d := mustParseOne(t, "#[doc = \"d\"]\n#[a!]\n#[b!]\nfn f() {}")
	if len(d.Outer) != 3 {
		t.Fatalf("parsed %d annotations, want 3", len(d.Outer))
	}
	names := []string{d.Outer[0].Name, d.Outer[1].Name, d.Outer[2].Name}
	want := []string{"doc", "a", "b"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("annotation %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParser_Container(t *testing.T) {
	d := mustParseOne(t, `
#[outer]
mod m {
	#![inner_marker]
	#![tooling!]

	fn inside() {}
	struct Deep;
}`)
	if !d.Container || d.Keyword != "mod" || d.Name != "m" {
		t.Fatalf("parsed %+v, want container mod m", d)
	}
	if len(d.Outer) != 1 || d.Outer[0].Name != "outer" {
		t.Errorf("outer annotations = %+v", d.Outer)
	}
	if len(d.Inner) != 2 || d.Inner[0].Name != "inner_marker" || d.Inner[1].Name != "tooling" {
		t.Errorf("inner annotations = %+v", d.Inner)
	}
	if d.Inner[1].Kind != ast.AnnMacro {
		t.Errorf("second inner annotation kind = %v, want macro", d.Inner[1].Kind)
	}
	if len(d.Children) != 2 || d.Children[0].Name != "inside" || d.Children[1].Name != "Deep" {
		t.Errorf("children = %+v", d.Children)
	}
}

func TestParser_ImplBlock(t *testing.T) {
	d := mustParseOne(t, `impl From<u8> for Wrapped { fn from(v: u8) -> Wrapped { Wrapped(v) } }`)
	if d.Keyword != "impl" || d.Name != "" {
		t.Fatalf("parsed %s %q, want nameless impl", d.Keyword, d.Name)
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing annotation name", `#[!] fn f() {}`, diag.SynExpectIdentifier},
		{"bad key value literal", `#[doc = fn] fn f() {}`, diag.SynBadLiteral},
		{"unclosed annotation", `#[doc fn f() {}`, diag.SynExpectAnnotationClose},
		{"unclosed group", `fn f( {}`, diag.SynUnbalancedDelimiter},
		{"inner annotation outside container", `#![whole_file] fn f() {}`, diag.SynInnerAnnotationPlace},
		{"missing body", `struct S`, diag.SynUnterminatedItem},
		{"not a declaration", `42;`, diag.SynExpectDeclaration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := parseSrc(t, tt.src)
			found := false
			for _, d := range bag.Items() {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Errorf("expected code %v, diagnostics: %+v", tt.code, bag.Items())
			}
		})
	}
}

func TestParser_ErrorDoesNotCorruptSiblings(t *testing.T) {
	decls, bag := parseSrc(t, "struct Good;\n#[bad = fn] struct Broken;\nstruct AlsoGood;")
	if !bag.HasErrors() {
		t.Fatal("expected diagnostics for the broken declaration")
	}
	if len(decls) != 2 || decls[0].Name != "Good" || decls[1].Name != "AlsoGood" {
		names := make([]string, len(decls))
		for i, d := range decls {
			names[i] = d.Name
		}
		t.Errorf("surviving declarations = %v, want [Good AlsoGood]", names)
	}
}

func TestParser_FromTreesRoundTrip(t *testing.T) {
	orig := mustParseOne(t, `pub struct Wrapped(u16);`)
	reparsed := FromTrees(orig.Tokens, nil).ParseFile()
	if len(reparsed) != 1 {
		t.Fatalf("re-parsed %d declarations, want 1", len(reparsed))
	}
	if reparsed[0].Keyword != "struct" || reparsed[0].Name != "Wrapped" {
		t.Errorf("re-parsed %s %q, want struct Wrapped", reparsed[0].Keyword, reparsed[0].Name)
	}
}

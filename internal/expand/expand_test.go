package expand

import (
	"testing"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/lexer"
	"marrow/internal/parser"
	"marrow/internal/source"
	"marrow/internal/token"
)

func parseDecls(t *testing.T, src string) []*ast.Declaration {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.mw", []byte(src))
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	decls := parser.FromLexer(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), rep).ParseFile()
	if bag.HasErrors() {
		t.Fatalf("fixture parse failed: %+v", bag.Items())
	}
	return decls
}

func parseOne(t *testing.T, src string) *ast.Declaration {
	t.Helper()
	decls := parseDecls(t, src)
	if len(decls) != 1 {
		t.Fatalf("fixture yielded %d declarations, want 1", len(decls))
	}
	return decls[0]
}

// reparseItem recovers the declarations encoded in a request's item tokens.
func reparseItem(t testing.TB, req Request) []*ast.Declaration {
	decls := parser.FromTrees(req.ItemTrees(), nil).ParseFile()
	if len(decls) == 0 {
		t.Fatalf("item tokens did not re-parse: %q", token.RenderTrees(req.ItemTrees()))
	}
	return decls
}

// identityInvoker re-emits the annotated item unchanged and records every
// invocation it sees.
type identityInvoker struct {
	names []string
	args  []string
}

func (iv *identityInvoker) Invoke(req Request) (Outcome, error) {
	iv.names = append(iv.names, req.Name)
	iv.args = append(iv.args, token.RenderTrees([]token.Tree{req.MacroArg()}))
	decls := parser.FromTrees(req.ItemTrees(), nil).ParseFile()
	return Declarations(decls...), nil
}

func outerNames(d *ast.Declaration) []string {
	out := make([]string, len(d.Outer))
	for i := range d.Outer {
		out[i] = d.Outer[i].Name
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

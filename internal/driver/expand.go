package driver

import (
	"errors"

	"marrow/internal/assemble"
	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/expand"
	"marrow/internal/lexer"
	"marrow/internal/macros"
	"marrow/internal/parser"
	"marrow/internal/source"
	"marrow/internal/token"
)

// Options configures the expansion pipeline.
type Options struct {
	// Invoker resolves macro invocations; nil selects the built-in registry.
	Invoker expand.Invoker
	// MaxDepth bounds macro invocations per top-level declaration;
	// 0 selects the default limit.
	MaxDepth int
	// MaxDiagnostics caps collected diagnostics per file.
	MaxDiagnostics int
	// Enabled decides cfg conditions; nil means no feature is enabled.
	Enabled func(string) bool
	// Cache, when set, skips expansion for files whose content hash has a
	// clean cached artifact.
	Cache *Cache
	// Jobs limits concurrent file expansion in ExpandDir; 0 means one per
	// CPU.
	Jobs int
	// Events, when set, receives per-file progress. ExpandDir closes it.
	Events chan<- Event
}

func (o Options) invoker() expand.Invoker {
	if o.Invoker != nil {
		return o.Invoker
	}
	return macros.Default()
}

func (o Options) enabled() func(string) bool {
	if o.Enabled != nil {
		return o.Enabled
	}
	return func(string) bool { return false }
}

type ExpandResult struct {
	FileSet *source.FileSet
	File    *source.File
	Decls   []*ast.Declaration
	Bag     *diag.Bag
}

// ExpandFile runs the full pipeline on one file: parse, cfg-filter, then
// expand every surviving top-level declaration. Expansion is all-or-nothing
// per declaration: a failed one is reported and dropped, its siblings keep
// their results.
func ExpandFile(path string, opts Options) (*ExpandResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	res := expandParsed(fs, fileID, opts)
	return res, nil
}

// ExpandSource runs the same pipeline on in-memory content, used by tests
// and stdin input.
func ExpandSource(name string, content []byte, opts Options) *ExpandResult {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual(name, content)
	return expandParsed(fs, fileID, opts)
}

func expandParsed(fs *source.FileSet, fileID source.FileID, opts Options) *ExpandResult {
	file := fs.Get(fileID)
	bag := diag.NewBag(opts.MaxDiagnostics)
	rep := diag.BagReporter{Bag: bag}

	lx := lexer.New(file, lexer.Options{Reporter: rep})
	decls := parser.FromLexer(lx, rep).ParseFile()

	decls = expand.FilterCfg(decls, opts.enabled())

	inv := opts.invoker()
	var out []*ast.Declaration
	for _, d := range decls {
		x := expand.New(inv, expand.NewBudget(opts.MaxDepth))
		produced, err := x.Expand(d)
		if err != nil {
			reportExpandError(bag, err)
			continue
		}
		out = append(out, produced...)
	}

	// Nothing past this point may still carry an invocation.
	for _, d := range out {
		if !d.ExpansionComplete() {
			bag.Add(diag.NewError(diag.ExpUnexpanded, d.Span,
				"declaration still carries macro annotations after expansion"))
		}
	}

	return &ExpandResult{FileSet: fs, File: file, Decls: out, Bag: bag}
}

func reportExpandError(bag *diag.Bag, err error) {
	var e *expand.Error
	if errors.As(err, &e) {
		bag.Add(e.Diagnostic())
		return
	}
	bag.Add(diag.NewError(diag.UnknownCode, source.Span{}, err.Error()))
}

// Render serializes expanded declarations back to source-like text, one
// line per top-level declaration.
func Render(decls []*ast.Declaration) ([]string, error) {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		tree, err := assemble.Declaration(d, d.Outer)
		if err != nil {
			return nil, err
		}
		out = append(out, token.RenderTrees(tree.Nodes))
	}
	return out, nil
}

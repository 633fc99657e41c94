package driver

import (
	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/lexer"
	"marrow/internal/parser"
	"marrow/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Decls   []*ast.Declaration
	Bag     *diag.Bag
}

// Parse loads, lexes and parses a single file into declaration trees.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	rep := diag.BagReporter{Bag: bag}
	lx := lexer.New(file, lexer.Options{Reporter: rep})
	decls := parser.FromLexer(lx, rep).ParseFile()

	return &ParseResult{
		FileSet: fs,
		File:    file,
		Decls:   decls,
		Bag:     bag,
	}, nil
}

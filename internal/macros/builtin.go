package macros

import (
	"fmt"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/expand"
	"marrow/internal/lexer"
	"marrow/internal/parser"
	"marrow/internal/source"
	"marrow/internal/token"
)

// builtins enumerates the macros shipped with the toolchain. They are small
// by design: enough to exercise attribute position, derive position,
// body rewriting and deliberate non-termination.
func builtins() []Macro {
	return []Macro{
		{Name: "noop", Expand: identityExpand},
		{Name: "maybe_pub", Expand: expandMaybePub},
		{Name: "trace_fn", Expand: expandTraceFn},
		{Name: "From", Expand: expandFrom},
		// Intentionally divergent: re-emits its own invocation so the
		// engine's recursion limit can be demonstrated and tested.
		{Name: "loop", Expand: expandLoop},
	}
}

// itemDecls re-parses a request's item tokens into declarations.
func itemDecls(req expand.Request) ([]*ast.Declaration, error) {
	bag := diag.NewBag(8)
	decls := parser.FromTrees(req.ItemTrees(), diag.BagReporter{Bag: bag}).ParseFile()
	if bag.HasErrors() {
		return nil, fmt.Errorf("macro %q: item tokens did not parse: %s",
			req.Name, bag.Items()[0].Message)
	}
	return decls, nil
}

// singleItem is itemDecls for macros that require exactly one item.
func singleItem(req expand.Request) (*ast.Declaration, error) {
	decls, err := itemDecls(req)
	if err != nil {
		return nil, err
	}
	if len(decls) != 1 {
		return nil, fmt.Errorf("macro %q: expected one item, got %d", req.Name, len(decls))
	}
	return decls[0], nil
}

func identityExpand(req expand.Request) (expand.Outcome, error) {
	decls, err := itemDecls(req)
	if err != nil {
		return expand.Outcome{}, err
	}
	return expand.Declarations(decls...), nil
}

// expandMaybePub makes the item public unless it already is.
func expandMaybePub(req expand.Request) (expand.Outcome, error) {
	d, err := singleItem(req)
	if err != nil {
		return expand.Outcome{}, err
	}
	if len(d.Tokens) == 0 || d.Tokens[0].Kind != token.TreeLeaf || d.Tokens[0].Tok.Kind != token.KwPub {
		vis := token.NewLeaf(token.Token{Kind: token.KwPub, Span: req.Span, Text: "pub"})
		d.Tokens = append([]token.Tree{vis}, d.Tokens...)
	}
	return expand.Declarations(d), nil
}

// expandTraceFn prefixes a function body with a trace call. The invocation
// argument is the trace level, defaulting to info.
func expandTraceFn(req expand.Request) (expand.Outcome, error) {
	d, err := singleItem(req)
	if err != nil {
		return expand.Outcome{}, err
	}
	if d.Keyword != "fn" {
		return expand.Outcome{}, fmt.Errorf("macro %q: only functions can be traced, got %s", req.Name, d.Keyword)
	}
	last := len(d.Tokens) - 1
	if last < 0 || d.Tokens[last].Delim != token.DelimBrace {
		return expand.Outcome{}, fmt.Errorf("macro %q: function %q has no body to trace", req.Name, d.Name)
	}

	level := "info"
	if nodes := req.MacroArg().Nodes; len(nodes) == 1 && nodes[0].IsLeaf() {
		level = nodes[0].Tok.Text
	}

	body := d.Tokens[last]
	traced := token.NewGroup(token.DelimBrace, []token.Tree{
		token.NewLeaf(token.Token{Kind: token.Ident, Span: req.Span, Text: "trace"}),
		token.NewGroup(token.DelimParen, []token.Tree{
			token.NewLeaf(token.Token{Kind: token.Ident, Span: req.Span, Text: level}),
			token.NewLeaf(token.Token{Kind: token.Comma, Span: req.Span, Text: ","}),
			token.NewLeaf(token.Token{Kind: token.StringLit, Span: req.Span, Text: fmt.Sprintf("%q", d.Name)}),
		}, req.Span),
		token.NewLeaf(token.Token{Kind: token.Semicolon, Span: req.Span, Text: ";"}),
		token.NewGroup(token.DelimNone, body.Nodes, body.Span),
	}, body.Span)
	d.Tokens[last] = traced

	return expand.Declarations(d), nil
}

// expandFrom derives a conversion impl for a tuple-like wrapper struct. The
// entry argument selects the source type; without one the wrapped field
// type is used.
func expandFrom(req expand.Request) (expand.Outcome, error) {
	d, err := singleItem(req)
	if err != nil {
		return expand.Outcome{}, err
	}
	if d.Keyword != "struct" {
		return expand.Outcome{}, fmt.Errorf("macro %q: conversion derives need a struct, got %s", req.Name, d.Keyword)
	}

	srcType := ""
	if nodes := req.MacroArg().Nodes; len(nodes) > 0 {
		srcType = token.RenderTrees(nodes)
	} else if field, ok := wrappedFieldType(d); ok {
		srcType = field
	}
	if srcType == "" {
		return expand.Outcome{}, fmt.Errorf("macro %q: cannot infer a source type for %q", req.Name, d.Name)
	}

	src := fmt.Sprintf("impl From<%s> for %s { fn from(v: %s) -> %s { %s(v) } }",
		srcType, d.Name, srcType, d.Name, d.Name)
	impl, err := parseGenerated(req.Name, src)
	if err != nil {
		return expand.Outcome{}, err
	}
	return expand.Declarations(impl), nil
}

// wrappedFieldType extracts the single field type of a tuple struct like
// `struct Wrapped(u16);`.
func wrappedFieldType(d *ast.Declaration) (string, bool) {
	for _, tree := range d.Tokens {
		if tree.IsGroup() && tree.Delim == token.DelimParen {
			if len(tree.Nodes) == 0 {
				return "", false
			}
			return token.RenderTrees(tree.Nodes), true
		}
	}
	return "", false
}

func expandLoop(req expand.Request) (expand.Outcome, error) {
	d, err := singleItem(req)
	if err != nil {
		return expand.Outcome{}, err
	}
	d.Outer = append([]ast.Annotation{{Kind: ast.AnnMacro, Name: "loop", Span: req.Span}}, d.Outer...)
	return expand.Declarations(d), nil
}

// parseGenerated lexes and parses macro-generated source text.
func parseGenerated(macroName, src string) (*ast.Declaration, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(fmt.Sprintf("<%s! output>", macroName), []byte(src))
	bag := diag.NewBag(8)
	rep := diag.BagReporter{Bag: bag}
	decls := parser.FromLexer(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), rep).ParseFile()
	if bag.HasErrors() || len(decls) != 1 {
		return nil, fmt.Errorf("macro %q generated invalid output: %s", macroName, src)
	}
	return decls[0], nil
}

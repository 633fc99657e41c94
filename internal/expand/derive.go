package expand

import (
	"marrow/internal/assemble"
	"marrow/internal/ast"
)

// ExpandDerive resolves macro-invocation entries inside the declaration's
// derive lists. The original declaration is never removed or structurally
// modified: derive expansion only consumes the macro entries from the list
// (plain entries stay for downstream stages) and emits the generated
// declarations as new siblings immediately after the original, in entry
// order. Generated declarations are themselves fully expanded.
func (x *Expander) ExpandDerive(decl *ast.Declaration) ([]*ast.Declaration, error) {
	out := []*ast.Declaration{decl}

	for idx := decl.DeriveList(); idx >= 0; idx = nextDeriveList(decl, idx) {
		list := &decl.Outer[idx]
		if !ast.HasMacro(list.Items) {
			continue
		}

		// item_tokens: the declaration with ALL of its annotations
		// stripped; preceding/following context and the derive list itself
		// are irrelevant for derivation input.
		item, err := assemble.Declaration(decl, nil)
		if err != nil {
			return nil, assemblyError(err, list.Span)
		}

		kept := list.Items[:0:0]
		for _, entry := range list.Items {
			if !entry.IsMacro() {
				kept = append(kept, entry)
				continue
			}

			outcome, err := x.invoke(entry, item)
			if err != nil {
				return nil, err
			}
			for _, produced := range outcome.Decls {
				expanded, err := x.Expand(produced)
				if err != nil {
					return nil, err
				}
				out = append(out, expanded...)
			}
		}
		list.Items = kept
	}

	return out, nil
}

// nextDeriveList finds the next derive list after index idx, or -1.
func nextDeriveList(d *ast.Declaration, idx int) int {
	for i := idx + 1; i < len(d.Outer); i++ {
		if d.Outer[i].Kind == ast.AnnList && d.Outer[i].Name == "derive" {
			return i
		}
	}
	return -1
}

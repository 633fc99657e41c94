package expand

import (
	"marrow/internal/ast"
)

// FilterCfg applies conditional-compilation filtering to a declaration
// sequence: declarations carrying a `cfg(...)` annotation whose entries are
// not all enabled are dropped, and satisfied cfg annotations are removed
// from the survivors. Filtering runs before promotion and expansion, so a
// disabled declaration never reaches the executor.
func FilterCfg(decls []*ast.Declaration, enabled func(string) bool) []*ast.Declaration {
	if enabled == nil {
		enabled = func(string) bool { return false }
	}
	var out []*ast.Declaration
	for _, d := range decls {
		if !cfgSatisfied(d.Outer, enabled) || !cfgSatisfied(d.Inner, enabled) {
			continue
		}
		d.Outer = stripCfg(d.Outer)
		d.Inner = stripCfg(d.Inner)
		if d.Container {
			d.Children = FilterCfg(d.Children, enabled)
		}
		out = append(out, d)
	}
	return out
}

func isCfg(a ast.Annotation) bool {
	return a.Kind == ast.AnnList && a.Name == "cfg"
}

func cfgSatisfied(anns []ast.Annotation, enabled func(string) bool) bool {
	for i := range anns {
		if !isCfg(anns[i]) {
			continue
		}
		for _, entry := range anns[i].Items {
			if entry.Kind != ast.AnnWord || !enabled(entry.Name) {
				return false
			}
		}
	}
	return true
}

func stripCfg(anns []ast.Annotation) []ast.Annotation {
	out := anns[:0:0]
	for i := range anns {
		if !isCfg(anns[i]) {
			out = append(out, anns[i])
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

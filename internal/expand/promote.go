package expand

import (
	"marrow/internal/ast"
)

// Promote normalizes a container's inner annotations into outer position:
// they are appended, in original order, after any existing outer
// annotations, and the inner sequence is cleared. Appending (not
// prepending) means promoted macro invocations are scanned only after every
// pre-existing outer annotation has been resolved.
//
// Promotion is idempotent; non-containers and containers with an empty
// inner sequence pass through unchanged.
func Promote(d *ast.Declaration) *ast.Declaration {
	if len(d.Inner) == 0 {
		return d
	}
	d.Outer = append(d.Outer, d.Inner...)
	d.Inner = nil
	return d
}

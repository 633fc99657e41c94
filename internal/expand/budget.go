package expand

import (
	"marrow/internal/diag"
	"marrow/internal/source"
)

// DefaultMaxDepth bounds macro invocations per top-level expansion request
// when no manifest overrides it.
const DefaultMaxDepth = 128

// Budget is the per-top-level-request invocation counter. It is the sole
// termination guarantee against self-expanding macros, so every call into
// the executor must charge it first.
type Budget struct {
	limit int
	used  int
}

// NewBudget creates a budget allowing limit invocations; limit <= 0 selects
// DefaultMaxDepth.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	return &Budget{limit: limit}
}

// Charge consumes one invocation, failing with ErrRecursionLimit once the
// limit is exhausted. span names the invocation being attempted.
func (b *Budget) Charge(span source.Span) error {
	if b.used >= b.limit {
		return newError(diag.ExpRecursionLimit, ErrRecursionLimit, span,
			"macro expansion exceeded the recursion limit of %d", b.limit)
	}
	b.used++
	return nil
}

// Used reports how many invocations have been charged.
func (b *Budget) Used() int { return b.used }

// Limit reports the configured maximum.
func (b *Budget) Limit() int { return b.limit }

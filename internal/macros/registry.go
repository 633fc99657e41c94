// Package macros provides a registry-backed implementation of the expansion
// engine's executor capability. The engine itself never depends on this
// package; it is what the CLI (and scenario tests) plug in as the Invoker.
package macros

import (
	"fmt"
	"sort"
	"sync"

	"marrow/internal/expand"
)

// ExpandFunc performs one macro invocation.
type ExpandFunc func(req expand.Request) (expand.Outcome, error)

// Macro binds a name to its expansion behavior.
type Macro struct {
	Name   string
	Expand ExpandFunc
}

// Registry maps macro names to definitions. It is safe for concurrent
// invocation, which parallel per-file expansion relies on.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Macro
	denied map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Macro),
		denied: make(map[string]bool),
	}
}

// Register adds or replaces a macro definition.
func (r *Registry) Register(m Macro) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[m.Name] = m
}

// Deny marks names as unbound even if registered: invocations fail with
// ErrUnknownMacro. This backs the manifest's [macros] deny list.
func (r *Registry) Deny(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		r.denied[n] = true
	}
}

// RebindIdentity replaces a name with the identity expansion, which
// re-emits the annotated item unchanged. This backs the manifest's
// [macros] identity list.
func (r *Registry) RebindIdentity(names ...string) {
	for _, n := range names {
		r.Register(Macro{Name: n, Expand: identityExpand})
	}
}

// Names returns the registered macro names, sorted, denial applied.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		if !r.denied[n] {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Invoke implements expand.Invoker.
func (r *Registry) Invoke(req expand.Request) (expand.Outcome, error) {
	r.mu.RLock()
	m, ok := r.byName[req.Name]
	denied := r.denied[req.Name]
	r.mu.RUnlock()

	if !ok || denied {
		return expand.Outcome{}, fmt.Errorf("%q: %w", req.Name, expand.ErrUnknownMacro)
	}
	return m.Expand(req)
}

// Default returns a registry with every built-in macro registered.
func Default() *Registry {
	r := NewRegistry()
	for _, m := range builtins() {
		r.Register(m)
	}
	return r
}

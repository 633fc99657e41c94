// Package expand implements the macro-attribute and macro-derivation
// rewriting engine: a deterministic, left-to-right, iterate-to-fixpoint
// algorithm over annotated declarations. The macro executor itself is an
// injected capability (Invoker); this package only decides what gets
// invoked, in which order, and how results substitute into the tree.
package expand

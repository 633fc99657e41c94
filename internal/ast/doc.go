// Package ast models the annotated declaration tree the expansion engine
// rewrites: Annotation is a closed tagged variant (word, key-value, list,
// macro invocation) and Declaration keeps its syntactic form as opaque token
// trees so macros can rewrite it without the engine understanding item
// grammar beyond names and container structure.
package ast

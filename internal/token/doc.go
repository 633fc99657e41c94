// Package token defines the lexical vocabulary of the item language and the
// token-tree representation used as macro input and output: flat tokens with
// spans and leading trivia, plus the recursive leaf-or-group Tree that keeps
// delimiters balanced by construction.
package token

package token

import (
	"strings"

	"marrow/internal/source"
)

// Delim identifies the delimiter of a token-tree group.
type Delim uint8

const (
	// DelimNone groups tokens without visible delimiters (used for spliced
	// sequences such as assembled macro arguments).
	DelimNone Delim = iota
	DelimParen
	DelimBrace
	DelimBracket
)

// Open returns the opening token kind for the delimiter, Invalid for DelimNone.
func (d Delim) Open() Kind {
	switch d {
	case DelimParen:
		return LParen
	case DelimBrace:
		return LBrace
	case DelimBracket:
		return LBracket
	default:
		return Invalid
	}
}

// Close returns the closing token kind for the delimiter, Invalid for DelimNone.
func (d Delim) Close() Kind {
	switch d {
	case DelimParen:
		return RParen
	case DelimBrace:
		return RBrace
	case DelimBracket:
		return RBracket
	default:
		return Invalid
	}
}

// DelimFor returns the group delimiter for an opening token kind.
func DelimFor(k Kind) (Delim, bool) {
	switch k {
	case LParen:
		return DelimParen, true
	case LBrace:
		return DelimBrace, true
	case LBracket:
		return DelimBracket, true
	default:
		return DelimNone, false
	}
}

// TreeKind discriminates leaf and group nodes.
type TreeKind uint8

const (
	TreeLeaf TreeKind = iota
	TreeGroup
)

// Tree is the recursive leaf-or-group token representation used as macro
// input and output. Groups are balanced by construction: a group owns its
// delimiter kind, so no dangling open/close tokens can exist in a Tree.
type Tree struct {
	Kind  TreeKind
	Tok   Token // valid when Kind == TreeLeaf
	Delim Delim // valid when Kind == TreeGroup
	Nodes []Tree
	Span  source.Span
}

// NewLeaf wraps a single token as a tree node.
func NewLeaf(tok Token) Tree {
	return Tree{Kind: TreeLeaf, Tok: tok, Span: tok.Span}
}

// NewGroup builds a delimited group node.
func NewGroup(delim Delim, nodes []Tree, span source.Span) Tree {
	return Tree{Kind: TreeGroup, Delim: delim, Nodes: nodes, Span: span}
}

func (t Tree) IsLeaf() bool  { return t.Kind == TreeLeaf }
func (t Tree) IsGroup() bool { return t.Kind == TreeGroup }

// Clone deep-copies the tree. Leaf tokens are value types; only the node
// slices need fresh storage.
func (t Tree) Clone() Tree {
	if t.Kind == TreeLeaf {
		return t
	}
	nodes := make([]Tree, len(t.Nodes))
	for i := range t.Nodes {
		nodes[i] = t.Nodes[i].Clone()
	}
	t.Nodes = nodes
	return t
}

// CloneTrees deep-copies a slice of trees.
func CloneTrees(trees []Tree) []Tree {
	if trees == nil {
		return nil
	}
	out := make([]Tree, len(trees))
	for i := range trees {
		out[i] = trees[i].Clone()
	}
	return out
}

// Flatten appends the tree's concrete tokens to dst, materializing group
// delimiters as tokens. DelimNone groups splice their children in place.
func (t Tree) Flatten(dst []Token) []Token {
	if t.Kind == TreeLeaf {
		return append(dst, t.Tok)
	}
	if t.Delim != DelimNone {
		dst = append(dst, Token{Kind: t.Delim.Open(), Span: source.Span{File: t.Span.File, Start: t.Span.Start, End: t.Span.Start}, Text: t.Delim.Open().String()})
	}
	for i := range t.Nodes {
		dst = t.Nodes[i].Flatten(dst)
	}
	if t.Delim != DelimNone {
		dst = append(dst, Token{Kind: t.Delim.Close(), Span: source.Span{File: t.Span.File, Start: t.Span.End, End: t.Span.End}, Text: t.Delim.Close().String()})
	}
	return dst
}

// FlattenTrees flattens a sequence of trees into concrete tokens.
func FlattenTrees(trees []Tree) []Token {
	var out []Token
	for i := range trees {
		out = trees[i].Flatten(out)
	}
	return out
}

// FindPlaceholder returns the first unresolved Placeholder leaf, if any.
func (t Tree) FindPlaceholder() (Token, bool) {
	if t.Kind == TreeLeaf {
		if t.Tok.Kind == Placeholder {
			return t.Tok, true
		}
		return Token{}, false
	}
	for i := range t.Nodes {
		if tok, ok := t.Nodes[i].FindPlaceholder(); ok {
			return tok, true
		}
	}
	return Token{}, false
}

// RenderTrees produces a canonical single-line textual form of the trees.
// Formatting fidelity is not a goal, only token identity and delimiter
// structure.
func RenderTrees(trees []Tree) string {
	var sb strings.Builder
	renderTrees(&sb, trees)
	return sb.String()
}

func renderTrees(sb *strings.Builder, trees []Tree) {
	for i := range trees {
		if i > 0 {
			sb.WriteByte(' ')
		}
		renderTree(sb, trees[i])
	}
}

func renderTree(sb *strings.Builder, t Tree) {
	if t.Kind == TreeLeaf {
		sb.WriteString(t.Tok.Text)
		return
	}
	if t.Delim != DelimNone {
		sb.WriteString(t.Delim.Open().String())
	}
	renderTrees(sb, t.Nodes)
	if t.Delim != DelimNone {
		sb.WriteString(t.Delim.Close().String())
	}
}

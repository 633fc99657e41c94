package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// Placeholder represents an unresolved metavariable ($name), only legal
	// inside macro-internal token trees, never in assembled output.
	Placeholder

	// IntLit represents an integer literal.
	IntLit
	// StringLit represents a double-quoted string literal.
	StringLit

	// KwFn represents the 'fn' keyword.
	KwFn // fn
	// KwStruct represents the 'struct' keyword.
	KwStruct // struct
	// KwEnum represents the 'enum' keyword.
	KwEnum // enum
	// KwMod represents the 'mod' keyword.
	KwMod // mod
	// KwImpl represents the 'impl' keyword.
	KwImpl // impl
	// KwType represents the 'type' keyword.
	KwType // type
	// KwConst represents the 'const' keyword.
	KwConst // const
	// KwPub represents the 'pub' visibility modifier.
	KwPub // pub
	// KwFor represents the 'for' keyword (impl Trait for Type).
	KwFor // for

	// Punctuation and operators.
	Hash       // #
	Bang       // !
	Assign     // =
	Comma      // ,
	Colon      // :
	ColonColon // ::
	Semicolon  // ;
	Dot        // .
	Arrow      // ->
	FatArrow   // =>
	Lt         // <
	Gt         // >
	Amp        // &
	Pipe       // |
	Star       // *
	Plus       // +
	Minus      // -
	Slash      // /
	Percent    // %
	Question   // ?
	At         // @
	Dollar     // $
	Underscore // _

	LParen   // (
	RParen   // )
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
)

var kindNames = map[Kind]string{
	Invalid:     "invalid",
	EOF:         "eof",
	Ident:       "ident",
	Placeholder: "placeholder",
	IntLit:      "int",
	StringLit:   "string",
	KwFn:        "fn",
	KwStruct:    "struct",
	KwEnum:      "enum",
	KwMod:       "mod",
	KwImpl:      "impl",
	KwType:      "type",
	KwConst:     "const",
	KwPub:       "pub",
	KwFor:       "for",
	Hash:        "#",
	Bang:        "!",
	Assign:      "=",
	Comma:       ",",
	Colon:       ":",
	ColonColon:  "::",
	Semicolon:   ";",
	Dot:         ".",
	Arrow:       "->",
	FatArrow:    "=>",
	Lt:          "<",
	Gt:          ">",
	Amp:         "&",
	Pipe:        "|",
	Star:        "*",
	Plus:        "+",
	Minus:       "-",
	Slash:       "/",
	Percent:     "%",
	Question:    "?",
	At:          "@",
	Dollar:      "$",
	Underscore:  "_",
	LParen:      "(",
	RParen:      ")",
	LBrace:      "{",
	RBrace:      "}",
	LBracket:    "[",
	RBracket:    "]",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// keywords maps identifier text to keyword kinds.
var keywords = map[string]Kind{
	"fn":     KwFn,
	"struct": KwStruct,
	"enum":   KwEnum,
	"mod":    KwMod,
	"impl":   KwImpl,
	"type":   KwType,
	"const":  KwConst,
	"pub":    KwPub,
	"for":    KwFor,
}

// LookupKeyword returns the keyword kind for ident text, or Ident.
func LookupKeyword(text string) Kind {
	if k, ok := keywords[text]; ok {
		return k
	}
	return Ident
}

// IsItemKeyword reports whether the kind can open a declaration.
func (k Kind) IsItemKeyword() bool {
	switch k {
	case KwFn, KwStruct, KwEnum, KwMod, KwImpl, KwType, KwConst:
		return true
	default:
		return false
	}
}

// IsOpenDelim reports whether the kind opens a delimited group.
func (k Kind) IsOpenDelim() bool {
	return k == LParen || k == LBrace || k == LBracket
}

// IsCloseDelim reports whether the kind closes a delimited group.
func (k Kind) IsCloseDelim() bool {
	return k == RParen || k == RBrace || k == RBracket
}

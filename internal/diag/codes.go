package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical (1xxx)
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexTokenLimit               Code = 1005

	// Syntax (2xxx)
	SynUnexpectedToken       Code = 2001
	SynUnbalancedDelimiter   Code = 2002
	SynExpectIdentifier      Code = 2003
	SynBadLiteral            Code = 2004
	SynInnerAnnotationPlace  Code = 2005
	SynExpectDeclaration     Code = 2006
	SynUnterminatedItem      Code = 2007
	SynAnnotationTrailing    Code = 2008
	SynExpectAnnotationClose Code = 2009

	// Expansion (3xxx)
	ExpUnknownMacro         Code = 3001
	ExpArity                Code = 3002
	ExpRecursionLimit       Code = 3003
	ExpAssemblyPrecondition Code = 3004
	ExpUnexpanded           Code = 3005
)

// String returns the canonical E-prefixed form used in rendered output.
func (c Code) String() string {
	return fmt.Sprintf("E%04d", uint16(c))
}

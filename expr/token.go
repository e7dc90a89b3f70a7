package expr

import "fmt"

// TokenType classifies a lexical token.
type TokenType int

const (
	// EOF marks the end of the token stream.
	EOF TokenType = iota

	// NUMBER is a decimal number literal (no exponent form).
	NUMBER

	// STRING is a single- or double-quoted string literal.
	STRING

	// BOOLEAN is the keyword literal true or false.
	BOOLEAN

	// NULL is the keyword literal null.
	NULL

	// UNDEFINED is the keyword literal undefined.
	UNDEFINED

	// IDENTIFIER is a name: letters, digits, underscore and '$',
	// not starting with a digit. '$' is reserved by convention for
	// the synthetic iteration-index name.
	IDENTIFIER

	// OPERATOR covers arithmetic, comparison, logical and unary
	// operators. Multi-character operators are matched greedily.
	OPERATOR

	// PUNCTUATION covers ( ) [ ] { } . , ? :
	PUNCTUATION

	// ASSIGNMENT is the single '=' token. It is distinct from
	// OPERATOR so the parser can reject it outside assignment
	// position without string comparison.
	ASSIGNMENT
)

// tokenTypeNames maps token types to human-readable names for
// diagnostics.
var tokenTypeNames = map[TokenType]string{
	EOF:         "end of expression",
	NUMBER:      "number",
	STRING:      "string",
	BOOLEAN:     "boolean",
	NULL:        "null",
	UNDEFINED:   "undefined",
	IDENTIFIER:  "identifier",
	OPERATOR:    "operator",
	PUNCTUATION: "punctuation",
	ASSIGNMENT:  "'='",
}

// String returns the human-readable name of the token type.
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a lexical token with its decoded literal value.
type Token struct {
	// Type classifies the token.
	Type TokenType

	// Text is the raw source text of the token. For STRING tokens
	// it excludes the quotes and has escapes decoded - the raw and
	// decoded forms are never both needed downstream.
	Text string

	// Value is the decoded literal for NUMBER (float64), STRING
	// (string), BOOLEAN (bool), NULL and UNDEFINED (nil). For all
	// other types it is nil.
	Value any

	// Pos is the byte offset of the token start within the source
	// expression, used in error messages.
	Pos int
}

// String renders the token for diagnostics: the type name plus the
// source text when it adds information.
func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of expression"
	case STRING:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return fmt.Sprintf("%s %q", t.Type, t.Text)
	}
}

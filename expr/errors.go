package expr

import (
	"errors"
	"fmt"
)

// LexError reports an unrecognized character or malformed literal
// found while tokenizing. The whole expression fails; there is no
// recovery.
type LexError struct {
	// Pos is the byte offset of the offending character.
	Pos int

	// Message describes what was wrong.
	Message string
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at offset %d: %s", e.Pos, e.Message)
}

// SyntaxError reports a grammar mismatch: the parser expected one
// kind of token and found another. The whole expression fails; there
// is no recovery.
type SyntaxError struct {
	// Expected describes the token the grammar required.
	Expected string

	// Got is the token actually found.
	Got Token
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: expected %s, got %s", e.Got.Pos, e.Expected, e.Got)
}

// IsLexError returns true if the error is (or wraps) a LexError.
func IsLexError(err error) bool {
	var le *LexError
	return errors.As(err, &le)
}

// IsSyntaxError returns true if the error is (or wraps) a SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

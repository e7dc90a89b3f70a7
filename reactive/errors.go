package reactive

import (
	"errors"
	"fmt"
)

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeNotInvokable indicates a call on a value that is not a
	// function.
	ErrCodeNotInvokable EvalErrorCode = "NOT_INVOKABLE"

	// ErrCodeReadOnlyWrite indicates a write attempted while the
	// mutation barrier was engaged (a display expression tried to
	// mutate state).
	ErrCodeReadOnlyWrite EvalErrorCode = "READ_ONLY_WRITE"

	// ErrCodeNotIndexable indicates member access on a non-nullish
	// base that has no properties (a number, a boolean).
	ErrCodeNotIndexable EvalErrorCode = "NOT_INDEXABLE"

	// ErrCodeBadAssignTarget indicates an assignment whose target
	// could not be resolved to a container slot (e.g. an alias bound
	// to an opaque value).
	ErrCodeBadAssignTarget EvalErrorCode = "BAD_ASSIGN_TARGET"

	// ErrCodeTriggerDepth indicates the opt-in re-entrant trigger
	// ceiling was exceeded (see WithMaxTriggerDepth).
	ErrCodeTriggerDepth EvalErrorCode = "TRIGGER_DEPTH_EXCEEDED"

	// ErrCodeStateDestroyed indicates an operation on a state that
	// has already been cleaned up.
	ErrCodeStateDestroyed EvalErrorCode = "STATE_DESTROYED"
)

// EvalError is an error raised while evaluating an expression against
// a state. The offending expression string is attached for diagnosis;
// no evaluation error is ever swallowed.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Expr is the expression being evaluated, when known.
	Expr string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("%s: %s (in %q)", e.Code, e.Message, e.Expr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func evalErrorf(code EvalErrorCode, format string, args ...any) *EvalError {
	return &EvalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsReadOnlyWrite returns true if the error is a write rejected by the
// mutation barrier. Uses errors.As to handle wrapped errors.
func IsReadOnlyWrite(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Code == ErrCodeReadOnlyWrite
}

// IsNotInvokable returns true if the error is a call on a value that
// is not a function.
func IsNotInvokable(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Code == ErrCodeNotInvokable
}

// IsNotIndexable returns true if the error is member access on a
// non-indexable base.
func IsNotIndexable(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Code == ErrCodeNotIndexable
}

// ConsistencyError reports internal bookkeeping corruption found
// during cleanup: a child state missing from its parent's inner-state
// set. It signals ownership-chain corruption rather than bad input and
// is unrecoverable.
type ConsistencyError struct {
	// ParentID and ChildID identify the states involved.
	ParentID string
	ChildID  string

	// Message describes the violated invariant.
	Message string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency error: %s (parent=%s, child=%s)", e.Message, e.ParentID, e.ChildID)
}

// IsConsistencyError returns true if the error is (or wraps) a
// ConsistencyError.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

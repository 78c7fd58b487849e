package loan

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error code surfaced to callers.
type Code string

const (
	CodeWrongState       Code = "LOAN_WRONG_STATE"
	CodeNotFound         Code = "LOAN_NOT_FOUND"
	CodeValidationFailed Code = "LOAN_VALIDATION_FAILED"
	CodeConcurrentUpdate Code = "LOAN_CONCURRENT_UPDATE"
	CodeStoreFailure     Code = "STORE_FAILURE"
	CodeIllegalEdge      Code = "LOAN_ILLEGAL_EDGE"
)

// Error carries a Code. errors.Is matches on the code, so any wrong-state
// error satisfies errors.Is(err, ErrInvalidTransition).
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound          = &Error{Code: CodeNotFound, Msg: "loan not found"}
	ErrInvalidTransition = &Error{Code: CodeWrongState, Msg: "loan not in a state that allows this operation"}
	ErrValidation        = &Error{Code: CodeValidationFailed, Msg: "validation failed"}
	ErrConcurrentUpdate  = &Error{Code: CodeConcurrentUpdate, Msg: "loan was modified concurrently"}
	ErrStore             = &Error{Code: CodeStoreFailure, Msg: "store failure"}
	ErrIllegalEdge       = &Error{Code: CodeIllegalEdge, Msg: "illegal status edge"}
)

func wrongState(op string, from Status) error {
	return &Error{Code: CodeWrongState, Msg: fmt.Sprintf("cannot %s loan in status %s", op, from)}
}

// Invalid reports a validation failure on caller input.
func Invalid(format string, args ...any) error {
	return &Error{Code: CodeValidationFailed, Msg: fmt.Sprintf(format, args...)}
}

// StoreError marks a persistence failure; the transition was not applied.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{Code: CodeStoreFailure, Msg: "store failure", Err: err}
}

// CodeOf extracts the code of a loan error, or "" for foreign errors.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

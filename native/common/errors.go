package common

import (
	"errors"
	"fmt"
)

// The four failure classes every engine operation can abort with. Engines
// wrap their concrete failures around one of these sentinels so callers can
// classify with errors.Is without matching message text. Every failure is
// fatal to the current operation only: no partial writes, no event.
var (
	// ErrAuthorization marks calls whose principal could not prove authority.
	ErrAuthorization = errors.New("authorization failure")
	// ErrValidation marks malformed or out-of-range input.
	ErrValidation = errors.New("validation failure")
	// ErrState marks operations attempted against an incompatible record
	// state: missing records, premature triggers, double initialisation.
	ErrState = errors.New("state failure")
	// ErrArithmetic marks overflow or inconsistency in computed amounts.
	ErrArithmetic = errors.New("arithmetic failure")
)

type classedError struct {
	class error
	err   error
}

func (e *classedError) Error() string { return e.err.Error() }

func (e *classedError) Unwrap() error { return e.err }

// Is matches the failure class sentinel in addition to the wrapped chain.
func (e *classedError) Is(target error) bool { return target == e.class }

// Authorizationf builds an authorization failure from a format string.
func Authorizationf(format string, args ...any) error {
	return &classedError{class: ErrAuthorization, err: fmt.Errorf(format, args...)}
}

// Validationf builds a validation failure from a format string.
func Validationf(format string, args ...any) error {
	return &classedError{class: ErrValidation, err: fmt.Errorf(format, args...)}
}

// Statef builds a state failure from a format string.
func Statef(format string, args ...any) error {
	return &classedError{class: ErrState, err: fmt.Errorf(format, args...)}
}

// Arithmeticf builds an arithmetic failure from a format string.
func Arithmeticf(format string, args ...any) error {
	return &classedError{class: ErrArithmetic, err: fmt.Errorf(format, args...)}
}

// Package simerr defines the error taxonomy shared by the simulation core.
// Callers match categories with errors.Is and extract per-tick failures with
// errors.As.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for out-of-range inputs such as an
	// unknown electrode or a negative energy request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUninitialized is returned when a state field is read before being set.
	ErrUninitialized = errors.New("uninitialized state")
	// ErrDomain is returned when a computation leaves its numerical domain,
	// for example a non-positive conductivity.
	ErrDomain = errors.New("numerical domain error")
	// ErrUpstream marks a module skipped because one of its inputs failed.
	ErrUpstream = errors.New("upstream module unavailable")
)

// Invalidf wraps ErrInvalidArgument with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

// Domainf wraps ErrDomain with a formatted message.
func Domainf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrDomain)
}

// ModuleError records the failure of a single physics module during a tick.
type ModuleError struct {
	Module string
	Tick   uint64
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s failed at tick %d: %v", e.Module, e.Tick, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

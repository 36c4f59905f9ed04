package dispatch

import "errors"

// Dispatch errors.
var (
	// ErrMethodNotFound indicates a selector resolves neither locally nor by inheritance.
	ErrMethodNotFound = errors.New("dispatch: method not found")

	// ErrBadImplementation indicates a value that cannot serve as a method implementation.
	ErrBadImplementation = errors.New("dispatch: bad implementation")

	// ErrBadArgument indicates arguments that do not match the resolved implementation.
	ErrBadArgument = errors.New("dispatch: bad argument")

	// ErrDuplicateClass indicates a class name registered twice.
	ErrDuplicateClass = errors.New("dispatch: duplicate class")

	// ErrClassNotFound indicates a class name missing from a registry.
	ErrClassNotFound = errors.New("dispatch: class not found")
)

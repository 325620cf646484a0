package compiler

import "errors"

// Errors that abort a compilation run.
var (
	// ErrUnknownClass is returned when the main class cannot be found.
	ErrUnknownClass = errors.New("unknown class")

	// ErrUnresolvedType is returned when a property or ancestor type cannot
	// be resolved.
	ErrUnresolvedType = errors.New("unresolved type")

	// ErrInheritanceCycle is returned when a class is its own ancestor.
	ErrInheritanceCycle = errors.New("inheritance cycle")

	// ErrNotBehavior is returned when the main class is a primitive type.
	ErrNotBehavior = errors.New("not a behavior class")
)

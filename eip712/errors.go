package eip712

import "errors"

// Errors reported while resolving type graphs and encoding values. All of
// them are terminal for the signing attempt that triggered them; callers
// can distinguish categories with errors.Is.
var (
	// ErrCyclicType is returned when a struct type references itself,
	// directly or transitively, through a non-array field.
	ErrCyclicType = errors.New("eip712: cyclic type reference")

	// ErrUnknownType is returned when a field names a type that is neither
	// a primitive nor declared in the type set.
	ErrUnknownType = errors.New("eip712: unknown type")

	// ErrEncoding is returned when a supplied value does not match the kind
	// its schema field declares, or a declared field has no value.
	ErrEncoding = errors.New("eip712: value does not match type")
)

package signature

import "errors"

// Registry errors.
var (
	// ErrDuplicateSignature is returned when two distinct origins claim one name.
	ErrDuplicateSignature = errors.New("duplicate signature")

	// ErrParentImmutable is returned when a set parent would change.
	ErrParentImmutable = errors.New("signature parent already set")
)

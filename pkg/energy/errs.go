package energy

import "errors"

var (
	// ErrUnknownProfile indicates a profile name that is neither built in nor loaded.
	ErrUnknownProfile = errors.New("energy: unknown profile")

	// ErrInvalidProfile indicates a profile failing Validate.
	ErrInvalidProfile = errors.New("energy: invalid profile")

	// ErrDuplicateProfile indicates two profiles sharing a name.
	ErrDuplicateProfile = errors.New("energy: duplicate profile")
)

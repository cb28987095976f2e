package ast

import "errors"

var (
	// ErrInvalidArgument is returned for malformed column references,
	// operator arity mismatches, and negative limits or offsets.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedRawFragment is returned when a raw fragment's placeholder
	// count does not match the values it carries.
	ErrMalformedRawFragment = errors.New("malformed raw fragment")
)

package compiler

import "errors"

var (
	// ErrUnsupportedFeature is returned when a tree requests a construct the
	// dialect cannot express. It is always reported before execution.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrUnknownDialect is returned by New for a dialect outside the closed
	// variant set.
	ErrUnknownDialect = errors.New("unknown dialect")
)

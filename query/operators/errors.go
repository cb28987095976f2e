package operators

import "errors"

var (
	// ErrUnsupportedOperator is returned when an operator symbol has no
	// registry entry at all.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrUnsupportedOperatorForDialect is returned when an operator exists
	// but has no rendering for the requested dialect.
	ErrUnsupportedOperatorForDialect = errors.New("operator not supported by dialect")
)

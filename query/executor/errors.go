package executor

import (
	"fmt"

	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// ExecutionError reports a driver or database failure. SQL carries the
// statement text as sent to the driver; it contains placeholder tokens only,
// never parameter values.
type ExecutionError struct {
	Dialect operators.Dialect
	SQL     string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed on %s: %v (sql: %s)", e.Dialect, e.Err, e.SQL)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

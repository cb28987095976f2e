package builder

import "errors"

// ErrUnresolvedAlias is returned when a join condition references a table
// alias that no earlier step of the chain declared.
var ErrUnresolvedAlias = errors.New("unresolved alias")

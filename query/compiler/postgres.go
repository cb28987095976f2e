package compiler

import (
	"fmt"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// postgresCaps renders PostgreSQL: double-quoted identifiers, numbered $n
// placeholders, LIMIT/OFFSET.
type postgresCaps struct{}

func (postgresCaps) dialect() operators.Dialect { return operators.Postgres }

func (postgresCaps) placeholder(i int) string {
	return fmt.Sprintf("$%d", i)
}

func (postgresCaps) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgresCaps) joinSupported(ast.JoinKind) bool { return true }

func (postgresCaps) appendLimitOffset(parts []string, t ast.Tree) ([]string, error) {
	if t.Limit != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *t.Limit))
	}
	if t.Offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *t.Offset))
	}
	return parts, nil
}

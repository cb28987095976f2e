package compiler

import (
	"fmt"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// sqlserverCaps renders T-SQL: bracketed identifiers, named @pn placeholders,
// TOP for a bare limit, OFFSET ... ROWS FETCH NEXT ... ROWS ONLY for
// offset-based pagination. T-SQL only accepts OFFSET after an ORDER BY.
type sqlserverCaps struct{}

func (sqlserverCaps) dialect() operators.Dialect { return operators.SQLServer }

func (sqlserverCaps) placeholder(i int) string {
	return fmt.Sprintf("@p%d", i)
}

func (sqlserverCaps) quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (sqlserverCaps) joinSupported(ast.JoinKind) bool { return true }

func (sqlserverCaps) appendLimitOffset(parts []string, t ast.Tree) ([]string, error) {
	if t.Offset == nil {
		if t.Limit != nil {
			parts[0] = strings.Replace(parts[0], "SELECT", fmt.Sprintf("SELECT TOP (%d)", *t.Limit), 1)
		}
		return parts, nil
	}
	if len(t.OrderBy) == 0 {
		return nil, fmt.Errorf("%w: OFFSET requires ORDER BY on %s", ErrUnsupportedFeature, operators.SQLServer)
	}
	parts = append(parts, fmt.Sprintf("OFFSET %d ROWS", *t.Offset))
	if t.Limit != nil {
		parts = append(parts, fmt.Sprintf("FETCH NEXT %d ROWS ONLY", *t.Limit))
	}
	return parts, nil
}

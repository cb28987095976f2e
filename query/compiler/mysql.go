package compiler

import (
	"fmt"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// mysqlCaps renders MySQL: backtick identifiers, positional ? placeholders,
// LIMIT/OFFSET with the OFFSET-requires-LIMIT quirk.
type mysqlCaps struct{}

func (mysqlCaps) dialect() operators.Dialect { return operators.MySQL }

func (mysqlCaps) placeholder(int) string { return "?" }

func (mysqlCaps) quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlCaps) joinSupported(ast.JoinKind) bool { return true }

func (mysqlCaps) appendLimitOffset(parts []string, t ast.Tree) ([]string, error) {
	if t.Limit != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *t.Limit))
	} else if t.Offset != nil {
		// MySQL cannot express OFFSET without LIMIT.
		parts = append(parts, "LIMIT 18446744073709551615")
	}
	if t.Offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *t.Offset))
	}
	return parts, nil
}

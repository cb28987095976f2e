package compiler

import (
	"fmt"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// sqliteCaps renders SQLite: double-quoted identifiers, positional ?
// placeholders, LIMIT -1 standing in for "no limit" when only OFFSET is set.
// SQLite has no RIGHT JOIN.
type sqliteCaps struct{}

func (sqliteCaps) dialect() operators.Dialect { return operators.SQLite }

func (sqliteCaps) placeholder(int) string { return "?" }

func (sqliteCaps) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqliteCaps) joinSupported(kind ast.JoinKind) bool {
	return kind != ast.JoinRight
}

func (sqliteCaps) appendLimitOffset(parts []string, t ast.Tree) ([]string, error) {
	if t.Limit != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *t.Limit))
	} else if t.Offset != nil {
		parts = append(parts, "LIMIT -1")
	}
	if t.Offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *t.Offset))
	}
	return parts, nil
}

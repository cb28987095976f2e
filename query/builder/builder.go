// Package builder provides the fluent query-building API.
//
// A Builder is a value: every call returns a new Builder and never mutates
// its receiver, so a partially built query can be shared and branched. A base
// filtered query can seed two later refinements without interference.
//
// Build-time errors stick to the chain: the first failing call records its
// error and Build returns it, identifying the call that broke the chain.
package builder

import (
	"fmt"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/ast"
)

// Builder assembles an expression tree through chained calls.
type Builder struct {
	tree ast.Tree
	err  error
}

// New starts a builder for the given table.
func New(table string) Builder {
	var b Builder
	if !ast.ValidColumn(table) {
		b.err = fmt.Errorf("%w: malformed table name %q", ast.ErrInvalidArgument, table)
	}
	b.tree.Target = ast.Target{Name: table}
	return b
}

// As aliases the base table.
func (b Builder) As(alias string) Builder {
	n := b.next()
	if b.err == nil && !ast.ValidColumn(alias) {
		n.err = fmt.Errorf("%w: malformed alias %q", ast.ErrInvalidArgument, alias)
		return n
	}
	n.tree.Target.Alias = alias
	return n
}

// Select sets the projection. Without a Select call all columns are selected.
// Later calls replace earlier ones.
func (b Builder) Select(columns ...string) Builder {
	n := b.next()
	if b.err == nil {
		for _, c := range columns {
			if !ast.ValidColumn(c) {
				n.err = fmt.Errorf("%w: malformed column reference %q", ast.ErrInvalidArgument, c)
				return n
			}
		}
	}
	n.tree.Columns = append([]string(nil), columns...)
	return n
}

// Where adds a comparison joined to the existing predicate with AND. The
// first predicate on a chain simply becomes the predicate.
func (b Builder) Where(column, operator string, values ...interface{}) Builder {
	p, err := ast.Cmp(column, operator, values...)
	return b.and(p, err)
}

// OrWhere adds a comparison joined to the existing predicate with OR, at the
// top level of the accumulated tree.
func (b Builder) OrWhere(column, operator string, values ...interface{}) Builder {
	p, err := ast.Cmp(column, operator, values...)
	return b.or(p, err)
}

// WhereNot adds a negated comparison joined with AND.
func (b Builder) WhereNot(column, operator string, values ...interface{}) Builder {
	p, err := ast.Cmp(column, operator, values...)
	return b.and(ast.NewNot(p), err)
}

// WherePred AND-joins an explicitly grouped predicate. This is the escape
// hatch when left-to-right accumulation is not the grouping you want.
func (b Builder) WherePred(p ast.Predicate) Builder {
	return b.and(p, nil)
}

// OrWherePred OR-joins an explicitly grouped predicate.
func (b Builder) OrWherePred(p ast.Predicate) Builder {
	return b.or(p, nil)
}

// RawWhere AND-joins a hand-written SQL fragment with '?' placeholders. The
// placeholder count must match the values supplied; the mismatch is reported
// from this call, not at compile time. The fragment may only reference the
// base table and aliases declared before this call; later joins are not in
// scope for raw text.
func (b Builder) RawWhere(sqlText string, values ...interface{}) Builder {
	p, err := ast.NewRaw(sqlText, values...)
	return b.and(p, err)
}

// Join appends an inner join.
func (b Builder) Join(table, alias string, on ast.Predicate) Builder {
	return b.join(table, alias, ast.JoinInner, on)
}

// LeftJoin appends a left outer join.
func (b Builder) LeftJoin(table, alias string, on ast.Predicate) Builder {
	return b.join(table, alias, ast.JoinLeft, on)
}

// RightJoin appends a right outer join.
func (b Builder) RightJoin(table, alias string, on ast.Predicate) Builder {
	return b.join(table, alias, ast.JoinRight, on)
}

// JoinKind appends a join of an explicit kind.
func (b Builder) JoinKind(table, alias string, kind ast.JoinKind, on ast.Predicate) Builder {
	return b.join(table, alias, kind, on)
}

func (b Builder) join(table, alias string, kind ast.JoinKind, on ast.Predicate) Builder {
	n := b.next()
	if b.err != nil {
		return n
	}
	if !ast.ValidColumn(table) || (alias != "" && !ast.ValidColumn(alias)) {
		n.err = fmt.Errorf("%w: malformed join target %q %q", ast.ErrInvalidArgument, table, alias)
		return n
	}
	j := ast.Join{Target: ast.Target{Name: table, Alias: alias}, On: on, Kind: kind}
	if err := b.checkAliases(j); err != nil {
		n.err = err
		return n
	}
	n.tree.Joins = append(n.tree.Joins, j)
	return n
}

// checkAliases verifies that every qualified column in the join condition
// references the base table, an earlier join, or the join being added.
func (b Builder) checkAliases(j ast.Join) error {
	declared := map[string]bool{b.tree.Target.Ref(): true, j.Target.Ref(): true}
	for _, prev := range b.tree.Joins {
		declared[prev.Target.Ref()] = true
	}
	var bad string
	walkQualifiers(j.On, func(q string) {
		if bad == "" && !declared[q] {
			bad = q
		}
	})
	if bad != "" {
		return fmt.Errorf("%w: %q in join on %q", ErrUnresolvedAlias, bad, j.Target.Name)
	}
	return nil
}

// walkQualifiers visits the table qualifier of every column reference in a
// predicate, including ast.Col comparison values. Raw fragments are opaque
// and skipped.
func walkQualifiers(p ast.Predicate, visit func(string)) {
	qualifier := func(col string) {
		if i := strings.IndexByte(col, '.'); i > 0 {
			visit(col[:i])
		}
	}
	switch n := p.(type) {
	case ast.Comparison:
		qualifier(n.Column)
		for _, v := range n.Values {
			if c, ok := v.(ast.Col); ok {
				qualifier(string(c))
			}
		}
	case ast.And:
		walkQualifiers(n.Left, visit)
		walkQualifiers(n.Right, visit)
	case ast.Or:
		walkQualifiers(n.Left, visit)
		walkQualifiers(n.Right, visit)
	case ast.Not:
		walkQualifiers(n.Child, visit)
	}
}

// OrderBy appends a sort key. Later calls add secondary keys; they never
// replace earlier ones.
func (b Builder) OrderBy(column, direction string) Builder {
	n := b.next()
	if b.err != nil {
		return n
	}
	if !ast.ValidColumn(column) {
		n.err = fmt.Errorf("%w: malformed column reference %q", ast.ErrInvalidArgument, column)
		return n
	}
	var dir ast.Direction
	switch strings.ToUpper(direction) {
	case "", "ASC":
		dir = ast.Asc
	case "DESC":
		dir = ast.Desc
	default:
		n.err = fmt.Errorf("%w: sort direction %q", ast.ErrInvalidArgument, direction)
		return n
	}
	n.tree.OrderBy = append(n.tree.OrderBy, ast.Order{Column: column, Direction: dir})
	return n
}

// Limit caps the row count. Zero is a real limit, distinct from no limit.
// The last call wins.
func (b Builder) Limit(limit int) Builder {
	n := b.next()
	if b.err == nil && limit < 0 {
		n.err = fmt.Errorf("%w: negative limit %d", ast.ErrInvalidArgument, limit)
		return n
	}
	n.tree.Limit = &limit
	return n
}

// Offset skips rows. The last call wins.
func (b Builder) Offset(offset int) Builder {
	n := b.next()
	if b.err == nil && offset < 0 {
		n.err = fmt.Errorf("%w: negative offset %d", ast.ErrInvalidArgument, offset)
		return n
	}
	n.tree.Offset = &offset
	return n
}

// Build finalizes the chain. The returned tree is independent of the builder;
// the chain can keep going afterwards without affecting it.
func (b Builder) Build() (ast.Tree, error) {
	if b.err != nil {
		return ast.Tree{}, b.err
	}
	return b.tree.Clone(), nil
}

// next copies the builder for the copy-on-write chain step.
func (b Builder) next() Builder {
	return Builder{tree: b.tree.Clone(), err: b.err}
}

func (b Builder) and(p ast.Predicate, err error) Builder {
	return b.attach(p, err, func(acc ast.Predicate) ast.Predicate {
		return ast.NewAnd(acc, p)
	})
}

func (b Builder) or(p ast.Predicate, err error) Builder {
	return b.attach(p, err, func(acc ast.Predicate) ast.Predicate {
		return ast.NewOr(acc, p)
	})
}

func (b Builder) attach(p ast.Predicate, err error, join func(ast.Predicate) ast.Predicate) Builder {
	n := b.next()
	if b.err != nil {
		return n
	}
	if err != nil {
		n.err = err
		return n
	}
	if p == nil {
		return n
	}
	if n.tree.Where == nil {
		n.tree.Where = p
		return n
	}
	n.tree.Where = join(n.tree.Where)
	return n
}

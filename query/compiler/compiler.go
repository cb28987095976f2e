// Package compiler renders expression trees into dialect-specific SQL with
// ordered bound parameters.
//
// The dialect set is closed: one compiler variant per supported engine,
// selected once at configuration time. Compilation is deterministic: the
// same tree and dialect always yield identical SQL text and parameter order,
// which is what makes plan caching and golden tests possible. Values are
// never interpolated into SQL text; every value travels through the
// parameter list.
package compiler

import (
	"fmt"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// CompiledQuery is dialect-specific SQL text plus its ordered parameters.
// It is immutable and safe to cache and share.
type CompiledQuery struct {
	SQL  string
	Args []interface{}
}

// Raw wraps a hand-written statement as a CompiledQuery, bypassing the
// builder entirely. The caller is responsible for using the dialect's
// placeholder style; binding safety is preserved because values still travel
// as parameters.
func Raw(sqlText string, values ...interface{}) *CompiledQuery {
	args := make([]interface{}, len(values))
	copy(args, values)
	return &CompiledQuery{SQL: sqlText, Args: args}
}

// Assignment is one SET column = value pair. Updates take an ordered slice so
// compilation stays deterministic.
type Assignment struct {
	Column string
	Value  interface{}
}

// Compiler compiles expression trees for one dialect.
type Compiler interface {
	Dialect() operators.Dialect
	CompileSelect(t ast.Tree) (*CompiledQuery, error)
	CompileCount(t ast.Tree) (*CompiledQuery, error)
	CompileInsert(table string, columns []string, values []interface{}) (*CompiledQuery, error)
	CompileUpdate(table string, set []Assignment, where ast.Predicate) (*CompiledQuery, error)
	CompileDelete(table string, where ast.Predicate) (*CompiledQuery, error)
}

// New returns the compiler variant for a dialect.
func New(d operators.Dialect) (Compiler, error) {
	switch d {
	case operators.Postgres:
		return &sqlCompiler{caps: postgresCaps{}}, nil
	case operators.MySQL:
		return &sqlCompiler{caps: mysqlCaps{}}, nil
	case operators.SQLite:
		return &sqlCompiler{caps: sqliteCaps{}}, nil
	case operators.SQLServer:
		return &sqlCompiler{caps: sqlserverCaps{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, d)
	}
}

// caps is the per-dialect capability set: identifier quoting, placeholder
// style, join support, and pagination syntax.
type caps interface {
	dialect() operators.Dialect
	// placeholder returns the token for the i-th bound parameter, 1-based.
	placeholder(i int) string
	quote(ident string) string
	joinSupported(kind ast.JoinKind) bool
	// appendLimitOffset renders the dialect's pagination clauses. parts[0] is
	// the SELECT clause, which SQL Server rewrites for TOP. Row counts are
	// validated non-negative integers and render as literals, keeping the
	// parameter list identical across dialects.
	appendLimitOffset(parts []string, t ast.Tree) ([]string, error)
}

// sqlCompiler implements Compiler generically over a caps variant.
type sqlCompiler struct {
	caps caps
}

func (c *sqlCompiler) Dialect() operators.Dialect { return c.caps.dialect() }

// state carries the argument list of one compilation. Each Compile call
// starts from a fresh state.
type state struct {
	caps caps
	args []interface{}
}

// bind appends a value to the parameter list and returns its placeholder.
func (s *state) bind(v interface{}) string {
	s.args = append(s.args, v)
	return s.caps.placeholder(len(s.args))
}

// column quotes a possibly qualified column reference.
func (s *state) column(ref string) string {
	segs := strings.Split(ref, ".")
	for i, seg := range segs {
		segs[i] = s.caps.quote(seg)
	}
	return strings.Join(segs, ".")
}

func (c *sqlCompiler) CompileSelect(t ast.Tree) (*CompiledQuery, error) {
	if t.Target.Name == "" {
		return nil, fmt.Errorf("%w: query has no target", ast.ErrInvalidArgument)
	}
	st := &state{caps: c.caps}
	parts := []string{"SELECT " + c.projection(st, t.Columns)}
	parts = append(parts, "FROM "+c.target(st, t.Target))

	joins, err := c.joins(st, t.Joins)
	if err != nil {
		return nil, err
	}
	parts = append(parts, joins...)

	if t.Where != nil {
		whereSQL, err := st.predicate(t.Where)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "WHERE "+whereSQL)
	}

	if len(t.OrderBy) > 0 {
		orderParts := make([]string, len(t.OrderBy))
		for i, o := range t.OrderBy {
			orderParts[i] = fmt.Sprintf("%s %s", st.column(o.Column), o.Direction)
		}
		parts = append(parts, "ORDER BY "+strings.Join(orderParts, ", "))
	}

	parts, err = c.caps.appendLimitOffset(parts, t)
	if err != nil {
		return nil, err
	}

	return &CompiledQuery{SQL: strings.Join(parts, " "), Args: st.args}, nil
}

// CompileCount renders SELECT COUNT(*) over the tree's target, joins, and
// predicate. Ordering and pagination do not affect the count and are ignored.
func (c *sqlCompiler) CompileCount(t ast.Tree) (*CompiledQuery, error) {
	if t.Target.Name == "" {
		return nil, fmt.Errorf("%w: query has no target", ast.ErrInvalidArgument)
	}
	st := &state{caps: c.caps}
	parts := []string{"SELECT COUNT(*)", "FROM " + c.target(st, t.Target)}

	joins, err := c.joins(st, t.Joins)
	if err != nil {
		return nil, err
	}
	parts = append(parts, joins...)

	if t.Where != nil {
		whereSQL, err := st.predicate(t.Where)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "WHERE "+whereSQL)
	}
	return &CompiledQuery{SQL: strings.Join(parts, " "), Args: st.args}, nil
}

func (c *sqlCompiler) CompileInsert(table string, columns []string, values []interface{}) (*CompiledQuery, error) {
	if table == "" || len(columns) == 0 {
		return nil, fmt.Errorf("%w: insert needs a table and columns", ast.ErrInvalidArgument)
	}
	if len(columns) != len(values) {
		return nil, fmt.Errorf("%w: %d columns, %d values", ast.ErrInvalidArgument, len(columns), len(values))
	}
	st := &state{caps: c.caps}
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(values))
	for i, col := range columns {
		quoted[i] = c.caps.quote(col)
	}
	for i, v := range values {
		placeholders[i] = st.bind(v)
	}
	sqlText := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.caps.quote(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if c.caps.dialect() == operators.Postgres {
		sqlText += " RETURNING *"
	}
	return &CompiledQuery{SQL: sqlText, Args: st.args}, nil
}

func (c *sqlCompiler) CompileUpdate(table string, set []Assignment, where ast.Predicate) (*CompiledQuery, error) {
	if table == "" || len(set) == 0 {
		return nil, fmt.Errorf("%w: update needs a table and assignments", ast.ErrInvalidArgument)
	}
	st := &state{caps: c.caps}
	setParts := make([]string, len(set))
	for i, a := range set {
		setParts[i] = fmt.Sprintf("%s = %s", c.caps.quote(a.Column), st.bind(a.Value))
	}
	parts := []string{
		"UPDATE " + c.caps.quote(table),
		"SET " + strings.Join(setParts, ", "),
	}
	if where != nil {
		whereSQL, err := st.predicate(where)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "WHERE "+whereSQL)
	}
	return &CompiledQuery{SQL: strings.Join(parts, " "), Args: st.args}, nil
}

func (c *sqlCompiler) CompileDelete(table string, where ast.Predicate) (*CompiledQuery, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: delete needs a table", ast.ErrInvalidArgument)
	}
	st := &state{caps: c.caps}
	parts := []string{"DELETE FROM " + c.caps.quote(table)}
	if where != nil {
		whereSQL, err := st.predicate(where)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "WHERE "+whereSQL)
	} else {
		// An unfiltered DELETE is almost always a bug.
		parts = append(parts, "WHERE 1=0")
	}
	return &CompiledQuery{SQL: strings.Join(parts, " "), Args: st.args}, nil
}

func (c *sqlCompiler) projection(st *state, columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = st.column(col)
	}
	return strings.Join(quoted, ", ")
}

func (c *sqlCompiler) target(st *state, t ast.Target) string {
	out := c.caps.quote(t.Name)
	if t.Alias != "" {
		out += " AS " + c.caps.quote(t.Alias)
	}
	return out
}

func (c *sqlCompiler) joins(st *state, joins []ast.Join) ([]string, error) {
	out := make([]string, 0, len(joins))
	for _, j := range joins {
		if !c.caps.joinSupported(j.Kind) {
			return nil, fmt.Errorf("%w: %s JOIN on %s", ErrUnsupportedFeature, j.Kind, c.caps.dialect())
		}
		clause := fmt.Sprintf("%s JOIN %s", j.Kind, c.target(st, j.Target))
		if j.On != nil {
			onSQL, err := st.predicate(j.On)
			if err != nil {
				return nil, err
			}
			clause += " ON " + onSQL
		}
		out = append(out, clause)
	}
	return out, nil
}

// Package ast defines the dialect-independent expression tree for one query.
//
// Trees are pure data: once a tree is handed to a compiler it is never
// mutated. Validation happens at construction time so authoring mistakes
// surface at the call that made them, not during compilation.
package ast

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// Predicate is one node of the boolean filter tree.
type Predicate interface {
	isPredicate()
}

// Comparison applies a registered operator to a column and bound values.
type Comparison struct {
	Column   string
	Operator string
	Values   []interface{}
}

// Raw is a hand-written SQL fragment with '?' placeholders. The fragment is
// spliced verbatim at compile time with its placeholders renumbered into the
// dialect's style; Placeholders is the declared count, checked against Values
// when the node is built.
type Raw struct {
	SQL          string
	Values       []interface{}
	Placeholders int
}

// And combines two predicates conjunctively.
type And struct {
	Left, Right Predicate
}

// Or combines two predicates disjunctively.
type Or struct {
	Left, Right Predicate
}

// Not negates a predicate.
type Not struct {
	Child Predicate
}

func (Comparison) isPredicate() {}
func (Raw) isPredicate()        {}
func (And) isPredicate()        {}
func (Or) isPredicate()         {}
func (Not) isPredicate()        {}

// identRe matches a bare or single-qualified column reference.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidColumn reports whether s is a well-formed column reference
// ("age" or "u.age").
func ValidColumn(s string) bool {
	return identRe.MatchString(s)
}

// Cmp builds a Comparison. The operator symbol is consulted against the
// registry only for arity checking here; symbols unknown to the registry are
// rejected at compile time instead.
func Cmp(column, operator string, values ...interface{}) (Comparison, error) {
	if !ValidColumn(column) {
		return Comparison{}, fmt.Errorf("%w: malformed column reference %q", ErrInvalidArgument, column)
	}
	if desc, ok := operators.Lookup(operator); ok {
		if err := desc.CheckArity(len(values)); err != nil {
			return Comparison{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}
	vs := make([]interface{}, len(values))
	copy(vs, values)
	return Comparison{Column: column, Operator: operator, Values: vs}, nil
}

// MustCmp is Cmp for statically known inputs; it panics on error.
func MustCmp(column, operator string, values ...interface{}) Comparison {
	c, err := Cmp(column, operator, values...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewRaw builds a Raw fragment, checking that the number of '?' placeholders
// in the text matches the values supplied.
func NewRaw(sqlText string, values ...interface{}) (Raw, error) {
	n := strings.Count(sqlText, "?")
	if n != len(values) {
		return Raw{}, fmt.Errorf("%w: %d placeholders, %d values", ErrMalformedRawFragment, n, len(values))
	}
	vs := make([]interface{}, len(values))
	copy(vs, values)
	return Raw{SQL: sqlText, Values: vs, Placeholders: n}, nil
}

// NewAnd folds predicates left-to-right into a conjunction. With a single
// operand it returns that operand unchanged.
func NewAnd(ps ...Predicate) Predicate {
	return fold(ps, func(l, r Predicate) Predicate { return And{Left: l, Right: r} })
}

// NewOr folds predicates left-to-right into a disjunction.
func NewOr(ps ...Predicate) Predicate {
	return fold(ps, func(l, r Predicate) Predicate { return Or{Left: l, Right: r} })
}

// NewNot negates a predicate.
func NewNot(p Predicate) Predicate {
	return Not{Child: p}
}

func fold(ps []Predicate, join func(l, r Predicate) Predicate) Predicate {
	var acc Predicate
	for _, p := range ps {
		if p == nil {
			continue
		}
		if acc == nil {
			acc = p
			continue
		}
		acc = join(acc, p)
	}
	return acc
}

// Col marks a comparison value as a column reference rather than a bound
// value. The compiler splices it as a quoted identifier and consumes no
// placeholder. Join conditions use this for column-to-column equality.
type Col string

// NewCol builds a validated column reference value.
func NewCol(name string) (Col, error) {
	if !ValidColumn(name) {
		return "", fmt.Errorf("%w: malformed column reference %q", ErrInvalidArgument, name)
	}
	return Col(name), nil
}

// JoinKind selects the join syntax.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
)

// Direction selects the sort order.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Target names the queried relation, optionally aliased.
type Target struct {
	Name  string
	Alias string
}

// Ref returns the identifier other clauses use to reference the target.
func (t Target) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Join is one join step. Join order is significant: conditions may reference
// aliases declared by earlier joins.
type Join struct {
	Target Target
	On     Predicate
	Kind   JoinKind
}

// Order is one sort key.
type Order struct {
	Column    string
	Direction Direction
}

// Tree is the intermediate representation of one SELECT-shaped query. A nil
// Where means no filtering; an empty Columns slice means all columns. Limit
// and Offset distinguish unset (nil) from zero.
type Tree struct {
	Target  Target
	Columns []string
	Where   Predicate
	Joins   []Join
	OrderBy []Order
	Limit   *int
	Offset  *int
}

// Clone returns a deep copy of the tree's mutable containers. Predicate nodes
// are treated as immutable and shared.
func (t Tree) Clone() Tree {
	out := t
	if t.Columns != nil {
		out.Columns = append([]string(nil), t.Columns...)
	}
	if t.Joins != nil {
		out.Joins = append([]Join(nil), t.Joins...)
	}
	if t.OrderBy != nil {
		out.OrderBy = append([]Order(nil), t.OrderBy...)
	}
	if t.Limit != nil {
		v := *t.Limit
		out.Limit = &v
	}
	if t.Offset != nil {
		v := *t.Offset
		out.Offset = &v
	}
	return out
}

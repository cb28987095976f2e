// Package operators maps symbolic filter operators to per-dialect SQL fragments.
//
// The registry is built once at init and never mutated afterwards, so it is
// safe for concurrent use without synchronization. Renderers are pure: they
// receive a quoted column reference and pre-generated placeholder tokens,
// never the bound values themselves.
package operators

import "fmt"

// Dialect identifies a supported database engine.
type Dialect string

const (
	Postgres  Dialect = "postgres"
	MySQL     Dialect = "mysql"
	SQLite    Dialect = "sqlite"
	SQLServer Dialect = "sqlserver"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{Postgres, MySQL, SQLite, SQLServer}

// ParseDialect maps provider names (including common aliases) to a Dialect.
func ParseDialect(provider string) (Dialect, error) {
	switch provider {
	case "postgresql", "postgres":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Arity describes how many bound values an operator consumes.
type Arity int

const (
	// ArityZero operators bind no values (IS NULL).
	ArityZero Arity = iota
	// ArityOne operators bind exactly one value.
	ArityOne
	// ArityPair operators bind exactly two values (BETWEEN).
	ArityPair
	// ArityVariadic operators bind one or more values (IN).
	ArityVariadic
)

// Renderer emits the SQL fragment for one comparison. placeholders carries one
// dialect-style token per bound value, in binding order.
type Renderer func(column string, placeholders []string) string

// Descriptor describes a registered operator.
type Descriptor struct {
	Symbol string
	Arity  Arity

	// bind rewrites bound values before binding (LIKE pattern wrapping and
	// the like). It must never produce SQL text.
	bind func(values []interface{}) []interface{}

	// render holds the per-dialect fragment renderers. A dialect with no
	// entry cannot express this operator.
	render map[Dialect]Renderer
}

// BindValues applies the operator's value rewrite, if any. The input slice is
// not modified.
func (d *Descriptor) BindValues(values []interface{}) []interface{} {
	if d.bind == nil {
		return values
	}
	return d.bind(values)
}

// CheckArity reports whether n values satisfy the operator's arity.
func (d *Descriptor) CheckArity(n int) error {
	switch d.Arity {
	case ArityZero:
		if n != 0 {
			return fmt.Errorf("operator %q takes no values, got %d", d.Symbol, n)
		}
	case ArityOne:
		if n != 1 {
			return fmt.Errorf("operator %q takes exactly one value, got %d", d.Symbol, n)
		}
	case ArityPair:
		if n != 2 {
			return fmt.Errorf("operator %q takes exactly two values, got %d", d.Symbol, n)
		}
	case ArityVariadic:
		if n < 1 {
			return fmt.Errorf("operator %q takes at least one value, got %d", d.Symbol, n)
		}
	}
	return nil
}

// comparison builds a renderer for a plain binary comparison.
func comparison(op string) Renderer {
	return func(column string, p []string) string {
		return fmt.Sprintf("%s %s %s", column, op, p[0])
	}
}

// fragment builds a renderer that ignores placeholders (zero-arity operators).
func fragment(format string) Renderer {
	return func(column string, _ []string) string {
		return fmt.Sprintf(format, column)
	}
}

// forAll registers the same renderer for every dialect.
func forAll(r Renderer) map[Dialect]Renderer {
	m := make(map[Dialect]Renderer, len(Dialects))
	for _, d := range Dialects {
		m[d] = r
	}
	return m
}

// except registers a renderer for every dialect but the listed ones.
func except(r Renderer, skip ...Dialect) map[Dialect]Renderer {
	m := forAll(r)
	for _, d := range skip {
		delete(m, d)
	}
	return m
}

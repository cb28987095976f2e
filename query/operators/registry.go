package operators

import (
	"fmt"
	"strings"
)

// registry is the process-wide operator table. It is populated below and
// read-only from then on.
var registry = map[string]*Descriptor{}

// aliases maps alternate symbols onto canonical ones.
var aliases = map[string]string{
	"exact": "eq",
	"range": "between",
}

func register(d *Descriptor) {
	if _, dup := registry[d.Symbol]; dup {
		panic(fmt.Sprintf("operators: duplicate symbol %q", d.Symbol))
	}
	registry[d.Symbol] = d
}

// Resolved pairs a descriptor with the renderer chosen for one dialect.
type Resolved struct {
	*Descriptor
	Render Renderer
}

// Resolve finds the renderer for an operator symbol under the given dialect.
// It fails with ErrUnsupportedOperator for unknown symbols and with
// ErrUnsupportedOperatorForDialect when the symbol exists but has no rendering
// for the dialect.
func Resolve(symbol string, dialect Dialect) (Resolved, error) {
	desc, ok := Lookup(symbol)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %q", ErrUnsupportedOperator, symbol)
	}
	render, ok := desc.render[dialect]
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %q on %s", ErrUnsupportedOperatorForDialect, symbol, dialect)
	}
	return Resolved{Descriptor: desc, Render: render}, nil
}

// Lookup finds an operator descriptor by symbol, resolving aliases.
func Lookup(symbol string) (*Descriptor, bool) {
	if canonical, ok := aliases[symbol]; ok {
		symbol = canonical
	}
	d, ok := registry[symbol]
	return d, ok
}

// Symbols returns the canonical operator symbols, unordered.
func Symbols() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	return out
}

func listRenderer(op string) Renderer {
	return func(column string, p []string) string {
		return fmt.Sprintf("%s %s (%s)", column, op, strings.Join(p, ", "))
	}
}

func betweenRenderer(negate bool) Renderer {
	return func(column string, p []string) string {
		if negate {
			return fmt.Sprintf("%s NOT BETWEEN %s AND %s", column, p[0], p[1])
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", column, p[0], p[1])
	}
}

func loweredLike(column string, p []string) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", column, p[0])
}

// datePart builds per-dialect renderers for extracting one date component and
// comparing it for equality.
func datePart(part string) map[Dialect]Renderer {
	extract := func(column string, p []string) string {
		return fmt.Sprintf("EXTRACT(%s FROM %s) = %s", strings.ToUpper(part), column, p[0])
	}
	var strftimeCode string
	switch part {
	case "year":
		strftimeCode = "%Y"
	case "month":
		strftimeCode = "%m"
	case "day":
		strftimeCode = "%d"
	}
	return map[Dialect]Renderer{
		Postgres: extract,
		MySQL:    extract,
		SQLite: func(column string, p []string) string {
			return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER) = %s", strftimeCode, column, p[0])
		},
		SQLServer: func(column string, p []string) string {
			return fmt.Sprintf("DATEPART(%s, %s) = %s", part, column, p[0])
		},
	}
}

// bindPattern wraps each bound value into a LIKE pattern.
func bindPattern(format string) func([]interface{}) []interface{} {
	return func(values []interface{}) []interface{} {
		out := make([]interface{}, len(values))
		for i, v := range values {
			out[i] = fmt.Sprintf(format, v)
		}
		return out
	}
}

func init() {
	register(&Descriptor{Symbol: "eq", Arity: ArityOne, render: forAll(comparison("="))})
	register(&Descriptor{Symbol: "ne", Arity: ArityOne, render: forAll(comparison("!="))})
	register(&Descriptor{Symbol: "gt", Arity: ArityOne, render: forAll(comparison(">"))})
	register(&Descriptor{Symbol: "gte", Arity: ArityOne, render: forAll(comparison(">="))})
	register(&Descriptor{Symbol: "lt", Arity: ArityOne, render: forAll(comparison("<"))})
	register(&Descriptor{Symbol: "lte", Arity: ArityOne, render: forAll(comparison("<="))})

	register(&Descriptor{Symbol: "in", Arity: ArityVariadic, render: forAll(listRenderer("IN"))})
	register(&Descriptor{Symbol: "not_in", Arity: ArityVariadic, render: forAll(listRenderer("NOT IN"))})

	register(&Descriptor{Symbol: "like", Arity: ArityOne, render: forAll(comparison("LIKE"))})
	register(&Descriptor{Symbol: "ilike", Arity: ArityOne, render: caseInsensitive()})
	register(&Descriptor{
		Symbol: "contains", Arity: ArityOne,
		bind:   bindPattern("%%%v%%"),
		render: forAll(comparison("LIKE")),
	})
	register(&Descriptor{
		Symbol: "icontains", Arity: ArityOne,
		bind:   bindPattern("%%%v%%"),
		render: caseInsensitive(),
	})
	register(&Descriptor{
		Symbol: "startswith", Arity: ArityOne,
		bind:   bindPattern("%v%%"),
		render: forAll(comparison("LIKE")),
	})
	register(&Descriptor{
		Symbol: "istartswith", Arity: ArityOne,
		bind:   bindPattern("%v%%"),
		render: caseInsensitive(),
	})
	register(&Descriptor{
		Symbol: "endswith", Arity: ArityOne,
		bind:   bindPattern("%%%v"),
		render: forAll(comparison("LIKE")),
	})
	register(&Descriptor{
		Symbol: "iendswith", Arity: ArityOne,
		bind:   bindPattern("%%%v"),
		render: caseInsensitive(),
	})

	register(&Descriptor{Symbol: "between", Arity: ArityPair, render: forAll(betweenRenderer(false))})
	register(&Descriptor{Symbol: "not_between", Arity: ArityPair, render: forAll(betweenRenderer(true))})

	register(&Descriptor{Symbol: "isnull", Arity: ArityZero, render: forAll(fragment("%s IS NULL"))})
	register(&Descriptor{Symbol: "isnotnull", Arity: ArityZero, render: forAll(fragment("%s IS NOT NULL"))})

	register(&Descriptor{Symbol: "year", Arity: ArityOne, render: datePart("year")})
	register(&Descriptor{Symbol: "month", Arity: ArityOne, render: datePart("month")})
	register(&Descriptor{Symbol: "day", Arity: ArityOne, render: datePart("day")})

	// Regular expression matching has no portable rendering: SQLite ships
	// without a REGEXP implementation and T-SQL has none at all.
	register(&Descriptor{Symbol: "regexp", Arity: ArityOne, render: map[Dialect]Renderer{
		Postgres: comparison("~"),
		MySQL:    comparison("REGEXP"),
	}})
}

// caseInsensitive renders a native ILIKE on Postgres and a lowered LIKE
// everywhere else.
func caseInsensitive() map[Dialect]Renderer {
	m := except(Renderer(loweredLike), Postgres)
	m[Postgres] = comparison("ILIKE")
	return m
}

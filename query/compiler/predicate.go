package compiler

import (
	"fmt"
	"strings"

	"github.com/SiddhanthNB/simple-orm/query/ast"
	"github.com/SiddhanthNB/simple-orm/query/operators"
)

func (s *state) resolve(symbol string) (operators.Resolved, error) {
	return operators.Resolve(symbol, s.caps.dialect())
}

// predicate renders one node of the boolean tree by recursive descent.
// Operator nodes delegate to the registry for this dialect; raw fragments are
// spliced with their placeholders renumbered into the dialect's style.
func (s *state) predicate(p ast.Predicate) (string, error) {
	switch n := p.(type) {
	case ast.Comparison:
		return s.comparison(n)
	case ast.Raw:
		return s.rawFragment(n)
	case ast.And:
		return s.binary("AND", n.Left, n.Right)
	case ast.Or:
		return s.binary("OR", n.Left, n.Right)
	case ast.Not:
		child, err := s.predicate(n.Child)
		if err != nil {
			return "", err
		}
		return "NOT (" + child + ")", nil
	case nil:
		return "", fmt.Errorf("%w: nil predicate", ast.ErrInvalidArgument)
	default:
		return "", fmt.Errorf("%w: predicate %T", ErrUnsupportedFeature, p)
	}
}

func (s *state) binary(op string, left, right ast.Predicate) (string, error) {
	l, err := s.predicate(left)
	if err != nil {
		return "", err
	}
	r, err := s.predicate(right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", l, op, r), nil
}

func (s *state) comparison(n ast.Comparison) (string, error) {
	op, err := s.resolve(n.Operator)
	if err != nil {
		return "", err
	}
	// Trees built outside the fluent API reach the compiler unvalidated.
	if err := op.CheckArity(len(n.Values)); err != nil {
		return "", fmt.Errorf("%w: %v", ast.ErrInvalidArgument, err)
	}

	bound := op.BindValues(n.Values)
	tokens := make([]string, len(n.Values))
	for i, v := range n.Values {
		// Column references splice as identifiers, not parameters.
		if col, ok := v.(ast.Col); ok {
			tokens[i] = s.column(string(col))
			continue
		}
		tokens[i] = s.bind(bound[i])
	}
	return op.Render(s.column(n.Column), tokens), nil
}

// rawFragment splices hand-written SQL, replacing each '?' with the dialect's
// next placeholder and consuming the declared values in encounter order.
func (s *state) rawFragment(n ast.Raw) (string, error) {
	if n.Placeholders != len(n.Values) || strings.Count(n.SQL, "?") != n.Placeholders {
		return "", fmt.Errorf("%w: %d placeholders declared, %d values", ast.ErrMalformedRawFragment, n.Placeholders, len(n.Values))
	}
	var out strings.Builder
	next := 0
	for _, r := range n.SQL {
		if r != '?' {
			out.WriteRune(r)
			continue
		}
		out.WriteString(s.bind(n.Values[next]))
		next++
	}
	return "(" + out.String() + ")", nil
}

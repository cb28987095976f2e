package ast

import (
	"fmt"
	"io"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a stable 64-bit structural hash of the tree, suitable as a
// plan-cache key together with the dialect. Equal trees hash identically
// across processes.
func (t Tree) Hash() uint64 {
	h := xxhash.New()
	writeTree(h, t)
	return h.Sum64()
}

// Equal reports structural equality of two trees, including bound values.
func (t Tree) Equal(o Tree) bool {
	return reflect.DeepEqual(t, o)
}

func writeTree(w io.Writer, t Tree) {
	fmt.Fprintf(w, "T|%s|%s|", t.Target.Name, t.Target.Alias)
	fmt.Fprintf(w, "C%d|", len(t.Columns))
	for _, c := range t.Columns {
		fmt.Fprintf(w, "%s|", c)
	}
	writePredicate(w, t.Where)
	fmt.Fprintf(w, "J%d|", len(t.Joins))
	for _, j := range t.Joins {
		fmt.Fprintf(w, "%s|%s|%s|", j.Kind, j.Target.Name, j.Target.Alias)
		writePredicate(w, j.On)
	}
	fmt.Fprintf(w, "O%d|", len(t.OrderBy))
	for _, o := range t.OrderBy {
		fmt.Fprintf(w, "%s %s|", o.Column, o.Direction)
	}
	writeOptInt(w, "L", t.Limit)
	writeOptInt(w, "F", t.Offset)
}

func writeOptInt(w io.Writer, tag string, v *int) {
	if v == nil {
		fmt.Fprintf(w, "%s-|", tag)
		return
	}
	fmt.Fprintf(w, "%s%d|", tag, *v)
}

func writePredicate(w io.Writer, p Predicate) {
	switch n := p.(type) {
	case nil:
		fmt.Fprint(w, "_|")
	case Comparison:
		fmt.Fprintf(w, "cmp|%s|%s|", n.Column, n.Operator)
		writeValues(w, n.Values)
	case Raw:
		fmt.Fprintf(w, "raw|%s|%d|", n.SQL, n.Placeholders)
		writeValues(w, n.Values)
	case And:
		fmt.Fprint(w, "and(")
		writePredicate(w, n.Left)
		writePredicate(w, n.Right)
		fmt.Fprint(w, ")")
	case Or:
		fmt.Fprint(w, "or(")
		writePredicate(w, n.Left)
		writePredicate(w, n.Right)
		fmt.Fprint(w, ")")
	case Not:
		fmt.Fprint(w, "not(")
		writePredicate(w, n.Child)
		fmt.Fprint(w, ")")
	default:
		fmt.Fprintf(w, "?%T|", p)
	}
}

// writeValues encodes bound values with their dynamic type so 1 and "1" hash
// differently.
func writeValues(w io.Writer, vs []interface{}) {
	fmt.Fprintf(w, "v%d|", len(vs))
	for _, v := range vs {
		fmt.Fprintf(w, "%T:%v|", v, v)
	}
}

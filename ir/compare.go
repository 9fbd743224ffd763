package ir

import (
	"cmp"
	"strings"
)

// typeOrder places null first and objects last.  Undefined sorts
// before all of them.
var typeOrder = [...]int{
	NullType:   0,
	BoolType:   1,
	NumberType: 2,
	StringType: 3,
	ArrayType:  4,
	ObjectType: 5,
}

func orderOf(t Type) int {
	if t < 0 || int(t) >= len(typeOrder) {
		return len(typeOrder)
	}
	return typeOrder[t]
}

// Compare orders two values, returning -1, 0 or +1.  Values of
// different types order by typeOrder.  Arrays and objects compare
// entry by entry and then by length; object keys take part in the
// order, so {a: 1, b: 2} and {b: 2, a: 1} differ.
func Compare(a, b *Node) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c := cmp.Compare(orderOf(a.Type), orderOf(b.Type)); c != 0 {
		return c
	}
	switch a.Type {
	case BoolType:
		return compareBool(a.Bool, b.Bool)
	case NumberType:
		return compareNumbers(a, b)
	case StringType:
		return strings.Compare(a.String, b.String)
	case ArrayType:
		return compareSeq(a, b, false)
	case ObjectType:
		return compareSeq(a, b, true)
	}
	return 0
}

// Equal reports whether a and b hold the same value.
func Equal(a, b *Node) bool {
	return Compare(a, b) == 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	}
	return 1
}

// compareNumbers compares ints exactly, mixes of int and float as
// floats, and falls back to the literal text for anything else.  Text
// literals sort after parsed numbers.
func compareNumbers(a, b *Node) int {
	if a.Int64 != nil && b.Int64 != nil {
		return cmp.Compare(*a.Int64, *b.Int64)
	}
	fa, aok := a.float()
	fb, bok := b.float()
	switch {
	case aok && bok:
		return cmp.Compare(fa, fb)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a.Number, b.Number)
}

func (n *Node) float() (float64, bool) {
	switch {
	case n.Int64 != nil:
		return float64(*n.Int64), true
	case n.Float64 != nil:
		return *n.Float64, true
	}
	return 0, false
}

func compareSeq(a, b *Node, keyed bool) int {
	n := min(len(a.Values), len(b.Values))
	for i := range n {
		if keyed {
			if c := strings.Compare(a.Fields[i], b.Fields[i]); c != 0 {
				return c
			}
		}
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Values), len(b.Values))
}

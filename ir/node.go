package ir

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Node is a JSON-like value. Objects keep their keys in insertion order
// in Fields, parallel to Values. A nil *Node is an undefined value.
type Node struct {
	Type   Type
	Fields []string
	Values []*Node

	String  string
	Bool    bool
	Number  string
	Float64 *float64
	Int64   *int64
}

// IsContainer reports whether y is a non-nil object or array.
func (y *Node) IsContainer() bool {
	return y != nil && !y.Type.IsLeaf()
}

func (y *Node) Clone() *Node {
	if y == nil {
		return nil
	}
	res := &Node{}
	return y.CloneTo(res)
}

func (y *Node) CloneTo(dst *Node) *Node {
	dst.Type = y.Type
	if y.Fields != nil {
		dst.Fields = slices.Clone(y.Fields)
	}
	if y.Values != nil {
		dst.Values = make([]*Node, len(y.Values))
		for i, yv := range y.Values {
			dst.Values[i] = yv.Clone()
		}
	}
	dst.String = y.String
	dst.Number = y.Number
	if y.Float64 != nil {
		f := *y.Float64
		dst.Float64 = &f
	}
	if y.Int64 != nil {
		i := *y.Int64
		dst.Int64 = &i
	}
	dst.Bool = y.Bool
	return dst
}

// ShallowClone copies y's own key and value slices but shares the
// children.
func (y *Node) ShallowClone() *Node {
	if y == nil {
		return nil
	}
	res := *y
	res.Fields = slices.Clone(y.Fields)
	res.Values = slices.Clone(y.Values)
	return &res
}

func FromString(v string) *Node {
	return &Node{Type: StringType, String: v}
}

func FromInt(v int64) *Node {
	return &Node{
		Type:  NumberType,
		Int64: &v,
	}
}

func FromFloat(f float64) *Node {
	return &Node{
		Type:    NumberType,
		Float64: &f,
	}
}

func FromBool(v bool) *Node {
	return &Node{
		Type: BoolType,
		Bool: v,
	}
}

func Null() *Node {
	return &Node{Type: NullType}
}

// FromMap creates an object with the keys of yMap in sorted order.
func FromMap(yMap map[string]*Node) *Node {
	res := &Node{Type: ObjectType}
	keys := slices.Sorted(maps.Keys(yMap))
	res.Fields = make([]string, len(keys))
	res.Values = make([]*Node, len(keys))
	for i, key := range keys {
		res.Fields[i] = key
		res.Values[i] = yMap[key]
	}
	return res
}

type KeyVal struct {
	Key string
	Val *Node
}

// FromKeyVals creates an object preserving the order of kvs.
func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{
		Type:   ObjectType,
		Fields: make([]string, len(kvs)),
		Values: make([]*Node, len(kvs)),
	}
	for i := range kvs {
		res.Fields[i] = kvs[i].Key
		res.Values[i] = kvs[i].Val
	}
	return res
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{
		Type:   ArrayType,
		Values: make([]*Node, len(ySlice)),
	}
	copy(res.Values, ySlice)
	return res
}

func ToMap(node *Node) map[string]*Node {
	if node == nil || node.Type != ObjectType {
		return nil
	}
	res := make(map[string]*Node, len(node.Fields))
	for i, f := range node.Fields {
		res[f] = node.Values[i]
	}
	return res
}

func Get(y *Node, field string) *Node {
	i := y.IndexOfField(field)
	if i < 0 {
		return nil
	}
	return y.Values[i]
}

func (y *Node) IndexOfField(field string) int {
	if y == nil || y.Type != ObjectType {
		return -1
	}
	return slices.Index(y.Fields, field)
}

// ParseIndex parses a canonical base 10 array index.
func ParseIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}

// Child returns the value under key and whether key is present.  For
// arrays key is a base 10 index.
func (y *Node) Child(key string) (*Node, bool) {
	if y == nil {
		return nil, false
	}
	switch y.Type {
	case ObjectType:
		i := y.IndexOfField(key)
		if i < 0 {
			return nil, false
		}
		return y.Values[i], true
	case ArrayType:
		i, ok := ParseIndex(key)
		if !ok || i >= len(y.Values) {
			return nil, false
		}
		return y.Values[i], true
	default:
		return nil, false
	}
}

// Keys returns the keys of an object in order, or the indices of an
// array.
func (y *Node) Keys() []string {
	if y == nil {
		return nil
	}
	switch y.Type {
	case ObjectType:
		return slices.Clone(y.Fields)
	case ArrayType:
		res := make([]string, len(y.Values))
		for i := range y.Values {
			res[i] = strconv.Itoa(i)
		}
		return res
	default:
		return nil
	}
}

// CheckPut reports whether Put(key, ...) would succeed.
func (y *Node) CheckPut(key string) error {
	if !y.IsContainer() {
		return ErrNotContainer
	}
	if y.Type == ArrayType {
		i, ok := ParseIndex(key)
		if !ok || i > len(y.Values) {
			return fmt.Errorf("%w %q (len %d)", ErrIndex, key, len(y.Values))
		}
	}
	return nil
}

// Put stores v under key. A new object key is appended; an array index
// equal to the length appends.
func (y *Node) Put(key string, v *Node) error {
	if err := y.CheckPut(key); err != nil {
		return err
	}
	if y.Type == ArrayType {
		i, _ := ParseIndex(key)
		if i == len(y.Values) {
			y.Values = append(y.Values, v)
			return nil
		}
		y.Values[i] = v
		return nil
	}
	if i := y.IndexOfField(key); i >= 0 {
		y.Values[i] = v
		return nil
	}
	y.Fields = append(y.Fields, key)
	y.Values = append(y.Values, v)
	return nil
}

// Remove removes key, shifting later array elements down.
func (y *Node) Remove(key string) (*Node, bool) {
	if y == nil {
		return nil, false
	}
	switch y.Type {
	case ObjectType:
		i := y.IndexOfField(key)
		if i < 0 {
			return nil, false
		}
		v := y.Values[i]
		y.Fields = slices.Delete(y.Fields, i, i+1)
		y.Values = slices.Delete(y.Values, i, i+1)
		return v, true
	case ArrayType:
		i, ok := ParseIndex(key)
		if !ok || i >= len(y.Values) {
			return nil, false
		}
		v := y.Values[i]
		y.Values = slices.Delete(y.Values, i, i+1)
		return v, true
	}
	return nil, false
}

// Visit walks y depth first.  Undefined children are skipped.
func (y *Node) Visit(f func(y *Node, isPost bool) (bool, error)) error {
	dive, err := f(y, false)
	if err != nil {
		return err
	}
	if dive {
		for _, yy := range y.Values {
			if yy == nil {
				continue
			}
			if err := yy.Visit(f); err != nil {
				return err
			}
		}
	}
	if _, err := f(y, true); err != nil {
		return err
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
)

var ErrScript = errors.New("bad script")

// opKinds are the operations a script entry may name, mapped to the
// path of the location they act on.
var opKinds = []string{"set", "assign", "delete", "push", "splice"}

// op is one script entry, such as
//
//	- splice: items
//	  start: 1
//	  deleteCount: 1
//	  values: [x, y]
type op struct {
	Kind        string
	Path        string
	Value       *ir.Node
	Values      []*ir.Node
	Start       int
	DeleteCount int
}

func (o *op) String() string {
	return o.Kind + " " + o.Path
}

func parseOps(script *ir.Node) ([]*op, error) {
	if script == nil || script.Type != ir.ArrayType {
		return nil, fmt.Errorf("%w: expected a list of operations", ErrScript)
	}
	res := make([]*op, 0, len(script.Values))
	for i, entry := range script.Values {
		o, err := parseOp(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		res = append(res, o)
	}
	return res, nil
}

func parseOp(entry *ir.Node) (*op, error) {
	if entry == nil || entry.Type != ir.ObjectType {
		return nil, fmt.Errorf("%w: expected an object", ErrScript)
	}
	o := &op{DeleteCount: math.MaxInt}
	for _, k := range opKinds {
		p := ir.Get(entry, k)
		if p == nil {
			continue
		}
		if o.Kind != "" {
			return nil, fmt.Errorf("%w: both %s and %s", ErrScript, o.Kind, k)
		}
		if p.Type != ir.StringType {
			return nil, fmt.Errorf("%w: %s path must be a string", ErrScript, k)
		}
		o.Kind, o.Path = k, p.String
	}
	if o.Kind == "" {
		return nil, fmt.Errorf("%w: no operation in %v", ErrScript, entry.Fields)
	}
	value := entry.IndexOfField("value")
	switch o.Kind {
	case "set", "assign":
		if value < 0 {
			return nil, fmt.Errorf("%w: %s needs a value", ErrScript, o.Kind)
		}
		o.Value = entry.Values[value]
	case "push", "splice":
		vs := ir.Get(entry, "values")
		switch {
		case vs == nil:
		case vs.Type == ir.ArrayType:
			o.Values = vs.Values
		default:
			return nil, fmt.Errorf("%w: values must be a list", ErrScript)
		}
	}
	if o.Kind != "splice" {
		return o, nil
	}
	var err error
	if o.Start, err = intField(entry, "start", 0); err != nil {
		return nil, err
	}
	if o.DeleteCount, err = intField(entry, "deleteCount", o.DeleteCount); err != nil {
		return nil, err
	}
	return o, nil
}

func intField(entry *ir.Node, key string, def int) (int, error) {
	v := ir.Get(entry, key)
	if v == nil {
		return def, nil
	}
	if v.Type != ir.NumberType || v.Int64 == nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrScript, key)
	}
	return int(*v.Int64), nil
}

// apply runs o on tree.
func (o *op) apply(tree *observe.Tree) error {
	n, err := tree.NodeAtKPath(o.Path)
	if err != nil {
		return err
	}
	a := tree.At(n)
	switch o.Kind {
	case "set":
		return a.Set(o.Value)
	case "assign":
		return a.Assign(o.Value)
	case "delete":
		return a.Delete()
	case "push":
		return a.Push(o.Values...)
	case "splice":
		_, err := a.Splice(o.Start, o.DeleteCount, o.Values...)
		return err
	}
	panic(o.Kind)
}

// Package patch applies JSON Patch (RFC 6902) and JSON Merge Patch
// (RFC 7386) documents to observable trees.
//
// Patches are applied to a JSON snapshot and the result is written
// back key by key, so only the locations that actually changed are
// mutated and notified.  Arrays are updated in place.
package patch

import (
	"errors"
	"fmt"
	"strconv"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
)

var ErrRootType = errors.New("patch changes the type of the root")

// ApplyJSONPatch applies an RFC 6902 patch to the value at n.  Paths in
// the patch are relative to n.
func ApplyJSONPatch(tree *observe.Tree, n *observe.PathNode, doc []byte) error {
	p, err := jsonpatch.DecodePatch(doc)
	if err != nil {
		return fmt.Errorf("decode json patch: %w", err)
	}
	return apply(tree, n, p.Apply)
}

// ApplyMergePatch applies an RFC 7386 merge patch to the value at n.
func ApplyMergePatch(tree *observe.Tree, n *observe.PathNode, doc []byte) error {
	return apply(tree, n, func(d []byte) ([]byte, error) {
		return jsonpatch.MergePatch(d, doc)
	})
}

func apply(tree *observe.Tree, n *observe.PathNode, f func([]byte) ([]byte, error)) error {
	from := tree.Value(n)
	d, err := from.MarshalJSON()
	if err != nil {
		return err
	}
	res, err := f(d)
	if err != nil {
		return fmt.Errorf("apply patch at %q: %w", n.KPath(), err)
	}
	to, err := codec.Decode(res, codec.JSONFormat)
	if err != nil {
		return err
	}
	return Reconcile(tree, n, to)
}

// Diff returns the merge patch taking from to to.
func Diff(from, to *ir.Node) (*ir.Node, error) {
	a, err := from.MarshalJSON()
	if err != nil {
		return nil, err
	}
	b, err := to.MarshalJSON()
	if err != nil {
		return nil, err
	}
	d, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return nil, err
	}
	return codec.Decode(d, codec.JSONFormat)
}

// Reconcile makes the value at n equal to to with the fewest writes it
// can find: objects and arrays of the same type are updated key by key
// and anything else is replaced.
func Reconcile(tree *observe.Tree, n *observe.PathNode, to *ir.Node) error {
	from := tree.Value(n)
	if from == nil && to == nil {
		return nil
	}
	if from != nil && to != nil && ir.Equal(from, to) {
		return nil
	}
	switch {
	case from.IsContainer() && to.IsContainer() && from.Type == to.Type:
		if from.Type == ir.ObjectType {
			return reconcileObject(tree, n, from, to)
		}
		return reconcileArray(tree, n, from, to)
	case n.IsRoot():
		return fmt.Errorf("%w: %s to %s", ErrRootType, from.Type, to.Type)
	case to == nil:
		return tree.At(n).Delete()
	default:
		return tree.WriteValue(n, to)
	}
}

func reconcileObject(tree *observe.Tree, n *observe.PathNode, from, to *ir.Node) error {
	var gone []string
	for _, k := range from.Fields {
		if to.IndexOfField(k) < 0 {
			gone = append(gone, k)
		}
	}
	a := tree.At(n)
	for _, k := range gone {
		if err := a.DeleteKey(k); err != nil {
			return err
		}
	}
	for i, k := range to.Fields {
		if _, ok := from.Child(k); !ok {
			if err := tree.Write(n, k, to.Values[i]); err != nil {
				return err
			}
			continue
		}
		if err := Reconcile(tree, tree.GetNode(n.Path(), k), to.Values[i]); err != nil {
			return err
		}
	}
	return nil
}

func reconcileArray(tree *observe.Tree, n *observe.PathNode, from, to *ir.Node) error {
	a := tree.At(n)
	common := min(len(from.Values), len(to.Values))
	if len(from.Values) > common {
		if _, err := a.Splice(common, len(from.Values)-common); err != nil {
			return err
		}
	}
	for i := range common {
		if err := Reconcile(tree, tree.GetNode(n.Path(), strconv.Itoa(i)), to.Values[i]); err != nil {
			return err
		}
	}
	if len(to.Values) > common {
		return a.Push(to.Values[common:]...)
	}
	return nil
}

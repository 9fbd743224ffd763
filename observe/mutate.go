package observe

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/signadot/tony-observe/debug"
	"github.com/signadot/tony-observe/ir"
)

func (t *Tree) enter() error {
	if t.maxDepth > 0 && t.depth >= t.maxDepth {
		return fmt.Errorf("%w (max %d)", ErrDepth, t.maxDepth)
	}
	t.depth++
	return nil
}

func (t *Tree) exit() {
	t.depth--
}

func checkKey(key string) error {
	if strings.Contains(key, Delim) {
		return fmt.Errorf("%w: %q contains the path delimiter", ErrBadKey, key)
	}
	return nil
}

// checkSet verifies that v can be stored under key in the value at n.
func (t *Tree) checkSet(n *PathNode, parentValue *ir.Node, key string, v *ir.Node) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := parentValue.CheckPut(key); err != nil {
		if errors.Is(err, ir.ErrNotContainer) {
			return fmt.Errorf("%w: %s at %q", ErrNotContainer, typeName(parentValue), n.KPath())
		}
		return fmt.Errorf("%w at %q", err, n.KPath())
	}
	return checkValue(v, t.ancestors(n)...)
}

// ancestors returns the values from the root down to n.
func (t *Tree) ancestors(n *PathNode) []*ir.Node {
	res := make([]*ir.Node, 0, len(n.keys)+1)
	x := t.value
	res = append(res, x)
	for _, k := range n.keys {
		x, _ = x.Child(k)
		if x == nil {
			break
		}
		res = append(res, x)
	}
	return res
}

// set stores v under key in the value at n, rebuilding bindings and
// notifying listeners.
func (t *Tree) set(n *PathNode, key string, v *ir.Node) error {
	parentValue := t.Value(n)
	if err := t.checkSet(n, parentValue, key, v); err != nil {
		return err
	}
	if err := t.enter(); err != nil {
		return err
	}
	defer t.exit()
	t.commit(n, parentValue, key, v)
	return nil
}

func (t *Tree) commit(n *PathNode, parentValue *ir.Node, key string, v *ir.Node) {
	prev, _ := parentValue.Child(key)
	if debug.Mutate() {
		debug.Logf("set %q key %q prev=%s value=%s\n", n.KPath(), key, debug.JSON{prev}, debug.JSON{v})
	}
	path := JoinPath(n.path, key)
	if prev.IsContainer() {
		t.cleanup(path, prev)
	}
	if err := parentValue.Put(key, v); err != nil {
		panic(fmt.Sprintf("put after check: %v", err))
	}
	child := t.child(n, key)
	if v.IsContainer() {
		t.build(child, v, prev)
	} else if prev.IsContainer() {
		t.vanishBelow(path, prev)
	}
	t.notify(child, v, prev)
}

// setValue replaces the value at n.  At the root, where there is no
// slot to replace, it assigns instead.
func (t *Tree) setValue(n *PathNode, v *ir.Node) error {
	if n.IsRoot() {
		return t.assign(n, v)
	}
	return t.set(t.ParentNode(n), n.key, v)
}

// assign sets every key of partial on the value at n, in order.
func (t *Tree) assign(n *PathNode, partial *ir.Node) error {
	if !partial.IsContainer() {
		return fmt.Errorf("%w: cannot assign %s", ErrPrimitive, typeName(partial))
	}
	target := t.Value(n)
	if !target.IsContainer() {
		return fmt.Errorf("%w: %s at %q", ErrNotContainer, typeName(target), n.KPath())
	}
	keys := partial.Keys()
	size := len(target.Values)
	for _, k := range keys {
		if err := checkKey(k); err != nil {
			return err
		}
		if target.Type != ir.ArrayType {
			continue
		}
		i, ok := ir.ParseIndex(k)
		if !ok || i > size {
			return fmt.Errorf("%w %q at %q", ErrIndex, k, n.KPath())
		}
		if i == size {
			size++
		}
	}
	ancestors := t.ancestors(n)
	for _, v := range partial.Values {
		if err := checkValue(v, ancestors...); err != nil {
			return err
		}
	}
	if t.maxDepth > 0 && t.depth >= t.maxDepth {
		return fmt.Errorf("%w (max %d)", ErrDepth, t.maxDepth)
	}
	values := slices.Clone(partial.Values)
	for i, k := range keys {
		if err := t.set(n, k, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// deleteKey notifies the removal of key as a set to undefined and then
// removes the key.  Array elements are spliced out so that later
// elements shift down.
func (t *Tree) deleteKey(n *PathNode, key string) error {
	target := t.Value(n)
	if target != nil && target.Type == ir.ArrayType {
		return t.deleteIndex(n, target, key)
	}
	if err := t.set(n, key, nil); err != nil {
		return err
	}
	// listeners may have replaced the object
	if cur := t.Value(n); cur != nil && cur.Type == ir.ObjectType {
		cur.Remove(key)
	}
	return nil
}

// deleteIndex notifies the element at key and the nodes below it that
// their values are gone, then splices the element out.  Only the
// splice bubbles.
func (t *Tree) deleteIndex(n *PathNode, arr *ir.Node, key string) error {
	i, ok := ir.ParseIndex(key)
	if !ok {
		return fmt.Errorf("%w %q at %q", ErrIndex, key, n.KPath())
	}
	if i >= len(arr.Values) {
		return nil
	}
	if err := t.enter(); err != nil {
		return err
	}
	prev := arr.Values[i]
	path := JoinPath(n.path, key)
	if prev.IsContainer() {
		t.vanishBelow(path, prev)
	}
	if c := t.nodes[path]; c != nil && prev != nil {
		t.deliver(c, ChangeInfo{PrevValue: prev}, 0, true)
	}
	t.exit()
	// listeners may have changed the array
	arr = t.Value(n)
	if arr == nil || arr.Type != ir.ArrayType || i >= len(arr.Values) {
		return nil
	}
	_, err := t.splice(n, i, 1)
	return err
}

// deleteSelf deletes n from its parent.  Deleting the root is a no-op.
func (t *Tree) deleteSelf(n *PathNode) error {
	if n.IsRoot() {
		return nil
	}
	return t.deleteKey(t.ParentNode(n), n.key)
}

func (t *Tree) push(n *PathNode, items ...*ir.Node) error {
	return t.mutateArray(n, items, func(arr *ir.Node) {
		arr.Values = append(arr.Values, items...)
	})
}

// splice removes deleteCount elements at start and inserts items there,
// returning the removed elements.  A negative start counts from the end;
// start and deleteCount are clamped to the array.
func (t *Tree) splice(n *PathNode, start, deleteCount int, items ...*ir.Node) ([]*ir.Node, error) {
	var removed []*ir.Node
	err := t.mutateArray(n, items, func(arr *ir.Node) {
		l := len(arr.Values)
		if start < 0 {
			start = max(l+start, 0)
		}
		start = min(start, l)
		deleteCount = min(max(deleteCount, 0), l-start)
		removed = slices.Clone(arr.Values[start : start+deleteCount])
		arr.Values = slices.Replace(arr.Values, start, start+deleteCount, items...)
	})
	return removed, err
}

// mutateArray applies f to the array at n in place, so holders of the
// array see the change, then runs the generic set on the parent slot
// with a snapshot of the array as previous value.
func (t *Tree) mutateArray(n *PathNode, items []*ir.Node, f func(arr *ir.Node)) error {
	arr := t.Value(n)
	if arr == nil || arr.Type != ir.ArrayType {
		return fmt.Errorf("%w: %s at %q is not an array", ErrNotContainer, typeName(arr), n.KPath())
	}
	ancestors := t.ancestors(n)
	for _, v := range items {
		if err := checkValue(v, ancestors...); err != nil {
			return err
		}
	}
	if err := t.enter(); err != nil {
		return err
	}
	defer t.exit()
	prev := arr.ShallowClone()
	f(arr)
	if n.IsRoot() {
		t.cleanup(n.path, prev)
		t.build(n, arr, prev)
		t.notify(n, arr, prev)
		return nil
	}
	parent := t.ParentNode(n)
	parentValue := t.Value(parent)
	if err := parentValue.Put(n.key, prev); err != nil {
		panic(fmt.Sprintf("restore array snapshot: %v", err))
	}
	t.commit(parent, parentValue, n.key, arr)
	return nil
}

// cleanup drops the bindings of v, found at path, and of every
// container below it.  Values that have since been bound at another
// path were moved there and keep their bindings.
func (t *Tree) cleanup(path string, v *ir.Node) {
	if !v.IsContainer() {
		return
	}
	if n, ok := t.arena.nodeOf(v); ok && n.path != path {
		return
	}
	for i := range v.Values {
		t.cleanup(JoinPath(path, keyAt(v, i)), v.Values[i])
	}
	t.arena.detach(v)
}

// build binds v and every container below it to nodes under n, then
// diffs v against prev.
//
// The diff gives a direct notification to each location below n that
// already has a node and whose value differs from the one it had under
// prev, so listeners registered deep in a replaced subtree fire once at
// their own node.  Array elements are not diffed by key; their indices
// are structural.  Binding comes first so that listeners see the whole
// new value bound.
func (t *Tree) build(n *PathNode, v, prev *ir.Node) {
	t.bind(n, v)
	t.diff(n, v, prev)
}

func (t *Tree) bind(n *PathNode, v *ir.Node) {
	if _, err := t.arena.attach(v, n); err != nil {
		panic(err)
	}
	for i, cv := range v.Values {
		if cv.IsContainer() {
			t.bind(t.child(n, keyAt(v, i)), cv)
		}
	}
}

func (t *Tree) diff(n *PathNode, v, prev *ir.Node) {
	if prev.IsContainer() && prev.Type != v.Type {
		t.vanishBelow(n.path, prev)
		prev = nil
	}
	isObject := v.Type == ir.ObjectType
	for i := range v.Values {
		key := keyAt(v, i)
		path := JoinPath(n.path, key)
		cv := v.Values[i]
		var pv *ir.Node
		if prev.IsContainer() {
			pv, _ = prev.Child(key)
		}
		doNotify := isObject && !same(cv, pv) && t.HasNode(path)
		if cv.IsContainer() {
			t.diff(t.child(n, key), cv, pv)
		} else if isObject && pv.IsContainer() {
			t.vanishBelow(path, pv)
		}
		if doNotify {
			t.notifyDirect(t.child(n, key), cv, pv)
		}
	}
	if isObject && prev != nil && prev.Type == ir.ObjectType {
		for i, key := range prev.Fields {
			if v.IndexOfField(key) >= 0 {
				continue
			}
			t.vanish(n.path, key, prev.Values[i])
		}
	}
}

// vanish notifies existing nodes at and below key under parentPath that
// their previous value pv is gone.
func (t *Tree) vanish(parentPath, key string, pv *ir.Node) {
	path := JoinPath(parentPath, key)
	if pv.IsContainer() {
		t.vanishBelow(path, pv)
	}
	if c := t.nodes[path]; c != nil && pv != nil {
		t.notifyDirect(c, nil, pv)
	}
}

func (t *Tree) vanishBelow(path string, pv *ir.Node) {
	for i, k := range pv.Keys() {
		t.vanish(path, k, pv.Values[i])
	}
}

func keyAt(v *ir.Node, i int) string {
	if v.Type == ir.ObjectType {
		return v.Fields[i]
	}
	return strconv.Itoa(i)
}

// same reports whether a location holding a now holds b: containers by
// identity, everything else by value.
func same(a, b *ir.Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.IsContainer() || b.IsContainer() {
		return false
	}
	return a.Type == b.Type && ir.Equal(a, b)
}

package observe

import (
	"fmt"

	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/ir/kpath"
)

// Tree is an observable value.  It owns the root value, the registry of
// path nodes and the arena binding tracked objects and arrays to their
// nodes.
//
// A Tree is not safe for concurrent use.  Every mutation, including the
// notifications it triggers, runs to completion before returning.
type Tree struct {
	value *ir.Node
	nodes map[string]*PathNode
	arena arena

	maxDepth int
	depth    int
}

type Option func(*Tree)

// WithMaxDepth limits how deeply mutations made from listeners may
// nest.  Mutations past the limit fail with ErrDepth.  0 means no
// limit.
func WithMaxDepth(n int) Option {
	return func(t *Tree) {
		t.maxDepth = n
	}
}

// New makes v observable.  v must be an object or an array; it is
// adopted, not copied, and must afterwards be mutated through the tree.
func New(v *ir.Node, opts ...Option) (*Tree, error) {
	if !v.IsContainer() {
		return nil, fmt.Errorf("%w: %s", ErrPrimitive, typeName(v))
	}
	t := &Tree{
		value: v,
		nodes: map[string]*PathNode{},
		arena: newArena(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := checkValue(v); err != nil {
		return nil, err
	}
	t.build(t.RootNode(), v, nil)
	return t, nil
}

// checkValue rejects values with keys containing Delim and values
// containing one of ancestors or themselves.
func checkValue(v *ir.Node, ancestors ...*ir.Node) error {
	if !v.IsContainer() {
		return nil
	}
	onPath := map[*ir.Node]bool{}
	for _, a := range ancestors {
		onPath[a] = true
	}
	return v.Visit(func(y *ir.Node, isPost bool) (bool, error) {
		if !y.IsContainer() {
			return false, nil
		}
		if isPost {
			delete(onPath, y)
			return false, nil
		}
		if onPath[y] {
			return false, fmt.Errorf("%w: %s contains itself", ErrCycle, y.Type)
		}
		onPath[y] = true
		for _, f := range y.Fields {
			if err := checkKey(f); err != nil {
				return false, err
			}
		}
		return true, nil
	})
}

// RootValue returns the live root value.
func (t *Tree) RootValue() *ir.Node {
	return t.value
}

// Read returns the live value at the canonical path, nil if absent.
func (t *Tree) Read(path string) *ir.Node {
	return t.valueAt(SplitPath(path))
}

// ReadKPath is Read with a kinded path such as "a.b[2]".
func (t *Tree) ReadKPath(kp string) (*ir.Node, error) {
	p, err := kpath.Parse(kp)
	if err != nil {
		return nil, err
	}
	return t.valueAt(p.Keys()), nil
}

// NodeAt returns the node for keys below the root.
func (t *Tree) NodeAt(keys ...string) *PathNode {
	return t.PathNode(PathOf(keys...))
}

// NodeAtKPath returns the node for a kinded path.
func (t *Tree) NodeAtKPath(kp string) (*PathNode, error) {
	p, err := kpath.Parse(kp)
	if err != nil {
		return nil, err
	}
	return t.NodeAt(p.Keys()...), nil
}

// Register adds a listener at n.  Listeners at a node are called in
// registration order.
func (t *Tree) Register(n *PathNode, shallow bool, fn ListenerFunc) *Subscription {
	return t.register(n, shallow, fn)
}

func (t *Tree) Unregister(s *Subscription) {
	s.Unsubscribe()
}

// Write sets key on the value at n through the full notification
// pipeline.
func (t *Tree) Write(n *PathNode, key string, v *ir.Node) error {
	return t.set(n, key, v)
}

// WriteValue replaces the value at n.  For the root, v is assigned key
// by key.
func (t *Tree) WriteValue(n *PathNode, v *ir.Node) error {
	return t.setValue(n, v)
}

// Root returns the accessor of the root value.
func (t *Tree) Root() *Accessor {
	a, err := t.Bound(t.value)
	if err != nil {
		panic(err)
	}
	return a
}

// At returns an accessor addressing n, whatever value is there.
func (t *Tree) At(n *PathNode) *Accessor {
	return &Accessor{tree: t, node: n}
}

// Bound returns the accessor of a tracked object or array.  It fails
// with ErrPrimitive for other values and with ErrUnbound for containers
// that are not, or no longer, part of the tree.
func (t *Tree) Bound(v *ir.Node) (*Accessor, error) {
	if !v.IsContainer() {
		return nil, fmt.Errorf("%w: %s", ErrPrimitive, typeName(v))
	}
	h, ok := t.arena.lookup(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnbound, v.Type)
	}
	return &Accessor{tree: t, handle: h, value: v}, nil
}

// Handles reports the number of live bindings.
func (t *Tree) Handles() int {
	return t.arena.live()
}

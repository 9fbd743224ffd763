package observe

import (
	"fmt"

	"github.com/signadot/tony-observe/ir"
)

// Accessor exposes the mutation and listener operations of one
// location.  It is either bound to a tracked object or array, following
// that value wherever it is bound, or it addresses a fixed node, as
// returned by Prop and Tree.At.
type Accessor struct {
	tree *Tree

	handle Handle
	value  *ir.Node

	node *PathNode
}

func (a *Accessor) Tree() *Tree { return a.tree }

// Handle returns the arena handle of a bound accessor, zero for node
// accessors.
func (a *Accessor) Handle() Handle { return a.handle }

// Node resolves the accessor to its node.  A bound accessor whose value
// has been dropped from the tree fails with ErrUnbound.
func (a *Accessor) Node() (*PathNode, error) {
	if a.node != nil {
		return a.node, nil
	}
	t := a.tree
	if n, ok := t.arena.resolve(a.handle); ok {
		return n, nil
	}
	h, ok := t.arena.lookup(a.value)
	if !ok {
		return nil, fmt.Errorf("%w: %s (handle %s)", ErrUnbound, a.value.Type, a.handle)
	}
	a.handle = h
	n, _ := t.arena.resolve(h)
	return n, nil
}

// Get returns the live value.
func (a *Accessor) Get() *ir.Node {
	n, err := a.Node()
	if err != nil {
		return nil
	}
	return a.tree.Value(n)
}

// Set replaces the value.  On the root, v is assigned instead.
func (a *Accessor) Set(v *ir.Node) error {
	n, err := a.Node()
	if err != nil {
		return err
	}
	return a.tree.setValue(n, v)
}

// SetKey sets key on the value.  Setting nil leaves the key present
// with an undefined value; use DeleteKey to remove it.
func (a *Accessor) SetKey(key string, v *ir.Node) error {
	n, err := a.Node()
	if err != nil {
		return err
	}
	return a.tree.set(n, key, v)
}

// Assign sets each key of partial, in order, as separate changes.
func (a *Accessor) Assign(partial *ir.Node) error {
	n, err := a.Node()
	if err != nil {
		return err
	}
	return a.tree.assign(n, partial)
}

// Delete removes the value from its parent.  On the root it does
// nothing.
func (a *Accessor) Delete() error {
	n, err := a.Node()
	if err != nil {
		return err
	}
	return a.tree.deleteSelf(n)
}

// DeleteKey notifies listeners that key became undefined and then
// removes it.  Deleting an array element shifts later elements down;
// deleting past the end does nothing.
func (a *Accessor) DeleteKey(key string) error {
	n, err := a.Node()
	if err != nil {
		return err
	}
	return a.tree.deleteKey(n, key)
}

// Prop returns an accessor for key below this one.  The location need
// not exist yet.
func (a *Accessor) Prop(key string) (*Accessor, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	n, err := a.Node()
	if err != nil {
		return nil, err
	}
	return &Accessor{tree: a.tree, node: a.tree.child(n, key)}, nil
}

// Push appends items to the array in place.
func (a *Accessor) Push(items ...*ir.Node) error {
	n, err := a.Node()
	if err != nil {
		return err
	}
	return a.tree.push(n, items...)
}

// Splice removes deleteCount elements from start, inserts items there
// and returns the removed elements.  A negative start counts back from
// the end.
func (a *Accessor) Splice(start, deleteCount int, items ...*ir.Node) ([]*ir.Node, error) {
	n, err := a.Node()
	if err != nil {
		return nil, err
	}
	return a.tree.splice(n, start, deleteCount, items...)
}

// OnChange registers a deep listener.
func (a *Accessor) OnChange(fn ListenerFunc) (*Subscription, error) {
	n, err := a.Node()
	if err != nil {
		return nil, err
	}
	return a.tree.register(n, false, fn), nil
}

// OnChangeShallow registers a listener for changes at this location or
// one level below.
func (a *Accessor) OnChangeShallow(fn ListenerFunc) (*Subscription, error) {
	n, err := a.Node()
	if err != nil {
		return nil, err
	}
	return a.tree.register(n, true, fn), nil
}

func (a *Accessor) KPath() string {
	n, err := a.Node()
	if err != nil {
		return "<unbound>"
	}
	return n.KPath()
}

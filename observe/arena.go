package observe

import (
	"fmt"

	"github.com/signadot/tony-observe/debug"
	"github.com/signadot/tony-observe/ir"
)

// Handle identifies the binding of one object or array to a PathNode.
// Handles are reused after their binding is dropped; the generation
// tells a stale handle from its successor.  The zero Handle is never
// valid.
type Handle struct {
	index uint32
	gen   uint32
}

func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

type slot struct {
	node  *PathNode
	value *ir.Node
	gen   uint32
}

// arena binds tracked container values to their nodes.  It is owned by
// a Tree.
type arena struct {
	slots   []slot
	free    []uint32
	byValue map[*ir.Node]Handle
}

func newArena() arena {
	return arena{byValue: map[*ir.Node]Handle{}}
}

// attach binds v to n.  A value that is already bound keeps its handle
// and moves to n.
func (a *arena) attach(v *ir.Node, n *PathNode) (Handle, error) {
	if !v.IsContainer() {
		return Handle{}, fmt.Errorf("%w: cannot bind %s", ErrPrimitive, typeName(v))
	}
	if h, ok := a.byValue[v]; ok {
		s := &a.slots[h.index]
		if s.node != n && debug.Bind() {
			debug.Logf("move %s %s from %q to %q\n", h, v.Type, s.node.KPath(), n.KPath())
		}
		s.node = n
		return h, nil
	}
	var idx uint32
	if k := len(a.free); k > 0 {
		idx = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[idx]
	s.gen++
	s.node = n
	s.value = v
	h := Handle{index: idx, gen: s.gen}
	a.byValue[v] = h
	if debug.Bind() {
		debug.Logf("bind %s %s at %q\n", h, v.Type, n.KPath())
	}
	return h, nil
}

// detach drops the binding of v, if any.
func (a *arena) detach(v *ir.Node) bool {
	h, ok := a.byValue[v]
	if !ok {
		return false
	}
	delete(a.byValue, v)
	s := &a.slots[h.index]
	if debug.Bind() {
		debug.Logf("unbind %s %s at %q\n", h, v.Type, s.node.KPath())
	}
	s.node = nil
	s.value = nil
	s.gen++
	a.free = append(a.free, h.index)
	return true
}

func (a *arena) resolve(h Handle) (*PathNode, bool) {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if s.gen != h.gen || s.node == nil {
		return nil, false
	}
	return s.node, true
}

// nodeOf returns the node v is bound to.
func (a *arena) nodeOf(v *ir.Node) (*PathNode, bool) {
	h, ok := a.byValue[v]
	if !ok {
		return nil, false
	}
	return a.resolve(h)
}

func (a *arena) lookup(v *ir.Node) (Handle, bool) {
	h, ok := a.byValue[v]
	return h, ok
}

func (a *arena) live() int {
	return len(a.byValue)
}

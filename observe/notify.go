package observe

import (
	"slices"

	"github.com/signadot/tony-observe/debug"
	"github.com/signadot/tony-observe/ir"
)

// ChangeInfo describes a change as seen from a listener's node.
//
// Path holds the keys from the listener's node down to the location
// that changed; it is empty when the change happened at the listener's
// own node.  PrevValue and Value are the values at that location before
// and after the change.
type ChangeInfo struct {
	Path      []string
	PrevValue *ir.Node
	Value     *ir.Node
}

// ListenerFunc is called with the current value at the listener's node.
type ListenerFunc func(value *ir.Node, info ChangeInfo)

type listener struct {
	fn      ListenerFunc
	shallow bool
}

// Subscription is returned by listener registration.
type Subscription struct {
	node *PathNode
	l    *listener
}

// Node returns the node the listener is registered on.
func (s *Subscription) Node() *PathNode {
	return s.node
}

func (s *Subscription) Shallow() bool {
	return s.l.shallow
}

// Unsubscribe removes the listener.  A notification already being
// delivered still reaches it.  Unsubscribe is idempotent.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.node == nil {
		return
	}
	n := s.node
	i := slices.Index(n.listeners, s.l)
	if i < 0 {
		return
	}
	// never modify the backing array in place, deliveries in progress
	// hold it
	n.listeners = slices.Concat(n.listeners[:i], n.listeners[i+1:])
	if len(n.listeners) == 0 {
		n.listeners = nil
	}
}

func (t *Tree) register(n *PathNode, shallow bool, fn ListenerFunc) *Subscription {
	l := &listener{fn: fn, shallow: shallow}
	n.listeners = append(n.listeners, l)
	return &Subscription{node: n, l: l}
}

// notify delivers a change at origin to origin and then to each
// ancestor up to the root.
//
// levelsUp starts at 0, or -1 when the location had no previous value,
// and grows by one per ancestor.  Shallow listeners only see changes
// with levelsUp <= 1.
func (t *Tree) notify(origin *PathNode, v, prev *ir.Node) {
	levelsUp := 0
	if prev == nil {
		levelsUp = -1
	}
	info := ChangeInfo{PrevValue: prev, Value: v}
	n := origin
	for {
		t.deliver(n, info, levelsUp, true)
		if n.IsRoot() {
			return
		}
		path := make([]string, len(info.Path)+1)
		path[0] = n.key
		copy(path[1:], info.Path)
		info.Path = path
		n = t.ParentNode(n)
		levelsUp++
	}
}

// notifyDirect delivers a change to the deep listeners of n only, with
// no bubbling.  It is used for locations below a replaced value.
func (t *Tree) notifyDirect(n *PathNode, v, prev *ir.Node) {
	t.deliver(n, ChangeInfo{PrevValue: prev, Value: v}, 0, false)
}

func (t *Tree) deliver(n *PathNode, info ChangeInfo, levelsUp int, bubbling bool) {
	ls := n.listeners
	if len(ls) == 0 {
		return
	}
	value := t.Value(n)
	if debug.Notify() {
		debug.Logf("notify %q path=%s levelsUp=%d bubbling=%t prev=%s value=%s\n",
			n.KPath(), info.Path, levelsUp, bubbling, debug.JSON{info.PrevValue}, debug.JSON{info.Value})
	}
	for _, l := range ls {
		if l.shallow && (!bubbling || levelsUp > 1) {
			continue
		}
		l.fn(value, info)
	}
}

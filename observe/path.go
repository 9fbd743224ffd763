package observe

import (
	"slices"
	"strings"

	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/ir/kpath"
)

// Delim joins the keys of a canonical path.  It may not occur in keys.
const Delim = "\x1f"

// JoinPath returns the canonical path of key under parent.
func JoinPath(parent, key string) string {
	return parent + Delim + key
}

// PathOf returns the canonical path for keys, starting at the root.
func PathOf(keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	return Delim + strings.Join(keys, Delim)
}

// SplitPath returns the keys of a canonical path.  A missing leading
// Delim is tolerated.
func SplitPath(path string) []string {
	path = normPath(path)
	if path == "" {
		return nil
	}
	return strings.Split(path[len(Delim):], Delim)
}

func normPath(path string) string {
	if path == "" || strings.HasPrefix(path, Delim) {
		return path
	}
	return Delim + path
}

// PathNode is the identity of one location in a Tree.  There is at most
// one PathNode per path in a tree; they are created lazily and never
// removed.
type PathNode struct {
	tree   *Tree
	path   string
	parent string
	key    string
	keys   []string

	listeners []*listener
}

func (n *PathNode) Tree() *Tree { return n.tree }

// Path returns the canonical, Delim joined path.
func (n *PathNode) Path() string { return n.path }

// Key returns the last key of the path, "" for the root.
func (n *PathNode) Key() string { return n.key }

func (n *PathNode) IsRoot() bool { return n.path == "" }

// Keys returns a copy of the keys from the root to n.
func (n *PathNode) Keys() []string { return slices.Clone(n.keys) }

// KPath renders the path as a kinded path using the current shape of
// the tree to tell array indices from fields.
func (n *PathNode) KPath() string {
	return n.tree.kpathOf(n.keys).String()
}

// KPathTo renders the path of rel below n as a kinded path.
func (n *PathNode) KPathTo(rel []string) string {
	return n.tree.kpathOf(slices.Concat(n.keys, rel)).String()
}

func (n *PathNode) ListenerCount() int { return len(n.listeners) }

func (n *PathNode) String() string { return n.KPath() }

// PathNode returns the canonical node for path, creating it if needed.
func (t *Tree) PathNode(path string) *PathNode {
	path = normPath(path)
	if n := t.nodes[path]; n != nil {
		return n
	}
	i := strings.LastIndex(path, Delim)
	if i < 0 {
		return t.getNode("", "", "", nil)
	}
	return t.getNode(path, path[:i], path[i+len(Delim):], SplitPath(path))
}

// GetNode returns the canonical node for key under parentPath.
func (t *Tree) GetNode(parentPath, key string) *PathNode {
	return t.child(t.PathNode(parentPath), key)
}

func (t *Tree) RootNode() *PathNode {
	return t.getNode("", "", "", nil)
}

func (t *Tree) HasNode(path string) bool {
	_, ok := t.nodes[normPath(path)]
	return ok
}

func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// ParentNode returns the node of n's parent, or nil if n is the root.
func (t *Tree) ParentNode(n *PathNode) *PathNode {
	if n.IsRoot() {
		return nil
	}
	return t.PathNode(n.parent)
}

// Value returns the live value at n, nil if any key on the way is
// missing.
func (t *Tree) Value(n *PathNode) *ir.Node {
	return t.valueAt(n.keys)
}

func (t *Tree) child(n *PathNode, key string) *PathNode {
	path := JoinPath(n.path, key)
	if c := t.nodes[path]; c != nil {
		return c
	}
	keys := make([]string, len(n.keys)+1)
	copy(keys, n.keys)
	keys[len(n.keys)] = key
	return t.getNode(path, n.path, key, keys)
}

func (t *Tree) getNode(path, parent, key string, keys []string) *PathNode {
	if n := t.nodes[path]; n != nil {
		return n
	}
	n := &PathNode{
		tree:   t,
		path:   path,
		parent: parent,
		key:    key,
		keys:   keys,
	}
	t.nodes[path] = n
	return n
}

func (t *Tree) valueAt(keys []string) *ir.Node {
	v := t.value
	for _, k := range keys {
		if v == nil {
			return nil
		}
		v, _ = v.Child(k)
	}
	return v
}

// kpathOf builds a kinded path for keys, rendering a key as an index
// when the value it is taken from is an array.
func (t *Tree) kpathOf(keys []string) *kpath.KPath {
	var res, tail *kpath.KPath
	v := t.value
	for _, k := range keys {
		seg := kpath.Field(k)
		if v != nil && v.Type == ir.ArrayType {
			if i, ok := ir.ParseIndex(k); ok {
				seg = kpath.Index(i)
			}
		}
		if res == nil {
			res = seg
		} else {
			tail.Next = seg
		}
		tail = seg
		if v != nil {
			v, _ = v.Child(k)
		}
	}
	return res
}

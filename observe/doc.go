// Package observe makes plain [ir.Node] trees observable.
//
// A [Tree] adopts an object or array and gives every location in it a
// canonical [PathNode], keyed by the path from the root.  Listeners are
// registered on path nodes, not on values, so they survive when the
// values at or above their location are replaced wholesale.
//
// Every object and array reachable from the root is bound to its path
// node through a per tree arena of [Handle]s.  [Tree.Bound] turns a
// tracked value back into an [Accessor], which carries the mutation
// operations (Set, SetKey, Assign, Delete, DeleteKey, Push, Splice) and
// listener registration (OnChange, OnChangeShallow).
//
// # Notification
//
// A mutation at a location notifies the listeners of that location and
// then bubbles to each ancestor up to the root.  Ancestors receive the
// same previous and new values together with the path from themselves
// down to the changed location.  Deep listeners see every change below
// them; shallow listeners only see changes at their location or one
// level below.  A change that creates a location, with no previous
// value, counts as one level closer.
//
// When an object is replaced, locations below it that already have
// path nodes and whose values differ from before are notified directly,
// deep listeners only, without bubbling.  This includes locations whose
// keys are absent in the new object, and locations below a container
// that became a scalar or was deleted.  Array elements are not diffed.
// Deleting an array element notifies its location before the splice.
//
// Mutations are synchronous.  Mutations made from listeners run to
// completion, depth first, before the outer notification continues;
// [WithMaxDepth] bounds how deep this may go.
package observe

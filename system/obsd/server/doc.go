// Package server provides the obsd server, which shares one observable
// tree with remote clients over JSON-RPC 2.0.
//
// Each connection is a session.  Sessions read and mutate the tree by
// kinded path and subscribe to changes; a subscription delivers "change"
// notifications until it is dropped or the session ends.  All access to
// the tree is serialized by the server.
//
// # Related Packages
//
//   - github.com/signadot/tony-observe/observe - the observable tree
//   - github.com/signadot/tony-observe/persist - snapshot storage
package server

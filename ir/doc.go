// Package ir provides the value representation observed by package
// observe.
//
// # Overview
//
// A Node is a recursive tagged union holding a JSON-like value:
//
//   - Atomic types: null, boolean, number, string
//   - Composite types: object (ordered key-value pairs), array
//
// For ObjectType nodes, Fields[i] is the key for the value at Values[i],
// so there are always the same number of fields as values.  Keys are
// kept in insertion order.
//
// # Undefined
//
// A nil *Node is an undefined value.  It is distinct from Null(): an
// object field may be present with an undefined value, which is what
// setting a key to nil produces, whereas removing the key leaves it
// absent.  Undefined object fields are omitted when encoding JSON.
//
// # Identity
//
// Objects and arrays are identified by pointer.  Mutating a container in
// place, for example appending to Values, is visible to every holder of
// the pointer.  Atomic nodes are compared by value with Compare.
//
// # Numbers
//
// Number values are placed under:
//   - Int64: if it is an integer (64-bit signed)
//   - Float64: if it is a floating point number (64-bit IEEE float)
//   - Number: as a string fallback if neither Int64 nor Float64 can represent it
//
// # Thread Safety
//
// Node structures are not thread-safe. If you need to access nodes from
// multiple goroutines, you must synchronize access yourself or clone nodes
// for each goroutine.
//
// # Related Packages
//
//   - github.com/signadot/tony-observe/ir/kpath - kinded paths
//   - github.com/signadot/tony-observe/codec - YAML and JSON decoding
//   - github.com/signadot/tony-observe/observe - change notification
package ir

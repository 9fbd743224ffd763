// Package kpath provides kinded path parsing and formatting.
//
// Kinded paths encode both navigation and structure type in the syntax:
//   - .field - Object field access
//   - [index] - Array index
//
// Fields containing syntax characters, whitespace or nothing at all are
// double quoted using Go string syntax; single quotes are also accepted
// when parsing.
//
// # Usage
//
//	// Parse a kinded path
//	kp, err := kpath.Parse("users[0].name")
//
//	// Canonical keys, as used by package observe
//	keys := kp.Keys() // ["users", "0", "name"]
//
//	// Navigate
//	parent := kp.Parent()
//	child := kp.Append(kpath.Field("email"))
//
// # Path Examples
//
//	"users[0].name"      // Object → array → object field
//	`"a b".c`            // quoted field
//	"[2][0]"             // array of arrays
//
// # Related Packages
//
//   - github.com/signadot/tony-observe/ir - IR representation
package kpath

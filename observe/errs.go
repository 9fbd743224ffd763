package observe

import (
	"errors"

	"github.com/signadot/tony-observe/ir"
)

var (
	ErrPrimitive    = errors.New("value is not an object or array")
	ErrUnbound      = errors.New("value is not bound to a tree")
	ErrNotContainer = errors.New("no object or array at path")
	ErrBadKey       = errors.New("bad key")
	ErrIndex        = ir.ErrIndex
	ErrCycle        = errors.New("value contains its own location")
	ErrDepth        = errors.New("mutation depth exceeded")
)

func typeName(v *ir.Node) string {
	if v == nil {
		return "undefined"
	}
	return v.Type.String()
}

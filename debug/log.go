package debug

import (
	"fmt"
	"os"
	"strings"

	"github.com/signadot/tony-observe/ir"
)

// JSON renders a node as JSON for %s verbs.
type JSON struct{ *ir.Node }

func (y JSON) String() string {
	if y.Node == nil {
		return "<undefined>"
	}
	d, err := y.Node.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("[raw *ir.Node] %v", y.Node)
	}
	return string(d)
}

// Logf writes to stderr.  *ir.Node arguments are rendered as JSON and
// path key slices are joined with '.'.
func Logf(msg string, args ...any) {
	for i := range args {
		switch x := args[i].(type) {
		case *ir.Node:
			args[i] = JSON{x}.String()
		case []string:
			args[i] = strings.Join(x, ".")
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}

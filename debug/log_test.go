package debug

import (
	"fmt"
	"strings"
	"testing"

	"github.com/signadot/tony-observe/ir"
)

func TestJSONString(t *testing.T) {
	tests := []struct {
		name string
		node *ir.Node
		want string
	}{
		{"undefined", nil, "<undefined>"},
		{"null", ir.Null(), "null"},
		{"object", ir.FromKeyVals([]ir.KeyVal{
			{Key: "a", Val: ir.FromInt(1)},
			{Key: "b", Val: ir.FromSlice([]*ir.Node{ir.FromString("x")})},
		}), `{"a":1,"b":["x"]}`},
		{"bad number", &ir.Node{Type: ir.NumberType, Number: "0x"}, "[raw *ir.Node] "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fmt.Sprintf("%s", JSON{tt.node})
			if tt.name == "bad number" {
				if !strings.HasPrefix(got, tt.want) {
					t.Errorf("got %q, want prefix %q", got, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// Package when builds filtered listeners on top of observe listeners.
package when

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/debug"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
)

// Func is called with the current value of the observed location.
type Func func(value *ir.Node)

// On calls fn with the current value whenever a change below a makes
// pred true, and once at registration if pred already holds.
func On(a *observe.Accessor, pred func(*ir.Node) bool, fn Func) (*observe.Subscription, error) {
	sub, err := a.OnChange(func(value *ir.Node, _ observe.ChangeInfo) {
		if pred(value) {
			fn(value)
		}
	})
	if err != nil {
		return nil, err
	}
	if v := a.Get(); pred(v) {
		fn(v)
	}
	return sub, nil
}

// OnEquals fires when the value equals want.
func OnEquals(a *observe.Accessor, want *ir.Node, fn Func) (*observe.Subscription, error) {
	return On(a, func(v *ir.Node) bool {
		return v != nil && ir.Equal(v, want)
	}, fn)
}

// OnHasValue fires when the value is defined and not null.
func OnHasValue(a *observe.Accessor, fn Func) (*observe.Subscription, error) {
	return On(a, func(v *ir.Node) bool {
		return v != nil && v.Type != ir.NullType
	}, fn)
}

func OnTrue(a *observe.Accessor, fn Func) (*observe.Subscription, error) {
	return On(a, func(v *ir.Node) bool {
		return v != nil && v.Type == ir.BoolType && v.Bool
	}, fn)
}

// OnExpr fires on changes for which the boolean expression code holds.
// The expression sees value, the current value of the location, and
// change, with the path, value and prev of the change.  getpath(kpath)
// reads from the whole tree.
func OnExpr(a *observe.Accessor, code string, fn observe.ListenerFunc) (*observe.Subscription, error) {
	tree := a.Tree()
	opts := []expr.Option{
		expr.Env(env(nil, observe.ChangeInfo{})),
		expr.AsBool(),
		expr.Function("getpath", func(params ...any) (any, error) {
			kp, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("getpath expects a string, got %T", params[0])
			}
			v, err := tree.ReadKPath(kp)
			if err != nil {
				return nil, err
			}
			return codec.ToPlain(v), nil
		}, new(func(string) any)),
	}
	prg, err := expr.Compile(code, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", code, err)
	}
	return a.OnChange(func(value *ir.Node, info observe.ChangeInfo) {
		if eval(prg, value, info) {
			fn(value, info)
		}
	})
}

func env(value *ir.Node, info observe.ChangeInfo) map[string]any {
	path := info.Path
	if path == nil {
		path = []string{}
	}
	return map[string]any{
		"value": codec.ToPlain(value),
		"change": map[string]any{
			"path":  path,
			"value": codec.ToPlain(info.Value),
			"prev":  codec.ToPlain(info.PrevValue),
		},
	}
}

func eval(prg *vm.Program, value *ir.Node, info observe.ChangeInfo) bool {
	res, err := expr.Run(prg, env(value, info))
	if err != nil {
		if debug.Notify() {
			debug.Logf("expr at %s: %v\n", info.Path, err)
		}
		return false
	}
	b, _ := res.(bool)
	return b
}

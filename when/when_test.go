package when

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
)

func setup(t *testing.T, src string) (*observe.Tree, *observe.Accessor) {
	t.Helper()
	tr, err := observe.New(codec.MustDecode(src))
	if err != nil {
		t.Fatal(err)
	}
	return tr, tr.Root()
}

func prop(t *testing.T, a *observe.Accessor, key string) *observe.Accessor {
	t.Helper()
	p, err := a.Prop(key)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOnEquals(t *testing.T) {
	_, root := setup(t, "{status: pending}")
	var got []string
	_, err := OnEquals(prop(t, root, "status"), ir.FromString("done"), func(v *ir.Node) {
		got = append(got, v.String)
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"running", "done", "failed", "done"} {
		if err := root.SetKey("status", ir.FromString(s)); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]string{"done", "done"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	n := 0
	if _, err := OnEquals(prop(t, root, "status"), ir.FromString("done"), func(*ir.Node) { n++ }); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected immediate call, got %d", n)
	}
}

func TestOnHasValue(t *testing.T) {
	_, root := setup(t, "{}")
	n := 0
	sub, err := OnHasValue(prop(t, root, "user"), func(*ir.Node) { n++ })
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("unexpected immediate call")
	}
	if err := root.SetKey("user", ir.Null()); err != nil {
		t.Fatal(err)
	}
	if err := root.SetKey("user", codec.MustDecode("{name: x}")); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d calls", n)
	}
	sub.Unsubscribe()
	if err := root.SetKey("user", codec.MustDecode("{name: y}")); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("called after unsubscribe")
	}
}

func TestOnTrue(t *testing.T) {
	_, root := setup(t, "{ready: true}")
	n := 0
	if _, err := OnTrue(prop(t, root, "ready"), func(*ir.Node) { n++ }); err != nil {
		t.Fatal(err)
	}
	for _, b := range []bool{false, true, true} {
		if err := root.SetKey("ready", ir.FromBool(b)); err != nil {
			t.Fatal(err)
		}
	}
	if err := root.SetKey("ready", ir.FromString("true")); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("got %d calls want 3", n)
	}
}

func TestOnExpr(t *testing.T) {
	_, root := setup(t, "{limit: 10, counts: {a: 1}}")
	counts := prop(t, root, "counts")
	var fired []string
	_, err := OnExpr(counts, `change.value > getpath("limit") && len(change.path) == 1`, func(_ *ir.Node, info observe.ChangeInfo) {
		fired = append(fired, info.Path[0])
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, kv := range []struct {
		k string
		v int64
	}{{"a", 5}, {"b", 11}, {"a", 12}} {
		if err := counts.SetKey(kv.k, ir.FromInt(kv.v)); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]string{"b", "a"}, fired); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if _, err := OnExpr(counts, "value +", nil); err == nil {
		t.Errorf("expected compile error")
	}
}

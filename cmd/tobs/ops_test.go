package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
)

func runScript(t *testing.T, doc, script string, deep, shallow, exprs []string, diff bool) (string, *observe.Tree) {
	t.Helper()
	tree, err := observe.New(codec.MustDecode(doc))
	if err != nil {
		t.Fatal(err)
	}
	ops, err := parseOps(codec.MustDecode(script))
	if err != nil {
		t.Fatal(err)
	}
	buf := &bytes.Buffer{}
	p := &printer{w: buf, format: codec.YAMLFormat, diff: diff, pal: newPalette(false)}
	if err := p.watch(tree, deep, shallow, exprs); err != nil {
		t.Fatal(err)
	}
	for _, o := range ops {
		if err := o.apply(tree); err != nil {
			t.Fatalf("%s: %v", o, err)
		}
	}
	if p.err != nil {
		t.Fatal(p.err)
	}
	return buf.String(), tree
}

func TestParseOps(t *testing.T) {
	ops, err := parseOps(codec.MustDecode(`
- set: a.b
  value: 1
- delete: a.c
- splice: items
  start: 1
  values: [x]
`))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, o := range ops {
		got = append(got, o.String())
	}
	if diff := cmp.Diff([]string{"set a.b", "delete a.c", "splice items"}, got); diff != "" {
		t.Error(diff)
	}
	sp := ops[2]
	if sp.Start != 1 || len(sp.Values) != 1 || sp.DeleteCount <= 0 {
		t.Errorf("splice parsed as %+v", sp)
	}
}

func TestParseOpsErrors(t *testing.T) {
	for _, script := range []string{
		`{set: a}`,
		`[{set: a}]`,
		`[{set: a, delete: b}]`,
		`[{push: a, values: 3}]`,
		`[{splice: a, start: x}]`,
		`[{frob: a}]`,
		`[3]`,
	} {
		if _, err := parseOps(codec.MustDecode(script)); !errors.Is(err, ErrScript) {
			t.Errorf("%s: got %v, want ErrScript", script, err)
		}
	}
}

func TestRunScript(t *testing.T) {
	out, tree := runScript(t, `{a: {b: 1}, items: [p, q]}`, `
- set: a.b
  value: 2
- push: items
  values: [r]
- splice: items
  start: 0
  deleteCount: 1
- assign: a
  value: {c: true}
`, []string{"a"}, []string{""}, nil, false)
	want := `[w a] a.b: 1 -> 2
[s $] items: ["p","q"] -> ["p","q","r"]
[s $] items: ["p","q","r"] -> ["q","r"]
[w a] a.c: undefined -> true
[s $] a.c: undefined -> true
`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Error(diff)
	}
	if !ir.Equal(tree.RootValue(), codec.MustDecode(`{a: {b: 2, c: true}, items: [q, r]}`)) {
		t.Errorf("got %s", compact(tree.RootValue()))
	}
}

func TestRunWhen(t *testing.T) {
	out, _ := runScript(t, `{n: 1}`, `
- set: n
  value: 2
- set: n
  value: 10
`, nil, nil, []string{"change.value > 5"}, false)
	want := "[when $] n: 2 -> 10\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Error(diff)
	}
}

func TestRunDiff(t *testing.T) {
	out, _ := runScript(t, `{a: {x: 1, y: 2}}`, `
- set: a
  value: {x: 1, y: 3}
`, []string{"a"}, nil, nil, true)
	want := `[w a] a
  x: 1
- y: 2
+ y: 3
`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Error(diff)
	}
}

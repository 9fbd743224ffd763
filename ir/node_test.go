package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseIndex(t *testing.T) {
	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"", 0, false},
		{"-1", 0, false},
		{"01", 0, false},
		{"+1", 0, false},
		{"a", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseIndex(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseIndex(%q) = %d, %t want %d, %t", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPutRemove(t *testing.T) {
	obj := FromKeyVals([]KeyVal{{Key: "b", Val: FromInt(1)}})
	if err := obj.Put("a", FromInt(2)); err != nil {
		t.Fatal(err)
	}
	if err := obj.Put("b", nil); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, obj.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	v, ok := obj.Child("b")
	if !ok || v != nil {
		t.Errorf("expected b present and undefined, got %v %t", v, ok)
	}
	if _, ok := obj.Remove("b"); !ok {
		t.Errorf("remove b failed")
	}
	if _, ok := obj.Child("b"); ok {
		t.Errorf("b still present")
	}

	arr := FromSlice([]*Node{FromInt(0), FromInt(1)})
	if err := arr.Put("2", FromInt(2)); err != nil {
		t.Fatal(err)
	}
	if err := arr.Put("4", FromInt(4)); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if _, ok := arr.Remove("0"); !ok {
		t.Fatal("remove [0] failed")
	}
	d, err := arr.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(d) != "[1,2]" {
		t.Errorf("got %s", d)
	}
	if err := FromInt(1).Put("a", nil); !errors.Is(err, ErrNotContainer) {
		t.Errorf("expected ErrNotContainer, got %v", err)
	}
}

func TestMarshalJSON(t *testing.T) {
	n := FromKeyVals([]KeyVal{
		{Key: "z", Val: FromString("q\"uote")},
		{Key: "gone", Val: nil},
		{Key: "a", Val: FromSlice([]*Node{nil, Null(), FromBool(true), FromFloat(1.5)})},
	})
	d, err := n.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"z":"q\"uote","a":[null,null,true,1.5]}`
	if string(d) != want {
		t.Errorf("got %s want %s", d, want)
	}
}

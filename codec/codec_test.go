package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tony-observe/ir"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"y", "yaml", "yml"} {
		f, err := ParseFormat(s)
		if err != nil || f != YAMLFormat {
			t.Errorf("ParseFormat(%q) = %s, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("tony"); !errors.Is(err, ErrBadFormat) {
		t.Errorf("expected ErrBadFormat, got %v", err)
	}
	if got := FormatOfPath("dir.d/state.json"); got != JSONFormat {
		t.Errorf("FormatOfPath json: got %s", got)
	}
	if got := FormatOfPath("dir.json/state"); got != YAMLFormat {
		t.Errorf("FormatOfPath no suffix: got %s", got)
	}
}

func TestDecodeOrder(t *testing.T) {
	for _, f := range []Format{YAMLFormat, JSONFormat} {
		v, err := Decode([]byte(`{"z": 1, "a": [true, null, "s", 1.5], "m": {"y": -2, "b": {}}}`), f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if diff := cmp.Diff([]string{"z", "a", "m"}, v.Keys()); diff != "" {
			t.Errorf("%s keys (-want +got):\n%s", f, diff)
		}
		d, err := v.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		want := `{"z":1,"a":[true,null,"s",1.5],"m":{"y":-2,"b":{}}}`
		if string(d) != want {
			t.Errorf("%s: got %s want %s", f, d, want)
		}
	}
}

func TestDecodeError(t *testing.T) {
	if _, err := Decode([]byte("a: [1, 2"), YAMLFormat); err == nil {
		t.Errorf("expected error")
	}
}

func TestEncode(t *testing.T) {
	v := MustDecode("{b: 1, a: {c: [x, 2]}}")
	v.Fields = append(v.Fields, "gone")
	v.Values = append(v.Values, nil)

	buf := bytes.NewBuffer(nil)
	if err := Encode(buf, v, JSONFormat); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), `{"b":1,"a":{"c":["x",2]}}`+"\n"; got != want {
		t.Errorf("json: got %q want %q", got, want)
	}

	d, err := EncodeBytes(v, YAMLFormat)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(d, YAMLFormat)
	if err != nil {
		t.Fatalf("decode %s: %v", d, err)
	}
	v.Fields = v.Fields[:2]
	v.Values = v.Values[:2]
	if !ir.Equal(v, back) {
		t.Errorf("yaml round trip: got %s", d)
	}
}

func TestToPlain(t *testing.T) {
	v := MustDecode("{a: [1, {b: true}], c: null}")
	want := map[string]any{
		"a": []any{int64(1), map[string]any{"b": true}},
		"c": nil,
	}
	if diff := cmp.Diff(want, ToPlain(v)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

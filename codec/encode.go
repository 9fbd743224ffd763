package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/signadot/tony-observe/ir"
)

type encOpts struct {
	indent int
}

type EncodeOption func(*encOpts)

// EncodeIndent sets the indentation, 0 for compact JSON.  YAML output
// always indents, by 2 unless n is positive.
func EncodeIndent(n int) EncodeOption {
	return func(o *encOpts) { o.indent = n }
}

// Encode writes v to w in format f followed by a newline.  Undefined
// object fields are left out.
func Encode(w io.Writer, v *ir.Node, f Format, opts ...EncodeOption) error {
	d, err := EncodeBytes(v, f, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(d)
	return err
}

func EncodeBytes(v *ir.Node, f Format, opts ...EncodeOption) ([]byte, error) {
	o := &encOpts{}
	for _, opt := range opts {
		opt(o)
	}
	switch f {
	case JSONFormat:
		d, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		if o.indent > 0 {
			buf := bytes.NewBuffer(nil)
			if err := json.Indent(buf, d, "", fmt.Sprintf("%*s", o.indent, "")); err != nil {
				return nil, err
			}
			d = buf.Bytes()
		}
		return append(d, '\n'), nil
	case YAMLFormat:
		indent := 2
		if o.indent > 0 {
			indent = o.indent
		}
		return yaml.MarshalWithOptions(ToAny(v), yaml.Indent(indent), yaml.IndentSequence(true))
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadFormat, f)
	}
}

// ToAny converts v to plain Go values, with objects as yaml.MapSlice
// to keep their key order.
func ToAny(v *ir.Node) any {
	if v == nil {
		return nil
	}
	switch v.Type {
	case ir.NullType:
		return nil
	case ir.BoolType:
		return v.Bool
	case ir.StringType:
		return v.String
	case ir.NumberType:
		switch {
		case v.Int64 != nil:
			return *v.Int64
		case v.Float64 != nil:
			return *v.Float64
		default:
			if u, err := strconv.ParseUint(v.Number, 10, 64); err == nil {
				return u
			}
			f, _ := strconv.ParseFloat(v.Number, 64)
			return f
		}
	case ir.ArrayType:
		res := make([]any, len(v.Values))
		for i, x := range v.Values {
			res[i] = ToAny(x)
		}
		return res
	case ir.ObjectType:
		res := make(yaml.MapSlice, 0, len(v.Fields))
		for i, f := range v.Fields {
			if v.Values[i] == nil {
				continue
			}
			res = append(res, yaml.MapItem{Key: f, Value: ToAny(v.Values[i])})
		}
		return res
	}
	return nil
}

// ToPlain is ToAny with objects as maps, for consumers that need
// map[string]any such as expression environments.
func ToPlain(v *ir.Node) any {
	if v == nil {
		return nil
	}
	switch v.Type {
	case ir.ArrayType:
		res := make([]any, len(v.Values))
		for i, x := range v.Values {
			res[i] = ToPlain(x)
		}
		return res
	case ir.ObjectType:
		res := make(map[string]any, len(v.Fields))
		for i, f := range v.Fields {
			if v.Values[i] == nil {
				continue
			}
			res[f] = ToPlain(v.Values[i])
		}
		return res
	default:
		return ToAny(v)
	}
}

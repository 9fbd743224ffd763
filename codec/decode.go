package codec

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/signadot/tony-observe/ir"
)

// Decode parses a single document.  Object keys keep their document
// order.  JSON input is read with the YAML decoder, of which it is a
// subset.
func Decode(data []byte, f Format) (*ir.Node, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f, err)
	}
	return FromAny(v)
}

func DecodeReader(r io.Reader, f Format) (*ir.Node, error) {
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(d, f)
}

// MustDecode decodes a YAML literal; it panics on error.
func MustDecode(s string) *ir.Node {
	v, err := Decode([]byte(s), YAMLFormat)
	if err != nil {
		panic(err)
	}
	return v
}

// FromAny converts the result of a generic decode to a node.
func FromAny(v any) (*ir.Node, error) {
	switch x := v.(type) {
	case nil:
		return ir.Null(), nil
	case *ir.Node:
		return x, nil
	case bool:
		return ir.FromBool(x), nil
	case string:
		return ir.FromString(x), nil
	case int:
		return ir.FromInt(int64(x)), nil
	case int8:
		return ir.FromInt(int64(x)), nil
	case int16:
		return ir.FromInt(int64(x)), nil
	case int32:
		return ir.FromInt(int64(x)), nil
	case int64:
		return ir.FromInt(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return ir.FromInt(int64(x)), nil
	case uint16:
		return ir.FromInt(int64(x)), nil
	case uint32:
		return ir.FromInt(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return ir.FromFloat(float64(x)), nil
	case float64:
		return ir.FromFloat(x), nil
	case yaml.MapSlice:
		kvs := make([]ir.KeyVal, len(x))
		for i := range x {
			k, err := keyString(x[i].Key)
			if err != nil {
				return nil, err
			}
			val, err := FromAny(x[i].Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			kvs[i] = ir.KeyVal{Key: k, Val: val}
		}
		return ir.FromKeyVals(kvs), nil
	case map[string]any:
		m := make(map[string]*ir.Node, len(x))
		for k, xv := range x {
			val, err := FromAny(xv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = val
		}
		return ir.FromMap(m), nil
	case []any:
		vals := make([]*ir.Node, len(x))
		for i, xv := range x {
			val, err := FromAny(xv)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			vals[i] = val
		}
		return ir.FromSlice(vals), nil
	default:
		return nil, fmt.Errorf("cannot convert %T", v)
	}
}

func fromUint(u uint64) *ir.Node {
	if u <= math.MaxInt64 {
		return ir.FromInt(int64(u))
	}
	return &ir.Node{Type: ir.NumberType, Number: strconv.FormatUint(u, 10)}
}

func keyString(k any) (string, error) {
	switch x := k.(type) {
	case string:
		return x, nil
	case nil:
		return "null", nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(x), nil
	default:
		return "", fmt.Errorf("unsupported key type %T", k)
	}
}

package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// value is the sealed JSON value union the renderer builds before
// serialization. Keeping an explicit model instead of marshaling structs
// directly guarantees key order and number formatting never drift with
// encoding/json internals.
type value interface {
	jsonValue()
}

type jString string
type jInt int64
type jUint uint64
type jBool bool
type jFloat float64
type jArray []value
type jObject map[string]value

func (jString) jsonValue() {}
func (jInt) jsonValue()    {}
func (jUint) jsonValue()   {}
func (jBool) jsonValue()   {}
func (jFloat) jsonValue()  {}
func (jArray) jsonValue()  {}
func (jObject) jsonValue() {}

func marshalValue(v value) ([]byte, error) {
	switch val := v.(type) {
	case jString:
		return marshalString(string(val))
	case jInt:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case jUint:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case jBool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case jFloat:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite float %v cannot be rendered canonically", f)
		}
		// Shortest round-trip form keeps the rendering deterministic.
		return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
	case jArray:
		return marshalArray(val)
	case jObject:
		return marshalObject(val)
	case nil:
		return nil, fmt.Errorf("nil value cannot be rendered canonically")
	default:
		return nil, fmt.Errorf("unsupported canonical value %T", v)
	}
}

// marshalString emits a canonical JSON string: NFC-normalized, with HTML
// escaping disabled so <, >, and & pass through literally.
func marshalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

func marshalArray(arr jArray) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalObject(obj jObject) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range sortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortedKeys orders keys by UTF-16 code units as RFC 8785 requires. Go's
// native string ordering is UTF-8 and disagrees above the basic plane.
func sortedKeys(obj jObject) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

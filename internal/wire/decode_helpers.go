package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/plan"
)

// fields walks the fields of one message body. The callback sees the bytes
// immediately after the tag and reports how many it consumed. Unrecognized
// fields are the callback's responsibility; most decoders route them to skip.
func (d *decoder) fields(data []byte, path plan.Path, fn func(num protowire.Number, typ protowire.Type, data []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return d.malformed(path, "invalid field tag")
		}
		data = data[n:]
		m, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 || m > len(data) {
			return d.malformed(path, "field %d consumed out of bounds", num)
		}
		data = data[m:]
	}
	return nil
}

// skip consumes a field of any wire type without interpreting it. Unrecognized
// fields inside variant payload messages are tolerated so that newer producers
// can add scalar fields without breaking older consumers.
func (d *decoder) skip(data []byte, num protowire.Number, typ protowire.Type, path plan.Path) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, d.malformed(path, "invalid value for field %d", num)
	}
	return n, nil
}

func (d *decoder) varint(data []byte, typ protowire.Type, path plan.Path, field string) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, d.wireType(path, field, typ, protowire.VarintType)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, d.malformed(path, "invalid varint for %s", field)
	}
	return v, n, nil
}

func (d *decoder) fixed32(data []byte, typ protowire.Type, path plan.Path, field string) (uint32, int, error) {
	if typ != protowire.Fixed32Type {
		return 0, 0, d.wireType(path, field, typ, protowire.Fixed32Type)
	}
	v, n := protowire.ConsumeFixed32(data)
	if n < 0 {
		return 0, 0, &DecodeError{Code: CodeTruncated, Path: path, Message: fmt.Sprintf("short fixed32 for %s", field)}
	}
	return v, n, nil
}

func (d *decoder) fixed64(data []byte, typ protowire.Type, path plan.Path, field string) (uint64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, d.wireType(path, field, typ, protowire.Fixed64Type)
	}
	v, n := protowire.ConsumeFixed64(data)
	if n < 0 {
		return 0, 0, &DecodeError{Code: CodeTruncated, Path: path, Message: fmt.Sprintf("short fixed64 for %s", field)}
	}
	return v, n, nil
}

// bytesVal consumes a length-delimited field. The returned slice aliases the
// input buffer; callers that retain it past the decode call clone it first.
func (d *decoder) bytesVal(data []byte, typ protowire.Type, path plan.Path, field string) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, d.wireType(path, field, typ, protowire.BytesType)
	}
	b, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, &DecodeError{
			Code:    CodeTruncated,
			Path:    path,
			Message: fmt.Sprintf("length-delimited %s runs past end of buffer", field),
		}
	}
	return b, n, nil
}

func (d *decoder) stringVal(data []byte, typ protowire.Type, path plan.Path, field string) (string, int, error) {
	b, n, err := d.bytesVal(data, typ, path, field)
	if err != nil {
		return "", 0, err
	}
	return string(b), n, nil
}

// stringMapEntry decodes one map<string,string> entry message (key=1, value=2).
func (d *decoder) stringMapEntry(data []byte, typ protowire.Type, path plan.Path, field string) (string, string, int, error) {
	body, n, err := d.bytesVal(data, typ, path, field)
	if err != nil {
		return "", "", 0, err
	}
	var key, val string
	err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			s, m, err := d.stringVal(data, typ, path, field+".key")
			key = s
			return m, err
		case 2:
			s, m, err := d.stringVal(data, typ, path, field+".value")
			val = s
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	if err != nil {
		return "", "", 0, err
	}
	return key, val, n, nil
}

func (d *decoder) childRelation(data []byte, typ protowire.Type, depth int, path plan.Path, target **plan.Relation) (int, error) {
	body, n, err := d.bytesVal(data, typ, path, "relation")
	if err != nil {
		return 0, err
	}
	rel, err := d.relation(body, depth+1, path)
	if err != nil {
		return 0, err
	}
	*target = rel
	return n, nil
}

func (d *decoder) childExpression(data []byte, typ protowire.Type, depth int, path plan.Path) (expr.Expression, int, error) {
	body, n, err := d.bytesVal(data, typ, path, "expression")
	if err != nil {
		return nil, 0, err
	}
	ex, err := d.expression(body, depth+1, path)
	if err != nil {
		return nil, 0, err
	}
	return ex, n, nil
}

func (d *decoder) wireType(path plan.Path, field string, got, want protowire.Type) error {
	return &DecodeError{
		Code:    CodeWireType,
		Path:    path,
		Message: fmt.Sprintf("field %s has wire type %d, want %d", field, got, want),
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

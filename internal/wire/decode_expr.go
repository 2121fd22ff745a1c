package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/types"
)

func (d *decoder) expression(data []byte, depth int, path plan.Path) (expr.Expression, error) {
	if err := d.depthCheck(depth, path); err != nil {
		return nil, err
	}
	var out expr.Expression
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, d.malformed(path, "invalid field tag in expression")
		}
		data = data[n:]

		body, m, err := d.bytesVal(data, typ, path, "expr_type")
		if err != nil {
			return nil, err
		}
		data = data[m:]

		var variant expr.Expression
		switch num {
		case exprLiteralTag:
			lit, err := d.literal(body, depth+1, path.Child("literal", "value"))
			if err != nil {
				return nil, err
			}
			variant = &expr.Literal{Value: lit}
		case exprAttributeTag:
			attr := &expr.UnresolvedAttribute{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					s, m, err := d.stringVal(data, typ, path, "unparsed_identifier")
					attr.UnparsedIdentifier = s
					return m, err
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return nil, err
			}
			variant = attr
		case exprFunctionTag:
			fn := &expr.UnresolvedFunction{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					s, m, err := d.stringVal(data, typ, path, "parts")
					if err != nil {
						return 0, err
					}
					fn.Parts = append(fn.Parts, s)
					return m, nil
				case 2:
					argPath := path.ChildIndex("unresolved_function", "arguments", len(fn.Arguments))
					body, m, err := d.bytesVal(data, typ, path, "arguments")
					if err != nil {
						return 0, err
					}
					arg, err := d.expression(body, depth+1, argPath)
					if err != nil {
						return 0, err
					}
					fn.Arguments = append(fn.Arguments, arg)
					return m, nil
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return nil, err
			}
			variant = fn
		case exprStringTag:
			es := &expr.ExpressionString{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					s, m, err := d.stringVal(data, typ, path, "expression")
					es.Expression = s
					return m, err
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return nil, err
			}
			variant = es
		case exprStarTag:
			variant = &expr.UnresolvedStar{}
		case exprAliasTag:
			alias := &expr.Alias{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					body, m, err := d.bytesVal(data, typ, path, "expr")
					if err != nil {
						return 0, err
					}
					inner, err := d.expression(body, depth+1, path.Child("alias", "expr"))
					if err != nil {
						return 0, err
					}
					alias.Expr = inner
					return m, nil
				case 2:
					s, m, err := d.stringVal(data, typ, path, "name")
					if err != nil {
						return 0, err
					}
					alias.Name = append(alias.Name, s)
					return m, nil
				case 3:
					s, m, err := d.stringVal(data, typ, path, "metadata")
					if err != nil {
						return 0, err
					}
					alias.Metadata = &s
					return m, nil
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return nil, err
			}
			variant = alias
		default:
			return nil, &DecodeError{
				Code:    CodeUnsupportedVariant,
				Path:    path,
				Message: fmt.Sprintf("unrecognized expression variant tag %d", num),
			}
		}
		if out != nil {
			return nil, &DecodeError{
				Code:    CodeOneofMultiSet,
				Path:    path,
				Message: fmt.Sprintf("expression variants %s and %s both populated", expr.KindName(out), expr.KindName(variant)),
			}
		}
		out = variant
	}
	return out, nil
}

func (d *decoder) literal(data []byte, depth int, path plan.Path) (literal.Literal, error) {
	var lit literal.Literal
	if err := d.depthCheck(depth, path); err != nil {
		return lit, err
	}
	setValue := func(v literal.Value) error {
		if lit.Value != nil {
			return &DecodeError{
				Code:    CodeOneofMultiSet,
				Path:    path,
				Message: fmt.Sprintf("literal kinds %s and %s both populated", literal.KindName(lit.Value), literal.KindName(v)),
			}
		}
		lit.Value = v
		return nil
	}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case litBooleanTag:
			raw, m, err := d.varint(data, typ, path, "boolean")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.Boolean(raw != 0))
		case litI8Tag:
			raw, m, err := d.varint(data, typ, path, "i8")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.I8(int8(int64(raw))))
		case litI16Tag:
			raw, m, err := d.varint(data, typ, path, "i16")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.I16(int16(int64(raw))))
		case litI32Tag:
			raw, m, err := d.varint(data, typ, path, "i32")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.I32(int32(int64(raw))))
		case litI64Tag:
			raw, m, err := d.varint(data, typ, path, "i64")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.I64(int64(raw)))
		case litFP32Tag:
			raw, m, err := d.fixed32(data, typ, path, "fp32")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.FP32(math.Float32frombits(raw)))
		case litFP64Tag:
			raw, m, err := d.fixed64(data, typ, path, "fp64")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.FP64(math.Float64frombits(raw)))
		case litStringTag:
			s, m, err := d.stringVal(data, typ, path, "string")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.String(s))
		case litBinaryTag:
			b, m, err := d.bytesVal(data, typ, path, "binary")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.Binary(cloneBytes(b)))
		case litTimestampTag:
			raw, m, err := d.varint(data, typ, path, "timestamp")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.Timestamp(int64(raw)))
		case litDateTag:
			raw, m, err := d.varint(data, typ, path, "date")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.Date(int32(int64(raw))))
		case litTimeTag:
			raw, m, err := d.varint(data, typ, path, "time")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.Time(int64(raw)))
		case litIntervalYMTag:
			body, m, err := d.bytesVal(data, typ, path, "interval_year_to_month")
			if err != nil {
				return 0, err
			}
			iv := &literal.IntervalYearToMonth{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					raw, m, err := d.varint(data, typ, path, "years")
					iv.Years = int32(int64(raw))
					return m, err
				case 2:
					raw, m, err := d.varint(data, typ, path, "months")
					iv.Months = int32(int64(raw))
					return m, err
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(iv)
		case litIntervalDSTag:
			body, m, err := d.bytesVal(data, typ, path, "interval_day_to_second")
			if err != nil {
				return 0, err
			}
			iv := &literal.IntervalDayToSecond{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					raw, m, err := d.varint(data, typ, path, "days")
					iv.Days = int32(int64(raw))
					return m, err
				case 2:
					raw, m, err := d.varint(data, typ, path, "seconds")
					iv.Seconds = int32(int64(raw))
					return m, err
				case 3:
					raw, m, err := d.varint(data, typ, path, "microseconds")
					iv.Microseconds = int32(int64(raw))
					return m, err
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(iv)
		case litFixedCharTag:
			s, m, err := d.stringVal(data, typ, path, "fixed_char")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.FixedChar(s))
		case litVarCharTag:
			body, m, err := d.bytesVal(data, typ, path, "var_char")
			if err != nil {
				return 0, err
			}
			vc := &literal.VarChar{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					s, m, err := d.stringVal(data, typ, path, "value")
					vc.Value = s
					return m, err
				case 2:
					raw, m, err := d.varint(data, typ, path, "length")
					vc.Length = uint32(raw)
					return m, err
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(vc)
		case litFixedBinaryTag:
			b, m, err := d.bytesVal(data, typ, path, "fixed_binary")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.FixedBinary(cloneBytes(b)))
		case litDecimalTag:
			body, m, err := d.bytesVal(data, typ, path, "decimal")
			if err != nil {
				return 0, err
			}
			dec := &literal.Decimal{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					b, m, err := d.bytesVal(data, typ, path, "value")
					dec.Value = cloneBytes(b)
					return m, err
				case 2:
					raw, m, err := d.varint(data, typ, path, "precision")
					dec.Precision = int32(int64(raw))
					return m, err
				case 3:
					raw, m, err := d.varint(data, typ, path, "scale")
					dec.Scale = int32(int64(raw))
					return m, err
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(dec)
		case litStructTag:
			body, m, err := d.bytesVal(data, typ, path, "struct")
			if err != nil {
				return 0, err
			}
			st := &literal.Struct{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					fieldPath := path.ChildIndex("struct", "fields", len(st.Fields))
					body, m, err := d.bytesVal(data, typ, path, "fields")
					if err != nil {
						return 0, err
					}
					field, err := d.literal(body, depth+1, fieldPath)
					if err != nil {
						return 0, err
					}
					st.Fields = append(st.Fields, field)
					return m, nil
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(st)
		case litMapTag:
			body, m, err := d.bytesVal(data, typ, path, "map")
			if err != nil {
				return 0, err
			}
			mp := &literal.Map{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					entryPath := path.ChildIndex("map", "key_values", len(mp.Entries))
					body, m, err := d.bytesVal(data, typ, path, "key_values")
					if err != nil {
						return 0, err
					}
					entry := literal.MapEntry{}
					err = d.fields(body, entryPath, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
						switch num {
						case 1:
							body, m, err := d.bytesVal(data, typ, entryPath, "key")
							if err != nil {
								return 0, err
							}
							entry.Key, err = d.literal(body, depth+1, entryPath)
							return m, err
						case 2:
							body, m, err := d.bytesVal(data, typ, entryPath, "value")
							if err != nil {
								return 0, err
							}
							entry.Value, err = d.literal(body, depth+1, entryPath)
							return m, err
						default:
							return d.skip(data, num, typ, entryPath)
						}
					})
					if err != nil {
						return 0, err
					}
					mp.Entries = append(mp.Entries, entry)
					return m, nil
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(mp)
		case litTimestampTZTag:
			raw, m, err := d.varint(data, typ, path, "timestamp_tz")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.TimestampTZ(int64(raw)))
		case litUUIDTag:
			b, m, err := d.bytesVal(data, typ, path, "uuid")
			if err != nil {
				return 0, err
			}
			return m, setValue(literal.UUID(cloneBytes(b)))
		case litNullTag:
			body, m, err := d.bytesVal(data, typ, path, "null")
			if err != nil {
				return 0, err
			}
			t, err := d.dataType(body, depth+1, path.Child("null", "type"))
			if err != nil {
				return 0, err
			}
			return m, setValue(&literal.Null{Type: t})
		case litListTag:
			body, m, err := d.bytesVal(data, typ, path, "list")
			if err != nil {
				return 0, err
			}
			ls := &literal.List{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					elemPath := path.ChildIndex("list", "values", len(ls.Values))
					body, m, err := d.bytesVal(data, typ, path, "values")
					if err != nil {
						return 0, err
					}
					elem, err := d.literal(body, depth+1, elemPath)
					if err != nil {
						return 0, err
					}
					ls.Values = append(ls.Values, elem)
					return m, nil
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(ls)
		case litEmptyListTag:
			body, m, err := d.bytesVal(data, typ, path, "empty_list")
			if err != nil {
				return 0, err
			}
			lt, err := d.listType(body, depth+1, path.Child("empty_list", "element"))
			if err != nil {
				return 0, err
			}
			return m, setValue(&literal.EmptyList{Element: lt})
		case litEmptyMapTag:
			body, m, err := d.bytesVal(data, typ, path, "empty_map")
			if err != nil {
				return 0, err
			}
			mt, err := d.mapType(body, depth+1, path.Child("empty_map", "map"))
			if err != nil {
				return 0, err
			}
			return m, setValue(&literal.EmptyMap{Map: mt})
		case litUserDefinedTag:
			body, m, err := d.bytesVal(data, typ, path, "user_defined")
			if err != nil {
				return 0, err
			}
			ud := &literal.UserDefined{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					raw, m, err := d.varint(data, typ, path, "type_reference")
					ud.TypeReference = uint32(raw)
					return m, err
				case 2:
					b, m, err := d.bytesVal(data, typ, path, "value")
					ud.Payload = cloneBytes(b)
					return m, err
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return 0, err
			}
			return m, setValue(ud)
		case litNullableTag:
			raw, m, err := d.varint(data, typ, path, "nullable")
			lit.Nullable = raw != 0
			return m, err
		case litTypeVariationTag:
			raw, m, err := d.varint(data, typ, path, "type_variation_reference")
			lit.TypeVariationReference = uint32(raw)
			return m, err
		default:
			return 0, &DecodeError{
				Code:    CodeUnsupportedVariant,
				Path:    path,
				Message: fmt.Sprintf("unrecognized literal kind tag %d", num),
			}
		}
	})
	return lit, err
}

func (d *decoder) dataType(data []byte, depth int, path plan.Path) (types.DataType, error) {
	if err := d.depthCheck(depth, path); err != nil {
		return nil, err
	}
	var out types.DataType
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, d.malformed(path, "invalid field tag in data type")
		}
		data = data[n:]

		body, m, err := d.bytesVal(data, typ, path, "kind")
		if err != nil {
			return nil, err
		}
		data = data[m:]

		var kind types.DataType
		switch num {
		case typBoolTag:
			kind = types.Bool{}
		case typI8Tag:
			kind = types.I8{}
		case typI16Tag:
			kind = types.I16{}
		case typI32Tag:
			kind = types.I32{}
		case typI64Tag:
			kind = types.I64{}
		case typFP32Tag:
			kind = types.FP32{}
		case typFP64Tag:
			kind = types.FP64{}
		case typStringTag:
			kind = types.String{}
		case typBinaryTag:
			kind = types.Binary{}
		case typTimestampTag:
			kind = types.Timestamp{}
		case typTimestampTZTag:
			kind = types.TimestampTZ{}
		case typDateTag:
			kind = types.Date{}
		case typTimeTag:
			kind = types.Time{}
		case typIntervalYMTag:
			kind = types.IntervalYearToMonth{}
		case typIntervalDSTag:
			kind = types.IntervalDayToSecond{}
		case typUUIDTag:
			kind = types.UUID{}
		case typFixedCharTag:
			l, err := d.lengthType(body, path)
			if err != nil {
				return nil, err
			}
			kind = &types.FixedChar{Length: l}
		case typVarCharTag:
			l, err := d.lengthType(body, path)
			if err != nil {
				return nil, err
			}
			kind = &types.VarChar{Length: l}
		case typFixedBinaryTag:
			l, err := d.lengthType(body, path)
			if err != nil {
				return nil, err
			}
			kind = &types.FixedBinary{Length: l}
		case typDecimalTag:
			dec := &types.Decimal{}
			err := d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					raw, m, err := d.varint(data, typ, path, "precision")
					dec.Precision = int32(int64(raw))
					return m, err
				case 2:
					raw, m, err := d.varint(data, typ, path, "scale")
					dec.Scale = int32(int64(raw))
					return m, err
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return nil, err
			}
			kind = dec
		case typStructTag:
			st := &types.Struct{}
			err := d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					fieldPath := path.ChildIndex("struct", "fields", len(st.Fields))
					body, m, err := d.bytesVal(data, typ, path, "fields")
					if err != nil {
						return 0, err
					}
					field := types.Field{}
					err = d.fields(body, fieldPath, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
						switch num {
						case 1:
							s, m, err := d.stringVal(data, typ, fieldPath, "name")
							field.Name = s
							return m, err
						case 2:
							body, m, err := d.bytesVal(data, typ, fieldPath, "type")
							if err != nil {
								return 0, err
							}
							field.Type, err = d.dataType(body, depth+1, fieldPath)
							return m, err
						default:
							return d.skip(data, num, typ, fieldPath)
						}
					})
					if err != nil {
						return 0, err
					}
					st.Fields = append(st.Fields, field)
					return m, nil
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return nil, err
			}
			kind = st
		case typListTag:
			lt, err := d.listType(body, depth, path.Child("list", "element"))
			if err != nil {
				return nil, err
			}
			el := lt
			kind = &el
		case typMapTag:
			mt, err := d.mapType(body, depth, path.Child("map", "entry"))
			if err != nil {
				return nil, err
			}
			m := mt
			kind = &m
		case typUserDefinedTag:
			ud := &types.UserDefined{}
			err := d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					raw, m, err := d.varint(data, typ, path, "type_reference")
					ud.TypeReference = uint32(raw)
					return m, err
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return nil, err
			}
			kind = ud
		default:
			return nil, &DecodeError{
				Code:    CodeUnsupportedVariant,
				Path:    path,
				Message: fmt.Sprintf("unrecognized data type kind tag %d", num),
			}
		}
		if out != nil {
			return nil, &DecodeError{
				Code:    CodeOneofMultiSet,
				Path:    path,
				Message: fmt.Sprintf("data type kinds %s and %s both populated", types.Name(out), types.Name(kind)),
			}
		}
		out = kind
	}
	return out, nil
}

func (d *decoder) listType(data []byte, depth int, path plan.Path) (types.List, error) {
	lt := types.List{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num == 1 {
			body, m, err := d.bytesVal(data, typ, path, "element")
			if err != nil {
				return 0, err
			}
			lt.Element, err = d.dataType(body, depth+1, path)
			return m, err
		}
		return d.skip(data, num, typ, path)
	})
	return lt, err
}

func (d *decoder) mapType(data []byte, depth int, path plan.Path) (types.Map, error) {
	mt := types.Map{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			body, m, err := d.bytesVal(data, typ, path, "key")
			if err != nil {
				return 0, err
			}
			mt.Key, err = d.dataType(body, depth+1, path)
			return m, err
		case 2:
			body, m, err := d.bytesVal(data, typ, path, "value")
			if err != nil {
				return 0, err
			}
			mt.Value, err = d.dataType(body, depth+1, path)
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return mt, err
}

func (d *decoder) lengthType(data []byte, path plan.Path) (int32, error) {
	var length int32
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num == 1 {
			raw, m, err := d.varint(data, typ, path, "length")
			length = int32(int64(raw))
			return m, err
		}
		return d.skip(data, num, typ, path)
	})
	return length, err
}

package canonical

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/types"
)

// DomainPlan prefixes plan fingerprints. The version suffix leaves room for
// an algorithm migration without colliding with old identities.
const DomainPlan = "planwire/plan/v1"

// Marshal renders a relation tree as canonical JSON bytes.
func Marshal(rel *plan.Relation) ([]byte, error) {
	v, err := relationValue(rel)
	if err != nil {
		return nil, err
	}
	return marshalValue(v)
}

// Fingerprint computes the content-addressed identity of a plan:
// hex(SHA-256(domain + 0x00 + canonical bytes)). The null separator keeps
// the domain/data boundary unambiguous.
func Fingerprint(rel *plan.Relation) (string, error) {
	b, err := Marshal(rel)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainPlan))
	h.Write([]byte{0x00})
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func relationValue(rel *plan.Relation) (value, error) {
	if rel == nil {
		return nil, fmt.Errorf("nil relation")
	}
	obj := jObject{}
	if rel.Common != nil && rel.Common.SourceInfo != "" {
		obj["source_info"] = jString(rel.Common.SourceInfo)
	}
	if rel.Rel == nil {
		return nil, fmt.Errorf("relation has no variant populated")
	}
	body, err := variantValue(rel.Rel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel.Rel.Name(), err)
	}
	obj[rel.Rel.Name()] = body
	return obj, nil
}

func variantValue(rt plan.RelType) (value, error) {
	switch r := rt.(type) {
	case *plan.Read:
		obj := jObject{}
		if r.NamedTable != nil {
			obj["named_table"] = jObject{"unparsed_identifier": jString(r.NamedTable.UnparsedIdentifier)}
		}
		if r.DataSource != nil {
			ds := jObject{"format": jString(r.DataSource.Format)}
			if r.DataSource.Schema != "" {
				ds["schema"] = jString(r.DataSource.Schema)
			}
			if len(r.DataSource.Options) > 0 {
				opts := jObject{}
				for k, v := range r.DataSource.Options {
					opts[k] = jString(v)
				}
				ds["options"] = opts
			}
			obj["data_source"] = ds
		}
		return obj, nil
	case *plan.Project:
		obj := jObject{}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		if err := putExprs(obj, "expressions", r.Expressions); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.Filter:
		obj := jObject{}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		if err := putExpr(obj, "condition", r.Condition); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.Join:
		obj := jObject{"join_type": jString(r.JoinType.String())}
		if err := putChild(obj, "left", r.Left); err != nil {
			return nil, err
		}
		if err := putChild(obj, "right", r.Right); err != nil {
			return nil, err
		}
		if err := putExpr(obj, "join_condition", r.JoinCondition); err != nil {
			return nil, err
		}
		if len(r.UsingColumns) > 0 {
			obj["using_columns"] = stringArray(r.UsingColumns)
		}
		return obj, nil
	case *plan.SetOperation:
		obj := jObject{
			"set_op_type": jString(r.SetOpType.String()),
			"is_all":      jBool(r.IsAll),
			"by_name":     jBool(r.ByName),
		}
		if err := putChild(obj, "left_input", r.LeftInput); err != nil {
			return nil, err
		}
		if err := putChild(obj, "right_input", r.RightInput); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.Sort:
		obj := jObject{}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		fields := make(jArray, 0, len(r.SortFields))
		for i, sf := range r.SortFields {
			fv := jObject{
				"direction": jString(sf.Direction.String()),
				"nulls":     jString(sf.Nulls.String()),
			}
			if err := putExpr(fv, "expression", sf.Expression); err != nil {
				return nil, fmt.Errorf("sort_fields[%d]: %w", i, err)
			}
			fields = append(fields, fv)
		}
		obj["sort_fields"] = fields
		return obj, nil
	case *plan.Limit:
		obj := jObject{"limit": jInt(int64(r.Limit))}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.Offset:
		obj := jObject{"offset": jInt(int64(r.Offset))}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.Aggregate:
		obj := jObject{}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		if err := putExprs(obj, "grouping_expressions", r.GroupingExpressions); err != nil {
			return nil, err
		}
		if err := putExprs(obj, "result_expressions", r.ResultExpressions); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.SQL:
		return jObject{"query": jString(r.Query)}, nil
	case *plan.LocalRelation:
		obj := jObject{}
		attrs := make(jArray, 0, len(r.Attributes))
		for i, attr := range r.Attributes {
			av := jObject{"name": jString(attr.Name)}
			if attr.Type != nil {
				tv, err := dataTypeValue(attr.Type)
				if err != nil {
					return nil, fmt.Errorf("attributes[%d]: %w", i, err)
				}
				av["type"] = tv
			}
			attrs = append(attrs, av)
		}
		obj["attributes"] = attrs
		data := make(jArray, 0, len(r.Data))
		for i := range r.Data {
			lv, err := literalValue(&r.Data[i])
			if err != nil {
				return nil, fmt.Errorf("data[%d]: %w", i, err)
			}
			data = append(data, lv)
		}
		obj["data"] = data
		return obj, nil
	case *plan.Sample:
		obj := jObject{
			"lower_bound":      jFloat(r.LowerBound),
			"upper_bound":      jFloat(r.UpperBound),
			"with_replacement": jBool(r.WithReplacement),
		}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		if r.Seed != nil {
			obj["seed"] = jInt(*r.Seed)
		}
		return obj, nil
	case *plan.Range:
		obj := jObject{"step": jInt(r.Step)}
		if r.Start != nil {
			obj["start"] = jInt(*r.Start)
		}
		if r.End != nil {
			obj["end"] = jInt(*r.End)
		}
		if r.NumPartitions != nil {
			obj["num_partitions"] = jInt(int64(*r.NumPartitions))
		}
		return obj, nil
	case *plan.SubqueryAlias:
		obj := jObject{"alias": jString(r.Alias)}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		if len(r.Qualifier) > 0 {
			obj["qualifier"] = stringArray(r.Qualifier)
		}
		return obj, nil
	case *plan.Repartition:
		obj := jObject{
			"num_partitions": jInt(int64(r.NumPartitions)),
			"shuffle":        jBool(r.Shuffle),
		}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.RenameColumnsBySameLengthNames:
		obj := jObject{"column_names": stringArray(r.ColumnNames)}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.RenameColumnsByNameToNameMap:
		renames := jObject{}
		for from, to := range r.RenameColumnsMap {
			renames[from] = jString(to)
		}
		obj := jObject{"rename_columns_map": renames}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.ShowString:
		obj := jObject{
			"num_rows": jInt(int64(r.NumRows)),
			"truncate": jInt(int64(r.Truncate)),
			"vertical": jBool(r.Vertical),
		}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.NAFill:
		obj := jObject{}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		if len(r.Cols) > 0 {
			obj["cols"] = stringArray(r.Cols)
		}
		vals := make(jArray, 0, len(r.Values))
		for i := range r.Values {
			lv, err := literalValue(&r.Values[i])
			if err != nil {
				return nil, fmt.Errorf("values[%d]: %w", i, err)
			}
			vals = append(vals, lv)
		}
		obj["values"] = vals
		return obj, nil
	case *plan.StatSummary:
		obj := jObject{"statistics": stringArray(r.Statistics)}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.StatCrosstab:
		obj := jObject{
			"col1": jString(r.Col1),
			"col2": jString(r.Col2),
		}
		if err := putChild(obj, "input", r.Input); err != nil {
			return nil, err
		}
		return obj, nil
	case *plan.Unknown:
		return jObject{}, nil
	default:
		return nil, fmt.Errorf("unrenderable variant %T", rt)
	}
}

func putChild(obj jObject, field string, child *plan.Relation) error {
	if child == nil {
		return nil
	}
	v, err := relationValue(child)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	obj[field] = v
	return nil
}

func putExpr(obj jObject, field string, ex expr.Expression) error {
	if ex == nil {
		return nil
	}
	v, err := expressionValue(ex)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	obj[field] = v
	return nil
}

func putExprs(obj jObject, field string, exprs []expr.Expression) error {
	arr := make(jArray, 0, len(exprs))
	for i, ex := range exprs {
		v, err := expressionValue(ex)
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		arr = append(arr, v)
	}
	obj[field] = arr
	return nil
}

func stringArray(ss []string) jArray {
	arr := make(jArray, 0, len(ss))
	for _, s := range ss {
		arr = append(arr, jString(s))
	}
	return arr
}

func expressionValue(ex expr.Expression) (value, error) {
	switch e := ex.(type) {
	case *expr.Literal:
		v, err := literalValue(&e.Value)
		if err != nil {
			return nil, err
		}
		return jObject{"literal": v}, nil
	case *expr.UnresolvedAttribute:
		return jObject{"unresolved_attribute": jObject{
			"unparsed_identifier": jString(e.UnparsedIdentifier),
		}}, nil
	case *expr.UnresolvedFunction:
		obj := jObject{"parts": stringArray(e.Parts)}
		args := make(jArray, 0, len(e.Arguments))
		for i, arg := range e.Arguments {
			v, err := expressionValue(arg)
			if err != nil {
				return nil, fmt.Errorf("arguments[%d]: %w", i, err)
			}
			args = append(args, v)
		}
		obj["arguments"] = args
		return jObject{"unresolved_function": obj}, nil
	case *expr.ExpressionString:
		return jObject{"expression_string": jObject{
			"expression": jString(e.Expression),
		}}, nil
	case *expr.UnresolvedStar:
		return jObject{"unresolved_star": jObject{}}, nil
	case *expr.Alias:
		obj := jObject{"name": stringArray(e.Name)}
		if e.Expr != nil {
			v, err := expressionValue(e.Expr)
			if err != nil {
				return nil, fmt.Errorf("alias expr: %w", err)
			}
			obj["expr"] = v
		}
		if e.Metadata != nil {
			obj["metadata"] = jString(*e.Metadata)
		}
		return jObject{"alias": obj}, nil
	case nil:
		return nil, fmt.Errorf("expression has no variant populated")
	default:
		return nil, fmt.Errorf("unrenderable expression %T", ex)
	}
}

func literalValue(lit *literal.Literal) (value, error) {
	kind, err := literalKindValue(lit.Value)
	if err != nil {
		return nil, err
	}
	obj := jObject{literal.KindName(lit.Value): kind}
	if lit.Nullable {
		obj["nullable"] = jBool(true)
	}
	if lit.TypeVariationReference != 0 {
		obj["type_variation_reference"] = jUint(uint64(lit.TypeVariationReference))
	}
	return obj, nil
}

func literalKindValue(v literal.Value) (value, error) {
	switch val := v.(type) {
	case literal.Boolean:
		return jBool(bool(val)), nil
	case literal.I8:
		return jInt(int64(val)), nil
	case literal.I16:
		return jInt(int64(val)), nil
	case literal.I32:
		return jInt(int64(val)), nil
	case literal.I64:
		return jInt(int64(val)), nil
	case literal.FP32:
		return jFloat(float64(val)), nil
	case literal.FP64:
		return jFloat(float64(val)), nil
	case literal.String:
		return jString(string(val)), nil
	case literal.Binary:
		return base64Value(val), nil
	case literal.Timestamp:
		return jInt(int64(val)), nil
	case literal.TimestampTZ:
		return jInt(int64(val)), nil
	case literal.Date:
		return jInt(int64(val)), nil
	case literal.Time:
		return jInt(int64(val)), nil
	case literal.FixedChar:
		return jString(string(val)), nil
	case literal.FixedBinary:
		return base64Value(val), nil
	case literal.UUID:
		return base64Value(val), nil
	case *literal.VarChar:
		return jObject{
			"value":  jString(val.Value),
			"length": jUint(uint64(val.Length)),
		}, nil
	case *literal.IntervalYearToMonth:
		return jObject{
			"years":  jInt(int64(val.Years)),
			"months": jInt(int64(val.Months)),
		}, nil
	case *literal.IntervalDayToSecond:
		return jObject{
			"days":         jInt(int64(val.Days)),
			"seconds":      jInt(int64(val.Seconds)),
			"microseconds": jInt(int64(val.Microseconds)),
		}, nil
	case *literal.Decimal:
		return jObject{
			"value":     base64Value(val.Value),
			"precision": jInt(int64(val.Precision)),
			"scale":     jInt(int64(val.Scale)),
		}, nil
	case *literal.Struct:
		fields := make(jArray, 0, len(val.Fields))
		for i := range val.Fields {
			fv, err := literalValue(&val.Fields[i])
			if err != nil {
				return nil, fmt.Errorf("fields[%d]: %w", i, err)
			}
			fields = append(fields, fv)
		}
		return jObject{"fields": fields}, nil
	case *literal.List:
		vals := make(jArray, 0, len(val.Values))
		for i := range val.Values {
			lv, err := literalValue(&val.Values[i])
			if err != nil {
				return nil, fmt.Errorf("values[%d]: %w", i, err)
			}
			vals = append(vals, lv)
		}
		return jObject{"values": vals}, nil
	case *literal.Map:
		entries := make(jArray, 0, len(val.Entries))
		for i := range val.Entries {
			kv, err := literalValue(&val.Entries[i].Key)
			if err != nil {
				return nil, fmt.Errorf("key_values[%d]: %w", i, err)
			}
			vv, err := literalValue(&val.Entries[i].Value)
			if err != nil {
				return nil, fmt.Errorf("key_values[%d]: %w", i, err)
			}
			entries = append(entries, jObject{"key": kv, "value": vv})
		}
		return jObject{"key_values": entries}, nil
	case *literal.Null:
		tv, err := dataTypeValue(val.Type)
		if err != nil {
			return nil, err
		}
		return jObject{"type": tv}, nil
	case *literal.EmptyList:
		if val.Element.Element == nil {
			return jObject{}, nil
		}
		ev, err := dataTypeValue(val.Element.Element)
		if err != nil {
			return nil, err
		}
		return jObject{"element": ev}, nil
	case *literal.EmptyMap:
		obj := jObject{}
		if val.Map.Key != nil {
			kv, err := dataTypeValue(val.Map.Key)
			if err != nil {
				return nil, err
			}
			obj["key"] = kv
		}
		if val.Map.Value != nil {
			vv, err := dataTypeValue(val.Map.Value)
			if err != nil {
				return nil, err
			}
			obj["value"] = vv
		}
		return obj, nil
	case *literal.UserDefined:
		return jObject{
			"type_reference": jUint(uint64(val.TypeReference)),
			"value":          base64Value(val.Payload),
		}, nil
	case nil:
		return nil, fmt.Errorf("literal has no kind populated")
	default:
		return nil, fmt.Errorf("unrenderable literal kind %T", v)
	}
}

func dataTypeValue(t types.DataType) (value, error) {
	if t == nil {
		return nil, fmt.Errorf("nil data type")
	}
	switch v := t.(type) {
	case *types.FixedChar:
		return jObject{types.Name(t): jObject{"length": jInt(int64(v.Length))}}, nil
	case *types.VarChar:
		return jObject{types.Name(t): jObject{"length": jInt(int64(v.Length))}}, nil
	case *types.FixedBinary:
		return jObject{types.Name(t): jObject{"length": jInt(int64(v.Length))}}, nil
	case *types.Decimal:
		return jObject{types.Name(t): jObject{
			"precision": jInt(int64(v.Precision)),
			"scale":     jInt(int64(v.Scale)),
		}}, nil
	case *types.Struct:
		fields := make(jArray, 0, len(v.Fields))
		for i, f := range v.Fields {
			fv := jObject{"name": jString(f.Name)}
			if f.Type != nil {
				tv, err := dataTypeValue(f.Type)
				if err != nil {
					return nil, fmt.Errorf("fields[%d]: %w", i, err)
				}
				fv["type"] = tv
			}
			fields = append(fields, fv)
		}
		return jObject{types.Name(t): jObject{"fields": fields}}, nil
	case *types.List:
		obj := jObject{}
		if v.Element != nil {
			ev, err := dataTypeValue(v.Element)
			if err != nil {
				return nil, err
			}
			obj["element"] = ev
		}
		return jObject{types.Name(t): obj}, nil
	case *types.Map:
		obj := jObject{}
		if v.Key != nil {
			kv, err := dataTypeValue(v.Key)
			if err != nil {
				return nil, err
			}
			obj["key"] = kv
		}
		if v.Value != nil {
			vv, err := dataTypeValue(v.Value)
			if err != nil {
				return nil, err
			}
			obj["value"] = vv
		}
		return jObject{types.Name(t): obj}, nil
	case *types.UserDefined:
		return jObject{types.Name(t): jObject{
			"type_reference": jUint(uint64(v.TypeReference)),
		}}, nil
	default:
		return jObject{types.Name(t): jObject{}}, nil
	}
}

func base64Value(b []byte) jString {
	return jString(base64.StdEncoding.EncodeToString(b))
}

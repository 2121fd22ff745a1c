package wire

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/types"
)

// Encode serializes a relation tree to wire bytes. Field order is fixed
// ascending and map entries are emitted in sorted key order, so identical
// trees produce identical bytes.
//
// Encode fails on a node with no variant set and on trees nested past the
// depth ceiling; it performs no validation beyond that. Run the validator
// before shipping bytes to a consumer.
func Encode(rel *plan.Relation, opts ...Option) ([]byte, error) {
	e := &encoder{config: newConfig(opts)}
	if rel == nil {
		return nil, &EncodeError{Code: CodeMalformed, Path: nil, Message: "nil relation"}
	}
	return e.relationBody(rel, 1, nil)
}

type encoder struct {
	config config
}

func (e *encoder) depthCheck(depth int, path plan.Path) error {
	if depth > e.config.maxDepth {
		return &EncodeError{
			Code:    CodeDepthExceeded,
			Path:    path,
			Message: fmt.Sprintf("tree exceeds maximum depth %d", e.config.maxDepth),
		}
	}
	return nil
}

func (e *encoder) relationBody(rel *plan.Relation, depth int, path plan.Path) ([]byte, error) {
	if err := e.depthCheck(depth, path); err != nil {
		return nil, err
	}
	var b []byte
	if rel.Common != nil {
		var common []byte
		if rel.Common.SourceInfo != "" {
			common = appendStringField(common, 1, rel.Common.SourceInfo)
		}
		b = appendMessage(b, relCommonTag, common)
	}

	var (
		tag  protowire.Number
		body []byte
		err  error
	)
	switch v := rel.Rel.(type) {
	case *plan.Read:
		tag = relReadTag
		body, err = e.readBody(v, depth, path)
	case *plan.Project:
		tag = relProjectTag
		body, err = e.projectBody(v, depth, path)
	case *plan.Filter:
		tag = relFilterTag
		body, err = e.filterBody(v, depth, path)
	case *plan.Join:
		tag = relJoinTag
		body, err = e.joinBody(v, depth, path)
	case *plan.SetOperation:
		tag = relSetOpTag
		body, err = e.setOpBody(v, depth, path)
	case *plan.Sort:
		tag = relSortTag
		body, err = e.sortBody(v, depth, path)
	case *plan.Limit:
		tag = relLimitTag
		body, err = e.limitBody(v, depth, path)
	case *plan.Offset:
		tag = relOffsetTag
		body, err = e.offsetBody(v, depth, path)
	case *plan.Aggregate:
		tag = relAggregateTag
		body, err = e.aggregateBody(v, depth, path)
	case *plan.SQL:
		tag = relSQLTag
		if v.Query != "" {
			body = appendStringField(body, 1, v.Query)
		}
	case *plan.LocalRelation:
		tag = relLocalTag
		body, err = e.localRelationBody(v, depth, path)
	case *plan.Sample:
		tag = relSampleTag
		body, err = e.sampleBody(v, depth, path)
	case *plan.Range:
		tag = relRangeTag
		body = e.rangeBody(v)
	case *plan.SubqueryAlias:
		tag = relSubqueryTag
		body, err = e.subqueryAliasBody(v, depth, path)
	case *plan.Repartition:
		tag = relRepartitionTag
		body, err = e.repartitionBody(v, depth, path)
	case *plan.RenameColumnsBySameLengthNames:
		tag = relRenameSameTag
		body, err = e.renameSameBody(v, depth, path)
	case *plan.RenameColumnsByNameToNameMap:
		tag = relRenameMapTag
		body, err = e.renameMapBody(v, depth, path)
	case *plan.ShowString:
		tag = relShowStringTag
		body, err = e.showStringBody(v, depth, path)
	case *plan.NAFill:
		tag = relFillNATag
		body, err = e.naFillBody(v, depth, path)
	case *plan.StatSummary:
		tag = relSummaryTag
		body, err = e.statSummaryBody(v, depth, path)
	case *plan.StatCrosstab:
		tag = relCrosstabTag
		body, err = e.statCrosstabBody(v, depth, path)
	case *plan.Unknown:
		tag = relUnknownTag
	case nil:
		return nil, &EncodeError{Code: CodeMalformed, Path: path, Message: "relation has no variant set"}
	default:
		return nil, &EncodeError{Code: CodeUnsupportedVariant, Path: path, Message: fmt.Sprintf("unencodable relation variant %T", rel.Rel)}
	}
	if err != nil {
		return nil, err
	}
	return appendMessage(b, tag, body), nil
}

func (e *encoder) childRelation(b []byte, num protowire.Number, child *plan.Relation, depth int, path plan.Path) ([]byte, error) {
	if child == nil {
		return b, nil
	}
	body, err := e.relationBody(child, depth+1, path)
	if err != nil {
		return nil, err
	}
	return appendMessage(b, num, body), nil
}

func (e *encoder) childExpression(b []byte, num protowire.Number, ex expr.Expression, depth int, path plan.Path) ([]byte, error) {
	if ex == nil {
		return b, nil
	}
	body, err := e.expressionBody(ex, depth+1, path)
	if err != nil {
		return nil, err
	}
	return appendMessage(b, num, body), nil
}

func (e *encoder) readBody(v *plan.Read, depth int, path plan.Path) ([]byte, error) {
	var b []byte
	if v.NamedTable != nil {
		var nt []byte
		if v.NamedTable.UnparsedIdentifier != "" {
			nt = appendStringField(nt, 1, v.NamedTable.UnparsedIdentifier)
		}
		b = appendMessage(b, 1, nt)
	}
	if v.DataSource != nil {
		var ds []byte
		if v.DataSource.Format != "" {
			ds = appendStringField(ds, 1, v.DataSource.Format)
		}
		if v.DataSource.Schema != "" {
			ds = appendStringField(ds, 2, v.DataSource.Schema)
		}
		ds = appendStringMap(ds, 3, v.DataSource.Options)
		b = appendMessage(b, 2, ds)
	}
	return b, nil
}

func (e *encoder) projectBody(v *plan.Project, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	for i, ex := range v.Expressions {
		b, err = e.childExpression(b, 3, ex, depth, path.ChildIndex(v.Name(), "expressions", i))
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (e *encoder) filterBody(v *plan.Filter, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	return e.childExpression(b, 2, v.Condition, depth, path.Child(v.Name(), "condition"))
}

func (e *encoder) joinBody(v *plan.Join, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Left, depth, path.Child(v.Name(), "left"))
	if err != nil {
		return nil, err
	}
	b, err = e.childRelation(b, 2, v.Right, depth, path.Child(v.Name(), "right"))
	if err != nil {
		return nil, err
	}
	b, err = e.childExpression(b, 3, v.JoinCondition, depth, path.Child(v.Name(), "join_condition"))
	if err != nil {
		return nil, err
	}
	if v.JoinType != plan.JoinTypeUnspecified {
		b = appendVarintField(b, 4, uint64(v.JoinType))
	}
	for _, col := range v.UsingColumns {
		b = appendStringField(b, 5, col)
	}
	return b, nil
}

func (e *encoder) setOpBody(v *plan.SetOperation, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.LeftInput, depth, path.Child(v.Name(), "left_input"))
	if err != nil {
		return nil, err
	}
	b, err = e.childRelation(b, 2, v.RightInput, depth, path.Child(v.Name(), "right_input"))
	if err != nil {
		return nil, err
	}
	if v.SetOpType != plan.SetOpTypeUnspecified {
		b = appendVarintField(b, 3, uint64(v.SetOpType))
	}
	if v.IsAll {
		b = appendVarintField(b, 4, 1)
	}
	if v.ByName {
		b = appendVarintField(b, 5, 1)
	}
	return b, nil
}

func (e *encoder) sortBody(v *plan.Sort, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	for i, sf := range v.SortFields {
		fieldPath := path.ChildIndex(v.Name(), "sort_fields", i)
		var body []byte
		body, err = e.childExpression(nil, 1, sf.Expression, depth, fieldPath)
		if err != nil {
			return nil, err
		}
		if sf.Direction != plan.SortDirectionUnspecified {
			body = appendVarintField(body, 2, uint64(sf.Direction))
		}
		if sf.Nulls != plan.NullOrderingUnspecified {
			body = appendVarintField(body, 3, uint64(sf.Nulls))
		}
		b = appendMessage(b, 2, body)
	}
	return b, nil
}

func (e *encoder) limitBody(v *plan.Limit, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	if v.Limit != 0 {
		b = appendInt32Field(b, 2, v.Limit)
	}
	return b, nil
}

func (e *encoder) offsetBody(v *plan.Offset, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	if v.Offset != 0 {
		b = appendInt32Field(b, 2, v.Offset)
	}
	return b, nil
}

func (e *encoder) aggregateBody(v *plan.Aggregate, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	for i, ex := range v.GroupingExpressions {
		b, err = e.childExpression(b, 2, ex, depth, path.ChildIndex(v.Name(), "grouping_expressions", i))
		if err != nil {
			return nil, err
		}
	}
	for i, ex := range v.ResultExpressions {
		b, err = e.childExpression(b, 3, ex, depth, path.ChildIndex(v.Name(), "result_expressions", i))
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (e *encoder) localRelationBody(v *plan.LocalRelation, depth int, path plan.Path) ([]byte, error) {
	var b []byte
	for i, attr := range v.Attributes {
		attrPath := path.ChildIndex(v.Name(), "attributes", i)
		var body []byte
		if attr.Name != "" {
			body = appendStringField(body, 1, attr.Name)
		}
		if attr.Type != nil {
			typ, err := e.dataTypeBody(attr.Type, depth+1, attrPath)
			if err != nil {
				return nil, err
			}
			body = appendMessage(body, 2, typ)
		}
		b = appendMessage(b, 1, body)
	}
	for i := range v.Data {
		body, err := e.literalBody(&v.Data[i], depth+1, path.ChildIndex(v.Name(), "data", i))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 2, body)
	}
	return b, nil
}

func (e *encoder) sampleBody(v *plan.Sample, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	if v.LowerBound != 0 {
		b = appendFixed64Field(b, 2, math.Float64bits(v.LowerBound))
	}
	if v.UpperBound != 0 {
		b = appendFixed64Field(b, 3, math.Float64bits(v.UpperBound))
	}
	if v.WithReplacement {
		b = appendVarintField(b, 4, 1)
	}
	if v.Seed != nil {
		b = appendInt64Field(b, 5, *v.Seed)
	}
	return b, nil
}

func (e *encoder) rangeBody(v *plan.Range) []byte {
	var b []byte
	if v.Start != nil {
		b = appendInt64Field(b, 1, *v.Start)
	}
	if v.End != nil {
		b = appendInt64Field(b, 2, *v.End)
	}
	if v.Step != 0 {
		b = appendInt64Field(b, 3, v.Step)
	}
	if v.NumPartitions != nil {
		b = appendInt32Field(b, 4, *v.NumPartitions)
	}
	return b
}

func (e *encoder) subqueryAliasBody(v *plan.SubqueryAlias, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	if v.Alias != "" {
		b = appendStringField(b, 2, v.Alias)
	}
	for _, q := range v.Qualifier {
		b = appendStringField(b, 3, q)
	}
	return b, nil
}

func (e *encoder) repartitionBody(v *plan.Repartition, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	if v.NumPartitions != 0 {
		b = appendInt32Field(b, 2, v.NumPartitions)
	}
	if v.Shuffle {
		b = appendVarintField(b, 3, 1)
	}
	return b, nil
}

func (e *encoder) renameSameBody(v *plan.RenameColumnsBySameLengthNames, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	for _, name := range v.ColumnNames {
		b = appendStringField(b, 2, name)
	}
	return b, nil
}

func (e *encoder) renameMapBody(v *plan.RenameColumnsByNameToNameMap, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	return appendStringMap(b, 2, v.RenameColumnsMap), nil
}

func (e *encoder) showStringBody(v *plan.ShowString, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	if v.NumRows != 0 {
		b = appendInt32Field(b, 2, v.NumRows)
	}
	if v.Truncate != 0 {
		b = appendInt32Field(b, 3, v.Truncate)
	}
	if v.Vertical {
		b = appendVarintField(b, 4, 1)
	}
	return b, nil
}

func (e *encoder) naFillBody(v *plan.NAFill, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	for _, col := range v.Cols {
		b = appendStringField(b, 2, col)
	}
	for i := range v.Values {
		body, err := e.literalBody(&v.Values[i], depth+1, path.ChildIndex(v.Name(), "values", i))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 3, body)
	}
	return b, nil
}

func (e *encoder) statSummaryBody(v *plan.StatSummary, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	for _, s := range v.Statistics {
		b = appendStringField(b, 2, s)
	}
	return b, nil
}

func (e *encoder) statCrosstabBody(v *plan.StatCrosstab, depth int, path plan.Path) ([]byte, error) {
	b, err := e.childRelation(nil, 1, v.Input, depth, path.Child(v.Name(), "input"))
	if err != nil {
		return nil, err
	}
	if v.Col1 != "" {
		b = appendStringField(b, 2, v.Col1)
	}
	if v.Col2 != "" {
		b = appendStringField(b, 3, v.Col2)
	}
	return b, nil
}

func (e *encoder) expressionBody(ex expr.Expression, depth int, path plan.Path) ([]byte, error) {
	if err := e.depthCheck(depth, path); err != nil {
		return nil, err
	}
	var b []byte
	switch v := ex.(type) {
	case *expr.Literal:
		body, err := e.literalBody(&v.Value, depth+1, path.Child("literal", "value"))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, exprLiteralTag, body)
	case *expr.UnresolvedAttribute:
		var body []byte
		if v.UnparsedIdentifier != "" {
			body = appendStringField(body, 1, v.UnparsedIdentifier)
		}
		b = appendMessage(b, exprAttributeTag, body)
	case *expr.UnresolvedFunction:
		var body []byte
		for _, part := range v.Parts {
			body = appendStringField(body, 1, part)
		}
		for i, arg := range v.Arguments {
			argPath := path.ChildIndex("unresolved_function", "arguments", i)
			if arg == nil {
				continue
			}
			argBody, err := e.expressionBody(arg, depth+1, argPath)
			if err != nil {
				return nil, err
			}
			body = appendMessage(body, 2, argBody)
		}
		b = appendMessage(b, exprFunctionTag, body)
	case *expr.ExpressionString:
		var body []byte
		if v.Expression != "" {
			body = appendStringField(body, 1, v.Expression)
		}
		b = appendMessage(b, exprStringTag, body)
	case *expr.UnresolvedStar:
		b = appendMessage(b, exprStarTag, nil)
	case *expr.Alias:
		var body []byte
		if v.Expr != nil {
			inner, err := e.expressionBody(v.Expr, depth+1, path.Child("alias", "expr"))
			if err != nil {
				return nil, err
			}
			body = appendMessage(body, 1, inner)
		}
		for _, name := range v.Name {
			body = appendStringField(body, 2, name)
		}
		if v.Metadata != nil {
			body = appendStringField(body, 3, *v.Metadata)
		}
		b = appendMessage(b, exprAliasTag, body)
	case nil:
		return nil, &EncodeError{Code: CodeMalformed, Path: path, Message: "expression has no variant set"}
	default:
		return nil, &EncodeError{Code: CodeUnsupportedVariant, Path: path, Message: fmt.Sprintf("unencodable expression variant %T", ex)}
	}
	return b, nil
}

func (e *encoder) literalBody(lit *literal.Literal, depth int, path plan.Path) ([]byte, error) {
	if err := e.depthCheck(depth, path); err != nil {
		return nil, err
	}
	var b []byte
	switch v := lit.Value.(type) {
	case literal.Boolean:
		b = appendVarintField(b, litBooleanTag, boolBit(bool(v)))
	case literal.I8:
		b = appendInt64Field(b, litI8Tag, int64(v))
	case literal.I16:
		b = appendInt64Field(b, litI16Tag, int64(v))
	case literal.I32:
		b = appendInt64Field(b, litI32Tag, int64(v))
	case literal.I64:
		b = appendInt64Field(b, litI64Tag, int64(v))
	case literal.FP32:
		b = appendFixed32Field(b, litFP32Tag, math.Float32bits(float32(v)))
	case literal.FP64:
		b = appendFixed64Field(b, litFP64Tag, math.Float64bits(float64(v)))
	case literal.String:
		b = appendStringField(b, litStringTag, string(v))
	case literal.Binary:
		b = appendBytesField(b, litBinaryTag, v)
	case literal.Timestamp:
		b = appendInt64Field(b, litTimestampTag, int64(v))
	case literal.Date:
		b = appendInt64Field(b, litDateTag, int64(v))
	case literal.Time:
		b = appendInt64Field(b, litTimeTag, int64(v))
	case *literal.IntervalYearToMonth:
		var body []byte
		if v.Years != 0 {
			body = appendInt32Field(body, 1, v.Years)
		}
		if v.Months != 0 {
			body = appendInt32Field(body, 2, v.Months)
		}
		b = appendMessage(b, litIntervalYMTag, body)
	case *literal.IntervalDayToSecond:
		var body []byte
		if v.Days != 0 {
			body = appendInt32Field(body, 1, v.Days)
		}
		if v.Seconds != 0 {
			body = appendInt32Field(body, 2, v.Seconds)
		}
		if v.Microseconds != 0 {
			body = appendInt32Field(body, 3, v.Microseconds)
		}
		b = appendMessage(b, litIntervalDSTag, body)
	case literal.FixedChar:
		b = appendStringField(b, litFixedCharTag, string(v))
	case *literal.VarChar:
		var body []byte
		if v.Value != "" {
			body = appendStringField(body, 1, v.Value)
		}
		if v.Length != 0 {
			body = appendVarintField(body, 2, uint64(v.Length))
		}
		b = appendMessage(b, litVarCharTag, body)
	case literal.FixedBinary:
		b = appendBytesField(b, litFixedBinaryTag, v)
	case *literal.Decimal:
		var body []byte
		body = appendBytesField(body, 1, v.Value)
		if v.Precision != 0 {
			body = appendInt32Field(body, 2, v.Precision)
		}
		if v.Scale != 0 {
			body = appendInt32Field(body, 3, v.Scale)
		}
		b = appendMessage(b, litDecimalTag, body)
	case *literal.Struct:
		var body []byte
		for i := range v.Fields {
			fieldBody, err := e.literalBody(&v.Fields[i], depth+1, path.ChildIndex("struct", "fields", i))
			if err != nil {
				return nil, err
			}
			body = appendMessage(body, 1, fieldBody)
		}
		b = appendMessage(b, litStructTag, body)
	case *literal.Map:
		var body []byte
		for i := range v.Entries {
			entryPath := path.ChildIndex("map", "key_values", i)
			keyBody, err := e.literalBody(&v.Entries[i].Key, depth+1, entryPath)
			if err != nil {
				return nil, err
			}
			valBody, err := e.literalBody(&v.Entries[i].Value, depth+1, entryPath)
			if err != nil {
				return nil, err
			}
			var entry []byte
			entry = appendMessage(entry, 1, keyBody)
			entry = appendMessage(entry, 2, valBody)
			body = appendMessage(body, 1, entry)
		}
		b = appendMessage(b, litMapTag, body)
	case literal.TimestampTZ:
		b = appendInt64Field(b, litTimestampTZTag, int64(v))
	case literal.UUID:
		b = appendBytesField(b, litUUIDTag, v)
	case *literal.Null:
		body, err := e.dataTypeBody(v.Type, depth+1, path.Child("null", "type"))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, litNullTag, body)
	case *literal.List:
		var body []byte
		for i := range v.Values {
			elemBody, err := e.literalBody(&v.Values[i], depth+1, path.ChildIndex("list", "values", i))
			if err != nil {
				return nil, err
			}
			body = appendMessage(body, 1, elemBody)
		}
		b = appendMessage(b, litListTag, body)
	case *literal.EmptyList:
		body, err := e.listTypeBody(&v.Element, depth+1, path.Child("empty_list", "element"))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, litEmptyListTag, body)
	case *literal.EmptyMap:
		body, err := e.mapTypeBody(&v.Map, depth+1, path.Child("empty_map", "map"))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, litEmptyMapTag, body)
	case *literal.UserDefined:
		var body []byte
		if v.TypeReference != 0 {
			body = appendVarintField(body, 1, uint64(v.TypeReference))
		}
		if len(v.Payload) > 0 {
			body = appendBytesField(body, 2, v.Payload)
		}
		b = appendMessage(b, litUserDefinedTag, body)
	case nil:
		return nil, &EncodeError{Code: CodeMalformed, Path: path, Message: "literal has no kind set"}
	default:
		return nil, &EncodeError{Code: CodeUnsupportedVariant, Path: path, Message: fmt.Sprintf("unencodable literal kind %T", lit.Value)}
	}
	if lit.Nullable {
		b = appendVarintField(b, litNullableTag, 1)
	}
	if lit.TypeVariationReference != 0 {
		b = appendVarintField(b, litTypeVariationTag, uint64(lit.TypeVariationReference))
	}
	return b, nil
}

func (e *encoder) listTypeBody(t *types.List, depth int, path plan.Path) ([]byte, error) {
	if t.Element == nil {
		return nil, nil
	}
	elem, err := e.dataTypeBody(t.Element, depth+1, path)
	if err != nil {
		return nil, err
	}
	return appendMessage(nil, 1, elem), nil
}

func (e *encoder) mapTypeBody(t *types.Map, depth int, path plan.Path) ([]byte, error) {
	var b []byte
	if t.Key != nil {
		key, err := e.dataTypeBody(t.Key, depth+1, path)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 1, key)
	}
	if t.Value != nil {
		val, err := e.dataTypeBody(t.Value, depth+1, path)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 2, val)
	}
	return b, nil
}

func (e *encoder) dataTypeBody(t types.DataType, depth int, path plan.Path) ([]byte, error) {
	if err := e.depthCheck(depth, path); err != nil {
		return nil, err
	}
	var b []byte
	switch v := t.(type) {
	case types.Bool:
		b = appendMessage(b, typBoolTag, nil)
	case types.I8:
		b = appendMessage(b, typI8Tag, nil)
	case types.I16:
		b = appendMessage(b, typI16Tag, nil)
	case types.I32:
		b = appendMessage(b, typI32Tag, nil)
	case types.I64:
		b = appendMessage(b, typI64Tag, nil)
	case types.FP32:
		b = appendMessage(b, typFP32Tag, nil)
	case types.FP64:
		b = appendMessage(b, typFP64Tag, nil)
	case types.String:
		b = appendMessage(b, typStringTag, nil)
	case types.Binary:
		b = appendMessage(b, typBinaryTag, nil)
	case types.Timestamp:
		b = appendMessage(b, typTimestampTag, nil)
	case types.TimestampTZ:
		b = appendMessage(b, typTimestampTZTag, nil)
	case types.Date:
		b = appendMessage(b, typDateTag, nil)
	case types.Time:
		b = appendMessage(b, typTimeTag, nil)
	case types.IntervalYearToMonth:
		b = appendMessage(b, typIntervalYMTag, nil)
	case types.IntervalDayToSecond:
		b = appendMessage(b, typIntervalDSTag, nil)
	case types.UUID:
		b = appendMessage(b, typUUIDTag, nil)
	case *types.FixedChar:
		b = appendMessage(b, typFixedCharTag, lengthBody(v.Length))
	case *types.VarChar:
		b = appendMessage(b, typVarCharTag, lengthBody(v.Length))
	case *types.FixedBinary:
		b = appendMessage(b, typFixedBinaryTag, lengthBody(v.Length))
	case *types.Decimal:
		var body []byte
		if v.Precision != 0 {
			body = appendInt32Field(body, 1, v.Precision)
		}
		if v.Scale != 0 {
			body = appendInt32Field(body, 2, v.Scale)
		}
		b = appendMessage(b, typDecimalTag, body)
	case *types.Struct:
		var body []byte
		for i, f := range v.Fields {
			var field []byte
			if f.Name != "" {
				field = appendStringField(field, 1, f.Name)
			}
			if f.Type != nil {
				ft, err := e.dataTypeBody(f.Type, depth+1, path.ChildIndex("struct", "fields", i))
				if err != nil {
					return nil, err
				}
				field = appendMessage(field, 2, ft)
			}
			body = appendMessage(body, 1, field)
		}
		b = appendMessage(b, typStructTag, body)
	case *types.List:
		body, err := e.listTypeBody(v, depth, path.Child("list", "element"))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, typListTag, body)
	case *types.Map:
		body, err := e.mapTypeBody(v, depth, path.Child("map", "entry"))
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, typMapTag, body)
	case *types.UserDefined:
		var body []byte
		if v.TypeReference != 0 {
			body = appendVarintField(body, 1, uint64(v.TypeReference))
		}
		b = appendMessage(b, typUserDefinedTag, body)
	case nil:
		return nil, &EncodeError{Code: CodeMalformed, Path: path, Message: "data type has no kind set"}
	default:
		return nil, &EncodeError{Code: CodeUnsupportedVariant, Path: path, Message: fmt.Sprintf("unencodable data type %T", t)}
	}
	return b, nil
}

func lengthBody(n int32) []byte {
	if n == 0 {
		return nil
	}
	return appendInt32Field(nil, 1, n)
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt64Field(b []byte, num protowire.Number, v int64) []byte {
	return appendVarintField(b, num, uint64(v))
}

func appendInt32Field(b []byte, num protowire.Number, v int32) []byte {
	return appendVarintField(b, num, uint64(int64(v)))
}

func appendFixed32Field(b []byte, num protowire.Number, v uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, v)
}

func appendFixed64Field(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// appendStringMap emits map entries in sorted key order so identical maps
// produce identical bytes.
func appendStringMap(b []byte, num protowire.Number, m map[string]string) []byte {
	if len(m) == 0 {
		return b
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendStringField(entry, 1, k)
		entry = appendStringField(entry, 2, m[k])
		b = appendMessage(b, num, entry)
	}
	return b
}

func boolBit(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

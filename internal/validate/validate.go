package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
)

const (
	maxDecimalPrecision = 38
	decimalWidth        = 16
	uuidWidth           = 16
)

// Validate walks the relation tree once and reports the first invariant
// violation found, or nil when the tree is fit for a downstream consumer.
func Validate(rel *plan.Relation, opts ...Option) error {
	v := &validator{config: newConfig(opts)}
	return v.relation(rel, 1, nil)
}

type validator struct {
	config config
}

func (v *validator) depthCheck(depth int, path plan.Path) error {
	if depth > v.config.maxDepth {
		return &Error{
			Code:    CodeDepthExceeded,
			Path:    path,
			Message: fmt.Sprintf("tree nests deeper than maximum depth %d", v.config.maxDepth),
		}
	}
	return nil
}

func (v *validator) relation(rel *plan.Relation, depth int, path plan.Path) error {
	if err := v.depthCheck(depth, path); err != nil {
		return err
	}
	if rel == nil || rel.Rel == nil {
		return &Error{Code: CodeOneofUnset, Path: path, Message: "relation has no variant populated"}
	}

	switch r := rel.Rel.(type) {
	case *plan.Read:
		return v.read(r, path)
	case *plan.Project:
		// Input is optional: a nil child is a constant-only projection.
		if r.Input != nil {
			if err := v.relation(r.Input, depth+1, path.Child(r.Name(), "input")); err != nil {
				return err
			}
		}
		for i, ex := range r.Expressions {
			if err := v.expression(ex, depth+1, path.ChildIndex(r.Name(), "expressions", i)); err != nil {
				return err
			}
		}
		return nil
	case *plan.Filter:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		if r.Condition == nil {
			return &Error{Code: CodeStructural, Path: path, Message: "filter requires a condition"}
		}
		return v.expression(r.Condition, depth+1, path.Child(r.Name(), "condition"))
	case *plan.Join:
		return v.join(r, depth, path)
	case *plan.SetOperation:
		if err := v.requireChild(r.LeftInput, depth, path, r.Name(), "left_input"); err != nil {
			return err
		}
		if err := v.requireChild(r.RightInput, depth, path, r.Name(), "right_input"); err != nil {
			return err
		}
		switch r.SetOpType {
		case plan.SetOpTypeIntersect, plan.SetOpTypeUnion, plan.SetOpTypeExcept:
			return nil
		default:
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("set_op_type %d is not a recognized operation", r.SetOpType)}
		}
	case *plan.Sort:
		return v.sort(r, depth, path)
	case *plan.Limit:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		if r.Limit < 0 {
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("limit %d is negative", r.Limit)}
		}
		return nil
	case *plan.Offset:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		if r.Offset < 0 {
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("offset %d is negative", r.Offset)}
		}
		return nil
	case *plan.Aggregate:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		for i, ex := range r.GroupingExpressions {
			if err := v.expression(ex, depth+1, path.ChildIndex(r.Name(), "grouping_expressions", i)); err != nil {
				return err
			}
		}
		for i, ex := range r.ResultExpressions {
			if err := v.expression(ex, depth+1, path.ChildIndex(r.Name(), "result_expressions", i)); err != nil {
				return err
			}
		}
		return nil
	case *plan.SQL:
		if r.Query == "" {
			return &Error{Code: CodeStructural, Path: path, Message: "sql requires a query string"}
		}
		return nil
	case *plan.LocalRelation:
		return v.localRelation(r, depth, path)
	case *plan.Sample:
		return v.sample(r, depth, path)
	case *plan.Range:
		return v.rangeRel(r, path)
	case *plan.SubqueryAlias:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		if r.Alias == "" {
			return &Error{Code: CodeStructural, Path: path, Message: "subquery_alias requires an alias"}
		}
		return nil
	case *plan.Repartition:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		if r.NumPartitions <= 0 {
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("num_partitions %d is not positive", r.NumPartitions)}
		}
		return nil
	case *plan.RenameColumnsBySameLengthNames:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		// The positional list must match the input's resolved column count;
		// the schema lives with the analyzer, so only emptiness is checked.
		if len(r.ColumnNames) == 0 {
			return &Error{Code: CodeArity, Path: path, Message: "positional rename requires at least one column name"}
		}
		return nil
	case *plan.RenameColumnsByNameToNameMap:
		return v.renameMap(r, depth, path)
	case *plan.ShowString:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		if r.NumRows < 0 {
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("num_rows %d is negative", r.NumRows)}
		}
		if r.Truncate < 0 {
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("truncate %d is negative", r.Truncate)}
		}
		return nil
	case *plan.NAFill:
		return v.naFill(r, depth, path)
	case *plan.StatSummary:
		return v.requireChild(r.Input, depth, path, r.Name(), "input")
	case *plan.StatCrosstab:
		if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
			return err
		}
		if r.Col1 == "" || r.Col2 == "" {
			return &Error{Code: CodeStructural, Path: path, Message: "crosstab requires both column names"}
		}
		return nil
	case *plan.Unknown:
		return &Error{Code: CodeUnsupportedVariant, Path: path, Message: "unknown placeholder never validates"}
	default:
		return &Error{Code: CodeUnsupportedVariant, Path: path, Message: fmt.Sprintf("unrecognized variant %T", rel.Rel)}
	}
}

func (v *validator) requireChild(child *plan.Relation, depth int, path plan.Path, variant, field string) error {
	if child == nil {
		return &Error{Code: CodeArity, Path: path, Message: fmt.Sprintf("%s requires a %s relation", variant, field)}
	}
	return v.relation(child, depth+1, path.Child(variant, field))
}

func (v *validator) read(r *plan.Read, path plan.Path) error {
	switch {
	case r.NamedTable == nil && r.DataSource == nil:
		return &Error{Code: CodeOneofUnset, Path: path, Message: "read requires a named table or a data source"}
	case r.NamedTable != nil && r.DataSource != nil:
		return &Error{Code: CodeOneofMultiSet, Path: path, Message: "read has both a named table and a data source"}
	case r.NamedTable != nil:
		if r.NamedTable.UnparsedIdentifier == "" {
			return &Error{Code: CodeStructural, Path: path, Message: "named table requires an identifier"}
		}
	default:
		if r.DataSource.Format == "" {
			return &Error{Code: CodeStructural, Path: path, Message: "data source requires a format"}
		}
	}
	return nil
}

func (v *validator) join(r *plan.Join, depth int, path plan.Path) error {
	if err := v.requireChild(r.Left, depth, path, r.Name(), "left"); err != nil {
		return err
	}
	if err := v.requireChild(r.Right, depth, path, r.Name(), "right"); err != nil {
		return err
	}
	switch r.JoinType {
	case plan.JoinTypeInner, plan.JoinTypeFullOuter, plan.JoinTypeLeftOuter,
		plan.JoinTypeRightOuter, plan.JoinTypeLeftAnti, plan.JoinTypeLeftSemi:
	default:
		return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("join_type %d is not a recognized join", r.JoinType)}
	}
	if r.JoinCondition != nil && len(r.UsingColumns) > 0 {
		return &Error{
			Code:    CodeSemanticConflict,
			Path:    path,
			Message: "join_condition and using_columns are mutually exclusive",
		}
	}
	if r.JoinCondition != nil {
		return v.expression(r.JoinCondition, depth+1, path.Child(r.Name(), "join_condition"))
	}
	return nil
}

func (v *validator) sort(r *plan.Sort, depth int, path plan.Path) error {
	if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
		return err
	}
	if len(r.SortFields) == 0 {
		return &Error{Code: CodeArity, Path: path, Message: "sort requires at least one sort field"}
	}
	for i, sf := range r.SortFields {
		fieldPath := path.ChildIndex(r.Name(), "sort_fields", i)
		if sf.Expression == nil {
			return &Error{Code: CodeStructural, Path: fieldPath, Message: "sort field requires an expression"}
		}
		if err := v.expression(sf.Expression, depth+1, fieldPath); err != nil {
			return err
		}
		switch sf.Direction {
		case plan.SortDirectionAscending, plan.SortDirectionDescending:
		default:
			return &Error{Code: CodeRange, Path: fieldPath, Message: fmt.Sprintf("direction %d is not a recognized ordering", sf.Direction)}
		}
		switch sf.Nulls {
		case plan.NullOrderingFirst, plan.NullOrderingLast:
		default:
			return &Error{Code: CodeRange, Path: fieldPath, Message: fmt.Sprintf("null ordering %d is not recognized", sf.Nulls)}
		}
	}
	return nil
}

func (v *validator) localRelation(r *plan.LocalRelation, depth int, path plan.Path) error {
	for i, attr := range r.Attributes {
		attrPath := path.ChildIndex(r.Name(), "attributes", i)
		if attr.Name == "" {
			return &Error{Code: CodeStructural, Path: attrPath, Message: "attribute requires a name"}
		}
		if attr.Type == nil {
			return &Error{Code: CodeStructural, Path: attrPath, Message: "attribute requires a resolved type"}
		}
	}
	if len(r.Data) > 0 {
		if len(r.Attributes) == 0 {
			return &Error{Code: CodeArity, Path: path, Message: "local relation carries data but no attributes"}
		}
		if len(r.Data)%len(r.Attributes) != 0 {
			return &Error{
				Code:    CodeArity,
				Path:    path,
				Message: fmt.Sprintf("data length %d is not a multiple of attribute count %d", len(r.Data), len(r.Attributes)),
			}
		}
	}
	for i := range r.Data {
		if err := v.literal(&r.Data[i], depth+1, path.ChildIndex(r.Name(), "data", i)); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) sample(r *plan.Sample, depth int, path plan.Path) error {
	if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
		return err
	}
	if r.LowerBound < 0 || r.LowerBound > 1 {
		return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("lower_bound %v is outside [0, 1]", r.LowerBound)}
	}
	if r.UpperBound < 0 || r.UpperBound > 1 {
		return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("upper_bound %v is outside [0, 1]", r.UpperBound)}
	}
	if r.LowerBound > r.UpperBound {
		return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("lower_bound %v exceeds upper_bound %v", r.LowerBound, r.UpperBound)}
	}
	return nil
}

func (v *validator) rangeRel(r *plan.Range, path plan.Path) error {
	if r.End == nil {
		return &Error{Code: CodeStructural, Path: path, Message: "range requires an end"}
	}
	if r.Step == 0 {
		return &Error{Code: CodeRange, Path: path, Message: "range step must be non-zero"}
	}
	if r.NumPartitions != nil && *r.NumPartitions <= 0 {
		return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("num_partitions %d is not positive", *r.NumPartitions)}
	}
	return nil
}

func (v *validator) renameMap(r *plan.RenameColumnsByNameToNameMap, depth int, path plan.Path) error {
	if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
		return err
	}
	if len(r.RenameColumnsMap) == 0 {
		return &Error{Code: CodeArity, Path: path, Message: "rename map requires at least one entry"}
	}
	seen := make(map[string]string, len(r.RenameColumnsMap))
	for from, to := range r.RenameColumnsMap {
		if prev, ok := seen[to]; ok {
			first, second := prev, from
			if second < first {
				first, second = second, first
			}
			return &Error{
				Code:    CodeSemanticConflict,
				Path:    path,
				Message: fmt.Sprintf("columns %q and %q both rename to %q", first, second, to),
			}
		}
		seen[to] = from
	}
	return nil
}

func (v *validator) naFill(r *plan.NAFill, depth int, path plan.Path) error {
	if err := v.requireChild(r.Input, depth, path, r.Name(), "input"); err != nil {
		return err
	}
	switch {
	case len(r.Values) == 0:
		return &Error{Code: CodeArity, Path: path, Message: "fill requires at least one value"}
	case len(r.Values) > 1 && len(r.Values) != len(r.Cols):
		// A single value broadcasts; several must pair positionally.
		return &Error{
			Code:    CodeArity,
			Path:    path,
			Message: fmt.Sprintf("%d values cannot pair with %d columns", len(r.Values), len(r.Cols)),
		}
	}
	for i := range r.Values {
		if err := v.literal(&r.Values[i], depth+1, path.ChildIndex(r.Name(), "values", i)); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) expression(ex expr.Expression, depth int, path plan.Path) error {
	if err := v.depthCheck(depth, path); err != nil {
		return err
	}
	switch e := ex.(type) {
	case nil:
		return &Error{Code: CodeOneofUnset, Path: path, Message: "expression has no variant populated"}
	case *expr.Literal:
		return v.literal(&e.Value, depth+1, path.Child("literal", "value"))
	case *expr.UnresolvedAttribute:
		if e.UnparsedIdentifier == "" {
			return &Error{Code: CodeStructural, Path: path, Message: "attribute requires an identifier"}
		}
		return nil
	case *expr.UnresolvedFunction:
		if len(e.Parts) == 0 {
			return &Error{Code: CodeStructural, Path: path, Message: "function requires a name"}
		}
		for i, arg := range e.Arguments {
			if err := v.expression(arg, depth+1, path.ChildIndex("unresolved_function", "arguments", i)); err != nil {
				return err
			}
		}
		return nil
	case *expr.ExpressionString:
		if e.Expression == "" {
			return &Error{Code: CodeStructural, Path: path, Message: "expression string requires source text"}
		}
		return nil
	case *expr.UnresolvedStar:
		return nil
	case *expr.Alias:
		if e.Expr == nil {
			return &Error{Code: CodeStructural, Path: path, Message: "alias requires a wrapped expression"}
		}
		if len(e.Name) == 0 {
			return &Error{Code: CodeArity, Path: path, Message: "alias requires at least one name"}
		}
		return v.expression(e.Expr, depth+1, path.Child("alias", "expr"))
	default:
		return &Error{Code: CodeUnsupportedVariant, Path: path, Message: fmt.Sprintf("unrecognized expression variant %T", ex)}
	}
}

func (v *validator) literal(lit *literal.Literal, depth int, path plan.Path) error {
	if err := v.depthCheck(depth, path); err != nil {
		return err
	}
	switch val := lit.Value.(type) {
	case nil:
		return &Error{Code: CodeOneofUnset, Path: path, Message: "literal has no kind populated"}
	case *literal.Decimal:
		if len(val.Value) != decimalWidth {
			return &Error{
				Code:    CodeStructural,
				Path:    path,
				Message: fmt.Sprintf("decimal value is %d bytes, want %d", len(val.Value), decimalWidth),
			}
		}
		if val.Precision < 1 || val.Precision > maxDecimalPrecision {
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("precision %d is outside [1, %d]", val.Precision, maxDecimalPrecision)}
		}
		if val.Scale < 0 || val.Scale > val.Precision {
			return &Error{Code: CodeRange, Path: path, Message: fmt.Sprintf("scale %d is outside [0, precision %d]", val.Scale, val.Precision)}
		}
	case literal.UUID:
		if len(val) != uuidWidth {
			return &Error{Code: CodeStructural, Path: path, Message: fmt.Sprintf("uuid is %d bytes, want %d", len(val), uuidWidth)}
		}
	case *literal.VarChar:
		if n := utf8.RuneCountInString(val.Value); uint32(n) > val.Length {
			return &Error{
				Code:    CodeRange,
				Path:    path,
				Message: fmt.Sprintf("var_char value has %d characters, declared length %d", n, val.Length),
			}
		}
	case *literal.Null:
		if val.Type == nil {
			return &Error{Code: CodeStructural, Path: path, Message: "typed null requires a type"}
		}
	case *literal.Struct:
		for i := range val.Fields {
			if err := v.literal(&val.Fields[i], depth+1, path.ChildIndex("struct", "fields", i)); err != nil {
				return err
			}
		}
	case *literal.List:
		for i := range val.Values {
			if err := v.literal(&val.Values[i], depth+1, path.ChildIndex("list", "values", i)); err != nil {
				return err
			}
		}
	case *literal.Map:
		for i := range val.Entries {
			entryPath := path.ChildIndex("map", "key_values", i)
			if err := v.literal(&val.Entries[i].Key, depth+1, entryPath); err != nil {
				return err
			}
			if err := v.literal(&val.Entries[i].Value, depth+1, entryPath); err != nil {
				return err
			}
		}
	}
	return nil
}

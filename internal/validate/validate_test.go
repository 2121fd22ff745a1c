package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/types"
)

func tableScan(name string) *plan.Relation {
	return plan.New(&plan.Read{NamedTable: &plan.NamedTable{UnparsedIdentifier: name}})
}

func i64p(v int64) *int64 { return &v }
func i32p(v int32) *int32 { return &v }

func requireCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.Error(t, err)
	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, code, ve.Code, "got %v", err)
	return ve
}

func TestValidateAcceptsPipeline(t *testing.T) {
	rel := plan.New(&plan.Limit{
		Input: plan.New(&plan.Sort{
			Input: plan.New(&plan.Filter{
				Input:     tableScan("events"),
				Condition: expr.Fn("gt", expr.Attr("ts"), expr.Lit(literal.I64(0))),
			}),
			SortFields: []plan.SortField{
				{Expression: expr.Attr("ts"), Direction: plan.SortDirectionDescending, Nulls: plan.NullOrderingLast},
			},
		}),
		Limit: 10,
	})
	assert.NoError(t, Validate(rel))
}

func TestValidateEnvelopeUnset(t *testing.T) {
	requireCode(t, Validate(nil), CodeOneofUnset)
	requireCode(t, Validate(&plan.Relation{}), CodeOneofUnset)
}

func TestValidateReadSources(t *testing.T) {
	requireCode(t, Validate(plan.New(&plan.Read{})), CodeOneofUnset)

	both := plan.New(&plan.Read{
		NamedTable: &plan.NamedTable{UnparsedIdentifier: "t"},
		DataSource: &plan.DataSource{Format: "csv"},
	})
	requireCode(t, Validate(both), CodeOneofMultiSet)

	requireCode(t, Validate(plan.New(&plan.Read{NamedTable: &plan.NamedTable{}})), CodeStructural)
	requireCode(t, Validate(plan.New(&plan.Read{DataSource: &plan.DataSource{}})), CodeStructural)

	assert.NoError(t, Validate(plan.New(&plan.Read{DataSource: &plan.DataSource{Format: "parquet"}})))
}

func TestValidateJoinConflict(t *testing.T) {
	mk := func(cond expr.Expression, using []string) *plan.Relation {
		return plan.New(&plan.Join{
			Left:          tableScan("l"),
			Right:         tableScan("r"),
			JoinType:      plan.JoinTypeInner,
			JoinCondition: cond,
			UsingColumns:  using,
		})
	}
	eq := expr.Fn("eq", expr.Attr("l.id"), expr.Attr("r.id"))

	assert.NoError(t, Validate(mk(eq, nil)))
	assert.NoError(t, Validate(mk(nil, []string{"id"})))
	assert.NoError(t, Validate(mk(nil, nil)), "cross join has neither")

	requireCode(t, Validate(mk(eq, []string{"id"})), CodeSemanticConflict)
}

func TestValidateJoinArityAndType(t *testing.T) {
	ve := requireCode(t, Validate(plan.New(&plan.Join{Right: tableScan("r")})), CodeArity)
	assert.Equal(t, "root", ve.Path.String())

	requireCode(t, Validate(plan.New(&plan.Join{Left: tableScan("l")})), CodeArity)

	bad := plan.New(&plan.Join{Left: tableScan("l"), Right: tableScan("r"), JoinType: plan.JoinType(99)})
	requireCode(t, Validate(bad), CodeRange)
}

func TestValidateRenameMapDuplicateTargets(t *testing.T) {
	mk := func(m map[string]string) *plan.Relation {
		return plan.New(&plan.RenameColumnsByNameToNameMap{Input: tableScan("t"), RenameColumnsMap: m})
	}

	assert.NoError(t, Validate(mk(map[string]string{"a": "x", "b": "y"})))

	ve := requireCode(t, Validate(mk(map[string]string{"a": "x", "b": "x"})), CodeSemanticConflict)
	assert.Contains(t, ve.Message, `"a"`)
	assert.Contains(t, ve.Message, `"b"`)
	assert.Contains(t, ve.Message, `"x"`)

	requireCode(t, Validate(mk(nil)), CodeArity)
}

func TestValidateNAFillArity(t *testing.T) {
	mk := func(cols []string, values ...literal.Value) *plan.Relation {
		lits := make([]literal.Literal, len(values))
		for i, v := range values {
			lits[i] = literal.New(v)
		}
		return plan.New(&plan.NAFill{Input: tableScan("t"), Cols: cols, Values: lits})
	}

	assert.NoError(t, Validate(mk(nil, literal.Boolean(true))), "single value broadcasts to all columns")
	assert.NoError(t, Validate(mk([]string{"a", "b"}, literal.I64(0), literal.String(""))))

	requireCode(t, Validate(mk(nil)), CodeArity)
	requireCode(t, Validate(mk([]string{"a"}, literal.I64(0), literal.I64(1))), CodeArity)
}

func TestValidateRangeAndLimit(t *testing.T) {
	assert.NoError(t, Validate(plan.New(&plan.Range{Start: i64p(0), End: i64p(10), Step: 2})))
	assert.NoError(t, Validate(plan.New(&plan.Limit{
		Input: plan.New(&plan.Range{End: i64p(10), Step: 1}),
		Limit: 3,
	})))

	requireCode(t, Validate(plan.New(&plan.Range{Step: 1})), CodeStructural)
	requireCode(t, Validate(plan.New(&plan.Range{End: i64p(10), Step: 0})), CodeRange)
	requireCode(t, Validate(plan.New(&plan.Range{End: i64p(10), Step: 1, NumPartitions: i32p(0)})), CodeRange)

	requireCode(t, Validate(plan.New(&plan.Limit{Input: tableScan("t"), Limit: -1})), CodeRange)
	requireCode(t, Validate(plan.New(&plan.Offset{Input: tableScan("t"), Offset: -1})), CodeRange)
}

func TestValidateSort(t *testing.T) {
	requireCode(t, Validate(plan.New(&plan.Sort{Input: tableScan("t")})), CodeArity)

	noExpr := plan.New(&plan.Sort{Input: tableScan("t"), SortFields: []plan.SortField{{}}})
	ve := requireCode(t, Validate(noExpr), CodeStructural)
	assert.Equal(t, "root/sort.sort_fields[0]", ve.Path.String())

	badDir := plan.New(&plan.Sort{Input: tableScan("t"), SortFields: []plan.SortField{
		{Expression: expr.Attr("a"), Direction: plan.SortDirection(9), Nulls: plan.NullOrderingFirst},
	}})
	requireCode(t, Validate(badDir), CodeRange)
}

func TestValidateSampleBounds(t *testing.T) {
	mk := func(lo, hi float64) *plan.Relation {
		return plan.New(&plan.Sample{Input: tableScan("t"), LowerBound: lo, UpperBound: hi})
	}
	assert.NoError(t, Validate(mk(0.1, 0.9)))
	requireCode(t, Validate(mk(-0.1, 0.5)), CodeRange)
	requireCode(t, Validate(mk(0.1, 1.5)), CodeRange)
	requireCode(t, Validate(mk(0.9, 0.1)), CodeRange)
}

func TestValidateSetOperation(t *testing.T) {
	mk := func(op plan.SetOpType) *plan.Relation {
		return plan.New(&plan.SetOperation{LeftInput: tableScan("l"), RightInput: tableScan("r"), SetOpType: op})
	}
	assert.NoError(t, Validate(mk(plan.SetOpTypeUnion)))
	assert.NoError(t, Validate(mk(plan.SetOpTypeIntersect)))
	assert.NoError(t, Validate(mk(plan.SetOpTypeExcept)))
	requireCode(t, Validate(mk(plan.SetOpType(0))), CodeRange)
}

func TestValidateLocalRelation(t *testing.T) {
	attrs := []plan.QualifiedAttribute{
		{Name: "id", Type: types.I64{}},
		{Name: "name", Type: types.String{}},
	}
	row := func(id int64, name string) []literal.Literal {
		return []literal.Literal{literal.New(literal.I64(id)), literal.New(literal.String(name))}
	}

	ok := plan.New(&plan.LocalRelation{Attributes: attrs, Data: append(row(1, "a"), row(2, "b")...)})
	assert.NoError(t, Validate(ok))

	ragged := plan.New(&plan.LocalRelation{Attributes: attrs, Data: row(1, "a")[:1]})
	requireCode(t, Validate(ragged), CodeArity)

	unnamed := plan.New(&plan.LocalRelation{Attributes: []plan.QualifiedAttribute{{Type: types.I64{}}}})
	requireCode(t, Validate(unnamed), CodeStructural)

	untyped := plan.New(&plan.LocalRelation{Attributes: []plan.QualifiedAttribute{{Name: "id"}}})
	requireCode(t, Validate(untyped), CodeStructural)
}

func TestValidateUnknownNeverPasses(t *testing.T) {
	requireCode(t, Validate(plan.New(&plan.Unknown{})), CodeUnsupportedVariant)
}

func TestValidateLiteralShapes(t *testing.T) {
	wrap := func(v literal.Value) *plan.Relation {
		return plan.New(&plan.NAFill{Input: tableScan("t"), Values: []literal.Literal{literal.New(v)}})
	}

	assert.NoError(t, Validate(wrap(literal.MustDecimalFromString("-1", 5, 0))))

	requireCode(t, Validate(wrap(&literal.Decimal{Value: []byte{0x01}, Precision: 5})), CodeStructural)
	requireCode(t, Validate(wrap(&literal.Decimal{Value: make([]byte, 16), Precision: 0})), CodeRange)
	requireCode(t, Validate(wrap(&literal.Decimal{Value: make([]byte, 16), Precision: 39})), CodeRange)
	requireCode(t, Validate(wrap(&literal.Decimal{Value: make([]byte, 16), Precision: 5, Scale: 6})), CodeRange)

	requireCode(t, Validate(wrap(literal.UUID{0x01})), CodeStructural)
	assert.NoError(t, Validate(wrap(literal.UUID(make([]byte, 16)))))

	requireCode(t, Validate(wrap(&literal.VarChar{Value: "toolong", Length: 3})), CodeRange)
	assert.NoError(t, Validate(wrap(&literal.VarChar{Value: "héé", Length: 3})),
		"length counts characters, not bytes")

	requireCode(t, Validate(wrap(&literal.Null{})), CodeStructural)
	assert.NoError(t, Validate(wrap(&literal.Null{Type: types.I64{}})))

	requireCode(t, Validate(wrap(nil)), CodeOneofUnset)
}

func TestValidateNestedLiteralPath(t *testing.T) {
	bad := &literal.Struct{Fields: []literal.Literal{
		literal.New(literal.I64(1)),
		literal.New(literal.UUID{0x01}),
	}}
	rel := plan.New(&plan.NAFill{Input: tableScan("t"), Values: []literal.Literal{literal.New(bad)}})

	ve := requireCode(t, Validate(rel), CodeStructural)
	assert.Equal(t, "root/fill_na.values[0]/struct.fields[1]", ve.Path.String())
}

func TestValidateExpressionVariants(t *testing.T) {
	wrap := func(e expr.Expression) *plan.Relation {
		return plan.New(&plan.Filter{Input: tableScan("t"), Condition: e})
	}

	requireCode(t, Validate(wrap(nil)), CodeStructural)
	requireCode(t, Validate(wrap(expr.Attr(""))), CodeStructural)
	requireCode(t, Validate(wrap(&expr.UnresolvedFunction{})), CodeStructural)
	requireCode(t, Validate(wrap(&expr.ExpressionString{})), CodeStructural)
	requireCode(t, Validate(wrap(&expr.Alias{Name: []string{"a"}})), CodeStructural)
	requireCode(t, Validate(wrap(&expr.Alias{Expr: expr.Attr("a")})), CodeArity)

	nested := expr.Fn("and", expr.Attr("a"), expr.Attr(""))
	ve := requireCode(t, Validate(wrap(nested)), CodeStructural)
	assert.Equal(t, "root/filter.condition/unresolved_function.arguments[1]", ve.Path.String())
}

func TestValidateDepthCeiling(t *testing.T) {
	rel := plan.New(&plan.SQL{Query: "SELECT 1"})
	for i := 0; i < 10; i++ {
		rel = plan.New(&plan.Filter{Input: rel, Condition: expr.Lit(literal.Boolean(true))})
	}

	assert.NoError(t, Validate(rel))
	requireCode(t, Validate(rel, WithMaxDepth(5)), CodeDepthExceeded)
}

func TestValidateFirstViolationWins(t *testing.T) {
	// Both the left child and the join type are wrong; the pre-order walk
	// reports the left child first.
	rel := plan.New(&plan.Join{
		Left:     plan.New(&plan.SQL{}),
		Right:    tableScan("r"),
		JoinType: plan.JoinType(99),
	})
	ve := requireCode(t, Validate(rel), CodeStructural)
	assert.Equal(t, "root/join.left", ve.Path.String())
}

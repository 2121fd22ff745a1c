package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/types"
)

func roundTrip(t *testing.T, rel *plan.Relation) *plan.Relation {
	t.Helper()
	encoded, err := Encode(rel)
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	return decoded
}

func tableScan(name string) *plan.Relation {
	return plan.New(&plan.Read{NamedTable: &plan.NamedTable{UnparsedIdentifier: name}})
}

func i64p(v int64) *int64  { return &v }
func i32p(v int32) *int32  { return &v }
func strp(s string) *string { return &s }

func TestRoundTripLeaves(t *testing.T) {
	cases := map[string]*plan.Relation{
		"named_table": tableScan("sales.orders"),
		"data_source": plan.New(&plan.Read{DataSource: &plan.DataSource{
			Format:  "parquet",
			Schema:  "id BIGINT, name STRING",
			Options: map[string]string{"path": "/data/orders", "mergeSchema": "true"},
		}}),
		"sql":   plan.New(&plan.SQL{Query: "SELECT 1"}),
		"range": plan.New(&plan.Range{Start: i64p(0), End: i64p(10), Step: 2, NumPartitions: i32p(4)}),
		"range_defaults": plan.New(&plan.Range{End: i64p(100), Step: 1}),
		"unknown": plan.New(&plan.Unknown{}),
	}
	for name, rel := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, rel, roundTrip(t, rel))
		})
	}
}

func TestRoundTripUnaryVariants(t *testing.T) {
	in := tableScan("t")
	cases := map[string]*plan.Relation{
		"project": plan.New(&plan.Project{
			Input: in,
			Expressions: []expr.Expression{
				expr.Attr("a"),
				expr.As(expr.Fn("upper", expr.Attr("b")), "B"),
				&expr.UnresolvedStar{},
			},
		}),
		"project_constant_only": plan.New(&plan.Project{
			Expressions: []expr.Expression{expr.Lit(literal.I64(1))},
		}),
		"filter": plan.New(&plan.Filter{
			Input:     in,
			Condition: expr.Fn("gt", expr.Attr("amount"), expr.Lit(literal.FP64(10.5))),
		}),
		"sort": plan.New(&plan.Sort{
			Input: in,
			SortFields: []plan.SortField{
				{Expression: expr.Attr("a"), Direction: plan.SortDirectionAscending, Nulls: plan.NullOrderingFirst},
				{Expression: expr.Attr("b"), Direction: plan.SortDirectionDescending, Nulls: plan.NullOrderingLast},
			},
		}),
		"limit":  plan.New(&plan.Limit{Input: in, Limit: 10}),
		"offset": plan.New(&plan.Offset{Input: in, Offset: 5}),
		"aggregate": plan.New(&plan.Aggregate{
			Input:               in,
			GroupingExpressions: []expr.Expression{expr.Attr("region")},
			ResultExpressions:   []expr.Expression{expr.Fn("sum", expr.Attr("amount"))},
		}),
		"sample": plan.New(&plan.Sample{
			Input:           in,
			LowerBound:      0.25,
			UpperBound:      0.75,
			WithReplacement: true,
			Seed:            i64p(42),
		}),
		"subquery_alias": plan.New(&plan.SubqueryAlias{
			Input:     in,
			Alias:     "t1",
			Qualifier: []string{"db", "schema"},
		}),
		"repartition": plan.New(&plan.Repartition{Input: in, NumPartitions: 8, Shuffle: true}),
		"rename_positional": plan.New(&plan.RenameColumnsBySameLengthNames{
			Input:       in,
			ColumnNames: []string{"x", "y"},
		}),
		"rename_map": plan.New(&plan.RenameColumnsByNameToNameMap{
			Input:            in,
			RenameColumnsMap: map[string]string{"a": "x", "b": "y"},
		}),
		"show_string": plan.New(&plan.ShowString{Input: in, NumRows: 20, Truncate: 40, Vertical: true}),
		"fill_na": plan.New(&plan.NAFill{
			Input:  in,
			Cols:   []string{"a", "b"},
			Values: []literal.Literal{literal.New(literal.I64(0)), literal.New(literal.String("n/a"))},
		}),
		"summary":  plan.New(&plan.StatSummary{Input: in, Statistics: []string{"count", "mean"}}),
		"crosstab": plan.New(&plan.StatCrosstab{Input: in, Col1: "a", Col2: "b"}),
	}
	for name, rel := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, rel, roundTrip(t, rel))
		})
	}
}

func TestRoundTripBinaryVariants(t *testing.T) {
	left, right := tableScan("l"), tableScan("r")

	join := plan.New(&plan.Join{
		Left:          left,
		Right:         right,
		JoinCondition: expr.Fn("eq", expr.Attr("l.id"), expr.Attr("r.id")),
		JoinType:      plan.JoinTypeLeftOuter,
	})
	assert.Equal(t, join, roundTrip(t, join))

	usingJoin := plan.New(&plan.Join{
		Left:         left,
		Right:        right,
		JoinType:     plan.JoinTypeInner,
		UsingColumns: []string{"id", "day"},
	})
	assert.Equal(t, usingJoin, roundTrip(t, usingJoin))

	setOp := plan.New(&plan.SetOperation{
		LeftInput:  left,
		RightInput: right,
		SetOpType:  plan.SetOpTypeUnion,
		IsAll:      true,
		ByName:     true,
	})
	assert.Equal(t, setOp, roundTrip(t, setOp))
}

func TestRoundTripSourceInfo(t *testing.T) {
	rel := plan.NewWithSource(&plan.SQL{Query: "SELECT 1"}, "builder.go:42")
	assert.Equal(t, rel, roundTrip(t, rel))
}

func TestRoundTripNestedPipeline(t *testing.T) {
	rel := plan.New(&plan.Limit{
		Input: plan.New(&plan.Sort{
			Input: plan.New(&plan.Filter{
				Input:     tableScan("events"),
				Condition: expr.Fn("gt", expr.Attr("ts"), expr.Lit(literal.Timestamp(1700000000000000))),
			}),
			SortFields: []plan.SortField{
				{Expression: expr.Attr("ts"), Direction: plan.SortDirectionDescending, Nulls: plan.NullOrderingLast},
			},
		}),
		Limit: 100,
	})
	assert.Equal(t, rel, roundTrip(t, rel))
}

func TestRoundTripEveryLiteralKind(t *testing.T) {
	values := []literal.Value{
		literal.Boolean(true),
		literal.I8(-8),
		literal.I16(-16),
		literal.I32(-32),
		literal.I64(-64),
		literal.FP32(1.5),
		literal.FP64(-2.25),
		literal.String("héllo"),
		literal.Binary{0x00, 0x01, 0xFF},
		literal.Timestamp(1700000000000000),
		literal.TimestampTZ(1700000000000001),
		literal.Date(19700),
		literal.Time(86399000000),
		literal.FixedChar("pad"),
		literal.FixedBinary{0xAB, 0xCD},
		literal.UUID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		&literal.VarChar{Value: "v", Length: 10},
		&literal.IntervalYearToMonth{Years: 1, Months: 6},
		&literal.IntervalDayToSecond{Days: 2, Seconds: 30, Microseconds: 500},
		literal.MustDecimalFromString("-1", 5, 0),
		&literal.Struct{Fields: []literal.Literal{
			literal.New(literal.I32(1)),
			literal.New(literal.String("two")),
		}},
		&literal.List{Values: []literal.Literal{
			literal.New(literal.I64(1)),
			literal.New(literal.I64(2)),
		}},
		&literal.Map{Entries: []literal.MapEntry{
			{Key: literal.New(literal.String("k")), Value: literal.New(literal.I64(7))},
		}},
		&literal.Null{Type: &types.Decimal{Precision: 10, Scale: 2}},
		&literal.EmptyList{Element: types.List{Element: types.String{}}},
		&literal.EmptyMap{Map: types.Map{Key: types.String{}, Value: types.I64{}}},
		&literal.UserDefined{TypeReference: 99, Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
	}

	for _, v := range values {
		t.Run(literal.KindName(v), func(t *testing.T) {
			rel := plan.New(&plan.NAFill{
				Input:  tableScan("t"),
				Values: []literal.Literal{literal.New(v)},
			})
			assert.Equal(t, rel, roundTrip(t, rel))
		})
	}
}

func TestRoundTripLiteralModifiers(t *testing.T) {
	lit := literal.Literal{
		Value:                  literal.I64(5),
		Nullable:               true,
		TypeVariationReference: 7,
	}
	rel := plan.New(&plan.NAFill{Input: tableScan("t"), Values: []literal.Literal{lit}})
	assert.Equal(t, rel, roundTrip(t, rel))
}

func TestRoundTripLocalRelationSchema(t *testing.T) {
	rel := plan.New(&plan.LocalRelation{
		Attributes: []plan.QualifiedAttribute{
			{Name: "flag", Type: types.Bool{}},
			{Name: "code", Type: &types.FixedChar{Length: 3}},
			{Name: "name", Type: &types.VarChar{Length: 64}},
			{Name: "blob", Type: &types.FixedBinary{Length: 8}},
			{Name: "price", Type: &types.Decimal{Precision: 12, Scale: 2}},
			{Name: "tags", Type: &types.List{Element: types.String{}}},
			{Name: "attrs", Type: &types.Map{Key: types.String{}, Value: types.I64{}}},
			{Name: "vendor", Type: &types.UserDefined{TypeReference: 3}},
			{Name: "nested", Type: &types.Struct{Fields: []types.Field{
				{Name: "ts", Type: types.TimestampTZ{}},
				{Name: "span", Type: types.IntervalDayToSecond{}},
			}}},
		},
		Data: []literal.Literal{
			literal.New(literal.Boolean(true)),
			literal.New(literal.FixedChar("ABC")),
			literal.New(literal.String("widget")),
			literal.New(literal.FixedBinary{1, 2, 3, 4, 5, 6, 7, 8}),
			literal.New(literal.MustDecimalFromString("19.99", 12, 2)),
			literal.New(&literal.List{Values: []literal.Literal{literal.New(literal.String("new"))}}),
			literal.New(&literal.Map{}),
			literal.New(&literal.UserDefined{TypeReference: 3, Payload: []byte{0x01}}),
			literal.New(&literal.Struct{Fields: []literal.Literal{
				literal.New(literal.TimestampTZ(1)),
				literal.New(&literal.IntervalDayToSecond{Days: 1}),
			}}),
		},
	})
	assert.Equal(t, rel, roundTrip(t, rel))
}

func TestRoundTripExpressionVariants(t *testing.T) {
	exprs := []expr.Expression{
		expr.Lit(literal.I64(1)),
		expr.Attr("col"),
		expr.Fn("concat", expr.Attr("a"), expr.Lit(literal.String("-")), expr.Attr("b")),
		&expr.ExpressionString{Expression: "a + b"},
		&expr.UnresolvedStar{},
		&expr.Alias{
			Expr:     expr.Fn("explode", expr.Attr("pairs")),
			Name:     []string{"key", "value"},
			Metadata: strp(`{"hint":"broadcast"}`),
		},
	}
	rel := plan.New(&plan.Project{Input: tableScan("t"), Expressions: exprs})
	assert.Equal(t, rel, roundTrip(t, rel))
}

package fixture

import (
	"fmt"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
)

// ExprNode describes one expression. Exactly one variant field must be set.
type ExprNode struct {
	// Attr names an unresolved column.
	Attr string `yaml:"attr,omitempty" json:"attr,omitempty"`

	// Lit carries a constant.
	Lit *LitNode `yaml:"lit,omitempty" json:"lit,omitempty"`

	// Fn calls an unresolved function.
	Fn *FnNode `yaml:"fn,omitempty" json:"fn,omitempty"`

	// Raw is source text deferred to the engine's own parser.
	Raw string `yaml:"raw,omitempty" json:"raw,omitempty"`

	// Star expands to all columns in scope.
	Star bool `yaml:"star,omitempty" json:"star,omitempty"`

	// Alias names a wrapped expression.
	Alias *AliasNode `yaml:"alias,omitempty" json:"alias,omitempty"`
}

type FnNode struct {
	Name string     `yaml:"name" json:"name"`
	Args []ExprNode `yaml:"args,omitempty" json:"args,omitempty"`
}

type AliasNode struct {
	Expr  ExprNode `yaml:"expr" json:"expr"`
	Names []string `yaml:"names" json:"names"`
}

// LitNode describes a constant. Exactly one value field must be set. The
// scalar forms cover what fixtures need; the full literal model is reachable
// only through code.
type LitNode struct {
	Bool    *bool        `yaml:"bool,omitempty" json:"bool,omitempty"`
	Int     *int64       `yaml:"int,omitempty" json:"int,omitempty"`
	Float   *float64     `yaml:"float,omitempty" json:"float,omitempty"`
	String  *string      `yaml:"string,omitempty" json:"string,omitempty"`
	Decimal *DecimalNode `yaml:"decimal,omitempty" json:"decimal,omitempty"`

	Nullable bool `yaml:"nullable,omitempty" json:"nullable,omitempty"`
}

type DecimalNode struct {
	Value     string `yaml:"value" json:"value"`
	Precision int32  `yaml:"precision" json:"precision"`
	Scale     int32  `yaml:"scale" json:"scale"`
}

func buildNode(n *Node) (*plan.Relation, error) {
	if n == nil {
		return nil, nil
	}
	rt, err := buildVariant(n)
	if err != nil {
		return nil, err
	}
	if n.SourceInfo != "" {
		return plan.NewWithSource(rt, n.SourceInfo), nil
	}
	return plan.New(rt), nil
}

func buildVariant(n *Node) (plan.RelType, error) {
	var out plan.RelType
	set := func(rt plan.RelType, err error) error {
		if err != nil {
			return err
		}
		if out != nil {
			return fmt.Errorf("node sets both %s and %s", out.Name(), rt.Name())
		}
		out = rt
		return nil
	}

	if n.Read != nil {
		if err := set(buildRead(n.Read)); err != nil {
			return nil, err
		}
	}
	if n.Project != nil {
		if err := set(buildProject(n.Project)); err != nil {
			return nil, err
		}
	}
	if n.Filter != nil {
		if err := set(buildFilter(n.Filter)); err != nil {
			return nil, err
		}
	}
	if n.Join != nil {
		if err := set(buildJoin(n.Join)); err != nil {
			return nil, err
		}
	}
	if n.SetOp != nil {
		if err := set(buildSetOp(n.SetOp)); err != nil {
			return nil, err
		}
	}
	if n.Sort != nil {
		if err := set(buildSort(n.Sort)); err != nil {
			return nil, err
		}
	}
	if n.Limit != nil {
		input, err := buildNode(n.Limit.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.Limit{Input: input, Limit: n.Limit.Limit}, nil); err != nil {
			return nil, err
		}
	}
	if n.Offset != nil {
		input, err := buildNode(n.Offset.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.Offset{Input: input, Offset: n.Offset.Offset}, nil); err != nil {
			return nil, err
		}
	}
	if n.Aggregate != nil {
		if err := set(buildAggregate(n.Aggregate)); err != nil {
			return nil, err
		}
	}
	if n.SQL != nil {
		if err := set(&plan.SQL{Query: n.SQL.Query}, nil); err != nil {
			return nil, err
		}
	}
	if n.Sample != nil {
		input, err := buildNode(n.Sample.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.Sample{
			Input:           input,
			LowerBound:      n.Sample.LowerBound,
			UpperBound:      n.Sample.UpperBound,
			WithReplacement: n.Sample.WithReplacement,
			Seed:            n.Sample.Seed,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.Range != nil {
		if err := set(&plan.Range{
			Start:         n.Range.Start,
			End:           n.Range.End,
			Step:          n.Range.Step,
			NumPartitions: n.Range.NumPartitions,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.Subquery != nil {
		input, err := buildNode(n.Subquery.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.SubqueryAlias{
			Input:     input,
			Alias:     n.Subquery.Alias,
			Qualifier: n.Subquery.Qualifier,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.Repartition != nil {
		input, err := buildNode(n.Repartition.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.Repartition{
			Input:         input,
			NumPartitions: n.Repartition.NumPartitions,
			Shuffle:       n.Repartition.Shuffle,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.RenameSame != nil {
		input, err := buildNode(n.RenameSame.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.RenameColumnsBySameLengthNames{
			Input:       input,
			ColumnNames: n.RenameSame.Names,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.RenameMap != nil {
		input, err := buildNode(n.RenameMap.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.RenameColumnsByNameToNameMap{
			Input:            input,
			RenameColumnsMap: n.RenameMap.Renames,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.ShowString != nil {
		input, err := buildNode(n.ShowString.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.ShowString{
			Input:    input,
			NumRows:  n.ShowString.NumRows,
			Truncate: n.ShowString.Truncate,
			Vertical: n.ShowString.Vertical,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.FillNA != nil {
		if err := set(buildFillNA(n.FillNA)); err != nil {
			return nil, err
		}
	}
	if n.Summary != nil {
		input, err := buildNode(n.Summary.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.StatSummary{Input: input, Statistics: n.Summary.Statistics}, nil); err != nil {
			return nil, err
		}
	}
	if n.Crosstab != nil {
		input, err := buildNode(n.Crosstab.Input)
		if err != nil {
			return nil, err
		}
		if err := set(&plan.StatCrosstab{
			Input: input,
			Col1:  n.Crosstab.Col1,
			Col2:  n.Crosstab.Col2,
		}, nil); err != nil {
			return nil, err
		}
	}
	if n.Unknown != nil {
		if err := set(&plan.Unknown{}, nil); err != nil {
			return nil, err
		}
	}

	if out == nil {
		return nil, fmt.Errorf("node sets no variant")
	}
	return out, nil
}

func buildRead(r *ReadNode) (plan.RelType, error) {
	read := &plan.Read{}
	if r.Table != "" {
		read.NamedTable = &plan.NamedTable{UnparsedIdentifier: r.Table}
	}
	if r.Format != "" {
		read.DataSource = &plan.DataSource{
			Format:  r.Format,
			Schema:  r.Schema,
			Options: r.Options,
		}
	}
	return read, nil
}

func buildProject(p *ProjectNode) (plan.RelType, error) {
	input, err := buildNode(p.Input)
	if err != nil {
		return nil, err
	}
	exprs, err := buildExprs(p.Expressions)
	if err != nil {
		return nil, err
	}
	return &plan.Project{Input: input, Expressions: exprs}, nil
}

func buildFilter(f *FilterNode) (plan.RelType, error) {
	input, err := buildNode(f.Input)
	if err != nil {
		return nil, err
	}
	cond, err := buildExpr(&f.Condition)
	if err != nil {
		return nil, err
	}
	return &plan.Filter{Input: input, Condition: cond}, nil
}

func buildJoin(j *JoinNode) (plan.RelType, error) {
	left, err := buildNode(j.Left)
	if err != nil {
		return nil, err
	}
	right, err := buildNode(j.Right)
	if err != nil {
		return nil, err
	}
	jt, err := parseJoinType(j.Type)
	if err != nil {
		return nil, err
	}
	join := &plan.Join{Left: left, Right: right, JoinType: jt, UsingColumns: j.UsingColumns}
	if j.Condition != nil {
		cond, err := buildExpr(j.Condition)
		if err != nil {
			return nil, err
		}
		join.JoinCondition = cond
	}
	return join, nil
}

func buildSetOp(s *SetOpNode) (plan.RelType, error) {
	left, err := buildNode(s.Left)
	if err != nil {
		return nil, err
	}
	right, err := buildNode(s.Right)
	if err != nil {
		return nil, err
	}
	st, err := parseSetOpType(s.Type)
	if err != nil {
		return nil, err
	}
	return &plan.SetOperation{
		LeftInput:  left,
		RightInput: right,
		SetOpType:  st,
		IsAll:      s.IsAll,
		ByName:     s.ByName,
	}, nil
}

func buildSort(s *SortNode) (plan.RelType, error) {
	input, err := buildNode(s.Input)
	if err != nil {
		return nil, err
	}
	fields := make([]plan.SortField, 0, len(s.Fields))
	for i := range s.Fields {
		ex, err := buildExpr(&s.Fields[i].Expr)
		if err != nil {
			return nil, fmt.Errorf("sort field %d: %w", i, err)
		}
		dir, err := parseDirection(s.Fields[i].Direction)
		if err != nil {
			return nil, fmt.Errorf("sort field %d: %w", i, err)
		}
		nulls, err := parseNulls(s.Fields[i].Nulls)
		if err != nil {
			return nil, fmt.Errorf("sort field %d: %w", i, err)
		}
		fields = append(fields, plan.SortField{Expression: ex, Direction: dir, Nulls: nulls})
	}
	return &plan.Sort{Input: input, SortFields: fields}, nil
}

func buildAggregate(a *AggregateNode) (plan.RelType, error) {
	input, err := buildNode(a.Input)
	if err != nil {
		return nil, err
	}
	groupBy, err := buildExprs(a.GroupBy)
	if err != nil {
		return nil, err
	}
	results, err := buildExprs(a.Results)
	if err != nil {
		return nil, err
	}
	return &plan.Aggregate{Input: input, GroupingExpressions: groupBy, ResultExpressions: results}, nil
}

func buildFillNA(f *FillNANode) (plan.RelType, error) {
	input, err := buildNode(f.Input)
	if err != nil {
		return nil, err
	}
	values := make([]literal.Literal, 0, len(f.Values))
	for i := range f.Values {
		lit, err := buildLit(&f.Values[i])
		if err != nil {
			return nil, fmt.Errorf("fill value %d: %w", i, err)
		}
		values = append(values, lit)
	}
	return &plan.NAFill{Input: input, Cols: f.Cols, Values: values}, nil
}

func buildExprs(nodes []ExprNode) ([]expr.Expression, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]expr.Expression, 0, len(nodes))
	for i := range nodes {
		ex, err := buildExpr(&nodes[i])
		if err != nil {
			return nil, fmt.Errorf("expression %d: %w", i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func buildExpr(n *ExprNode) (expr.Expression, error) {
	var out expr.Expression
	set := func(e expr.Expression) error {
		if out != nil {
			return fmt.Errorf("expression sets more than one variant")
		}
		out = e
		return nil
	}

	if n.Attr != "" {
		if err := set(expr.Attr(n.Attr)); err != nil {
			return nil, err
		}
	}
	if n.Lit != nil {
		lit, err := buildLit(n.Lit)
		if err != nil {
			return nil, err
		}
		if err := set(&expr.Literal{Value: lit}); err != nil {
			return nil, err
		}
	}
	if n.Fn != nil {
		args, err := buildExprs(n.Fn.Args)
		if err != nil {
			return nil, err
		}
		if err := set(&expr.UnresolvedFunction{Parts: []string{n.Fn.Name}, Arguments: args}); err != nil {
			return nil, err
		}
	}
	if n.Raw != "" {
		if err := set(&expr.ExpressionString{Expression: n.Raw}); err != nil {
			return nil, err
		}
	}
	if n.Star {
		if err := set(&expr.UnresolvedStar{}); err != nil {
			return nil, err
		}
	}
	if n.Alias != nil {
		inner, err := buildExpr(&n.Alias.Expr)
		if err != nil {
			return nil, err
		}
		if err := set(&expr.Alias{Expr: inner, Name: n.Alias.Names}); err != nil {
			return nil, err
		}
	}

	if out == nil {
		return nil, fmt.Errorf("expression sets no variant")
	}
	return out, nil
}

func buildLit(n *LitNode) (literal.Literal, error) {
	var value literal.Value
	set := func(v literal.Value) error {
		if value != nil {
			return fmt.Errorf("literal sets more than one value")
		}
		value = v
		return nil
	}

	if n.Bool != nil {
		if err := set(literal.Boolean(*n.Bool)); err != nil {
			return literal.Literal{}, err
		}
	}
	if n.Int != nil {
		if err := set(literal.I64(*n.Int)); err != nil {
			return literal.Literal{}, err
		}
	}
	if n.Float != nil {
		if err := set(literal.FP64(*n.Float)); err != nil {
			return literal.Literal{}, err
		}
	}
	if n.String != nil {
		if err := set(literal.String(*n.String)); err != nil {
			return literal.Literal{}, err
		}
	}
	if n.Decimal != nil {
		dec, err := literal.DecimalFromString(n.Decimal.Value, n.Decimal.Precision, n.Decimal.Scale)
		if err != nil {
			return literal.Literal{}, err
		}
		if err := set(dec); err != nil {
			return literal.Literal{}, err
		}
	}

	if value == nil {
		return literal.Literal{}, fmt.Errorf("literal sets no value")
	}
	if n.Nullable {
		return literal.NewNullable(value), nil
	}
	return literal.New(value), nil
}

func parseJoinType(s string) (plan.JoinType, error) {
	switch s {
	case "inner":
		return plan.JoinTypeInner, nil
	case "full_outer":
		return plan.JoinTypeFullOuter, nil
	case "left_outer":
		return plan.JoinTypeLeftOuter, nil
	case "right_outer":
		return plan.JoinTypeRightOuter, nil
	case "left_anti":
		return plan.JoinTypeLeftAnti, nil
	case "left_semi":
		return plan.JoinTypeLeftSemi, nil
	default:
		return plan.JoinTypeUnspecified, fmt.Errorf("unrecognized join type %q", s)
	}
}

func parseSetOpType(s string) (plan.SetOpType, error) {
	switch s {
	case "intersect":
		return plan.SetOpTypeIntersect, nil
	case "union":
		return plan.SetOpTypeUnion, nil
	case "except":
		return plan.SetOpTypeExcept, nil
	default:
		return plan.SetOpTypeUnspecified, fmt.Errorf("unrecognized set operation %q", s)
	}
}

func parseDirection(s string) (plan.SortDirection, error) {
	switch s {
	case "ascending", "asc":
		return plan.SortDirectionAscending, nil
	case "descending", "desc":
		return plan.SortDirectionDescending, nil
	default:
		return plan.SortDirectionUnspecified, fmt.Errorf("unrecognized sort direction %q", s)
	}
}

func parseNulls(s string) (plan.NullOrdering, error) {
	switch s {
	case "first":
		return plan.NullOrderingFirst, nil
	case "last":
		return plan.NullOrderingLast, nil
	default:
		return plan.NullOrderingUnspecified, fmt.Errorf("unrecognized null ordering %q", s)
	}
}

package plan

import (
	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/types"
)

// Relation is the universal plan-node envelope.
type Relation struct {
	// Common carries optional diagnostic metadata. It is never
	// semantically interpreted.
	Common *RelationCommon

	// Rel holds exactly one populated variant. Nil is a structural error
	// surfaced by validation.
	Rel RelType
}

// RelationCommon holds metadata shared by every relation variant.
type RelationCommon struct {
	// SourceInfo is a free-form description of where this node was built
	// (for example a client-side stack frame). Diagnostic only.
	SourceInfo string
}

// RelType is the sealed interface over relation variants.
type RelType interface {
	relType() // Marker method - seals interface to this package

	// Name returns the stable lower-case variant name used in node paths
	// and error messages.
	Name() string

	// Inputs returns the child relations in declaration order. Absent
	// optional children are omitted. Used by generic tree walkers; arity
	// rules are enforced by the validator, which inspects fields directly.
	Inputs() []*Relation
}

// JoinType selects the join semantics. Unspecified is invalid once
// validated; it is only legal as an intermediate, pre-validation state.
type JoinType int32

const (
	JoinTypeUnspecified JoinType = iota
	JoinTypeInner
	JoinTypeFullOuter
	JoinTypeLeftOuter
	JoinTypeRightOuter
	JoinTypeLeftAnti
	JoinTypeLeftSemi
)

func (t JoinType) String() string {
	switch t {
	case JoinTypeInner:
		return "inner"
	case JoinTypeFullOuter:
		return "full_outer"
	case JoinTypeLeftOuter:
		return "left_outer"
	case JoinTypeRightOuter:
		return "right_outer"
	case JoinTypeLeftAnti:
		return "left_anti"
	case JoinTypeLeftSemi:
		return "left_semi"
	default:
		return "unspecified"
	}
}

// SetOpType selects the set-operation semantics.
type SetOpType int32

const (
	SetOpTypeUnspecified SetOpType = iota
	SetOpTypeIntersect
	SetOpTypeUnion
	SetOpTypeExcept
)

func (t SetOpType) String() string {
	switch t {
	case SetOpTypeIntersect:
		return "intersect"
	case SetOpTypeUnion:
		return "union"
	case SetOpTypeExcept:
		return "except"
	default:
		return "unspecified"
	}
}

// SortDirection orders a sort field ascending or descending.
type SortDirection int32

const (
	SortDirectionUnspecified SortDirection = iota
	SortDirectionAscending
	SortDirectionDescending
)

func (d SortDirection) String() string {
	switch d {
	case SortDirectionAscending:
		return "ascending"
	case SortDirectionDescending:
		return "descending"
	default:
		return "unspecified"
	}
}

// NullOrdering places nulls first or last within a sort field.
type NullOrdering int32

const (
	NullOrderingUnspecified NullOrdering = iota
	NullOrderingFirst
	NullOrderingLast
)

func (o NullOrdering) String() string {
	switch o {
	case NullOrderingFirst:
		return "first"
	case NullOrderingLast:
		return "last"
	default:
		return "unspecified"
	}
}

// NamedTable references a catalog table by its unparsed identifier.
type NamedTable struct {
	UnparsedIdentifier string
}

// DataSource references an external storage reader by format name, with an
// optional schema string and reader options. The reader itself is an
// external collaborator.
type DataSource struct {
	Format  string
	Schema  string
	Options map[string]string
}

// Read is a leaf producing rows from a named table or an external data
// source. Exactly one of the two must be set.
type Read struct {
	NamedTable *NamedTable
	DataSource *DataSource
}

// Project evaluates expressions over its input. Input may be nil,
// representing a constant-only projection with no source table; this is the
// only unary variant whose child is optional.
type Project struct {
	Input       *Relation
	Expressions []expr.Expression
}

// Filter keeps input rows for which Condition evaluates true.
type Filter struct {
	Input     *Relation
	Condition expr.Expression
}

// Join combines two inputs. JoinCondition and a non-empty UsingColumns are
// mutually exclusive; both may be present syntactically, and the validator
// rejects the combination.
type Join struct {
	Left          *Relation
	Right         *Relation
	JoinCondition expr.Expression
	JoinType      JoinType
	UsingColumns  []string
}

// SetOperation combines two inputs with set semantics. IsAll and ByName are
// independent modifiers; all four combinations are legal.
type SetOperation struct {
	LeftInput  *Relation
	RightInput *Relation
	SetOpType  SetOpType
	IsAll      bool
	ByName     bool
}

// SortField is one ordered sort key.
type SortField struct {
	Expression expr.Expression
	Direction  SortDirection
	Nulls      NullOrdering
}

// Sort orders its input by an ordered sequence of sort fields.
type Sort struct {
	Input      *Relation
	SortFields []SortField
}

// Limit keeps at most Limit rows. Limit must be >= 0.
type Limit struct {
	Input *Relation
	Limit int32
}

// Offset skips the first Offset rows. Offset must be >= 0.
type Offset struct {
	Input  *Relation
	Offset int32
}

// Aggregate groups its input by the grouping expressions and evaluates the
// result expressions per group.
type Aggregate struct {
	Input               *Relation
	GroupingExpressions []expr.Expression
	ResultExpressions   []expr.Expression
}

// SQL is a leaf carrying a raw query string for the engine's own parser.
type SQL struct {
	Query string
}

// QualifiedAttribute pairs a column name with its fully-resolved type. It
// describes the schema of a LocalRelation, bypassing name resolution
// entirely.
type QualifiedAttribute struct {
	Name string
	Type types.DataType
}

// LocalRelation is a leaf carrying an in-plan literal table. Data is
// row-major: its length is the row count times the attribute count.
type LocalRelation struct {
	Attributes []QualifiedAttribute
	Data       []literal.Literal
}

// Sample keeps a random fraction of input rows. Bounds are within [0, 1]
// with LowerBound <= UpperBound. A nil Seed means non-deterministic.
type Sample struct {
	Input           *Relation
	LowerBound      float64
	UpperBound      float64
	WithReplacement bool
	Seed            *int64
}

// Range is a leaf generating int64 values from Start (default 0) up to
// exclusive End in increments of Step. End is required and Step must be
// non-zero. NumPartitions, if present, must be > 0.
type Range struct {
	Start         *int64
	End           *int64
	Step          int64
	NumPartitions *int32
}

// SubqueryAlias names its input as a subquery, optionally qualified.
type SubqueryAlias struct {
	Input     *Relation
	Alias     string
	Qualifier []string
}

// Repartition redistributes its input into NumPartitions partitions.
// NumPartitions must be > 0; Shuffle defaults to false.
type Repartition struct {
	Input         *Relation
	NumPartitions int32
	Shuffle       bool
}

// RenameColumnsBySameLengthNames renames every column positionally.
//
// Analyzer contract: the length of ColumnNames must equal the input's
// resolved column count. The schema is not known to this layer, so the
// check is the analyzer's to honor, not the validator's.
type RenameColumnsBySameLengthNames struct {
	Input       *Relation
	ColumnNames []string
}

// RenameColumnsByNameToNameMap renames columns by name. The map's value set
// must contain no duplicate targets. Keys absent from the resolved schema
// are analyzer-time no-ops, not IR-time errors.
type RenameColumnsByNameToNameMap struct {
	Input            *Relation
	RenameColumnsMap map[string]string
}

// ShowString renders its input as a display string of at most NumRows rows.
// Truncate caps cell width in characters, 0 meaning no truncation.
type ShowString struct {
	Input    *Relation
	NumRows  int32
	Truncate int32
	Vertical bool
}

// NAFill replaces nulls. With one value and no columns the value broadcasts
// to every compatible column; with one value and explicit columns it
// broadcasts to just those; with several values their count must equal the
// column count (position-paired). Values must be non-empty.
type NAFill struct {
	Input  *Relation
	Cols   []string
	Values []literal.Literal
}

// StatSummary computes the named summary statistics over its input.
type StatSummary struct {
	Input      *Relation
	Statistics []string
}

// StatCrosstab computes a pair-wise frequency table of two columns.
type StatCrosstab struct {
	Input *Relation
	Col1  string
	Col2  string
}

// Unknown is a deliberate placeholder used only by test fixtures. It is not
// a forward-compatibility mechanism: the decoder reports genuinely unknown
// variant tags as unsupported-variant errors and never produces Unknown,
// and the validator rejects it.
type Unknown struct{}

func (*Read) relType()                           {}
func (*Project) relType()                        {}
func (*Filter) relType()                         {}
func (*Join) relType()                           {}
func (*SetOperation) relType()                   {}
func (*Sort) relType()                           {}
func (*Limit) relType()                          {}
func (*Offset) relType()                         {}
func (*Aggregate) relType()                      {}
func (*SQL) relType()                            {}
func (*LocalRelation) relType()                  {}
func (*Sample) relType()                         {}
func (*Range) relType()                          {}
func (*SubqueryAlias) relType()                  {}
func (*Repartition) relType()                    {}
func (*RenameColumnsBySameLengthNames) relType() {}
func (*RenameColumnsByNameToNameMap) relType()   {}
func (*ShowString) relType()                     {}
func (*NAFill) relType()                         {}
func (*StatSummary) relType()                    {}
func (*StatCrosstab) relType()                   {}
func (*Unknown) relType()                        {}

func (*Read) Name() string                           { return "read" }
func (*Project) Name() string                        { return "project" }
func (*Filter) Name() string                         { return "filter" }
func (*Join) Name() string                           { return "join" }
func (*SetOperation) Name() string                   { return "set_op" }
func (*Sort) Name() string                           { return "sort" }
func (*Limit) Name() string                          { return "limit" }
func (*Offset) Name() string                         { return "offset" }
func (*Aggregate) Name() string                      { return "aggregate" }
func (*SQL) Name() string                            { return "sql" }
func (*LocalRelation) Name() string                  { return "local_relation" }
func (*Sample) Name() string                         { return "sample" }
func (*Range) Name() string                          { return "range" }
func (*SubqueryAlias) Name() string                  { return "subquery_alias" }
func (*Repartition) Name() string                    { return "repartition" }
func (*RenameColumnsBySameLengthNames) Name() string { return "rename_columns_by_same_length_names" }
func (*RenameColumnsByNameToNameMap) Name() string   { return "rename_columns_by_name_to_name_map" }
func (*ShowString) Name() string                     { return "show_string" }
func (*NAFill) Name() string                         { return "fill_na" }
func (*StatSummary) Name() string                    { return "summary" }
func (*StatCrosstab) Name() string                   { return "crosstab" }
func (*Unknown) Name() string                        { return "unknown" }

func (*Read) Inputs() []*Relation          { return nil }
func (*SQL) Inputs() []*Relation           { return nil }
func (*LocalRelation) Inputs() []*Relation { return nil }
func (*Range) Inputs() []*Relation         { return nil }
func (*Unknown) Inputs() []*Relation       { return nil }

func (r *Project) Inputs() []*Relation {
	if r.Input == nil {
		return nil
	}
	return []*Relation{r.Input}
}

func (r *Filter) Inputs() []*Relation      { return unary(r.Input) }
func (r *Sort) Inputs() []*Relation        { return unary(r.Input) }
func (r *Limit) Inputs() []*Relation       { return unary(r.Input) }
func (r *Offset) Inputs() []*Relation      { return unary(r.Input) }
func (r *Aggregate) Inputs() []*Relation   { return unary(r.Input) }
func (r *Sample) Inputs() []*Relation      { return unary(r.Input) }
func (r *SubqueryAlias) Inputs() []*Relation { return unary(r.Input) }
func (r *Repartition) Inputs() []*Relation { return unary(r.Input) }
func (r *RenameColumnsBySameLengthNames) Inputs() []*Relation { return unary(r.Input) }
func (r *RenameColumnsByNameToNameMap) Inputs() []*Relation   { return unary(r.Input) }
func (r *ShowString) Inputs() []*Relation  { return unary(r.Input) }
func (r *NAFill) Inputs() []*Relation      { return unary(r.Input) }
func (r *StatSummary) Inputs() []*Relation { return unary(r.Input) }
func (r *StatCrosstab) Inputs() []*Relation { return unary(r.Input) }

func (r *Join) Inputs() []*Relation {
	return binary(r.Left, r.Right)
}

func (r *SetOperation) Inputs() []*Relation {
	return binary(r.LeftInput, r.RightInput)
}

func unary(in *Relation) []*Relation {
	if in == nil {
		return nil
	}
	return []*Relation{in}
}

func binary(left, right *Relation) []*Relation {
	out := make([]*Relation, 0, 2)
	if left != nil {
		out = append(out, left)
	}
	if right != nil {
		out = append(out, right)
	}
	return out
}

// New wraps a variant in a Relation envelope.
func New(rel RelType) *Relation {
	return &Relation{Rel: rel}
}

// NewWithSource wraps a variant and records where it was built.
func NewWithSource(rel RelType, sourceInfo string) *Relation {
	return &Relation{Common: &RelationCommon{SourceInfo: sourceInfo}, Rel: rel}
}

// VariantName returns the variant name of a relation, or "unset" when no
// variant is populated.
func (r *Relation) VariantName() string {
	if r == nil || r.Rel == nil {
		return "unset"
	}
	return r.Rel.Name()
}

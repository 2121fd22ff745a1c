package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/planwire/internal/plan"
)

// Fixture is one declarative plan document.
type Fixture struct {
	// Name identifies the fixture in test output and CLI messages.
	Name string `yaml:"name" json:"name"`

	// Description explains what the plan exercises.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Plan is the root relation node.
	Plan *Node `yaml:"plan" json:"plan"`
}

// Node describes one relation. Exactly one variant field must be set; the
// builder rejects anything else before the validator would.
type Node struct {
	SourceInfo string `yaml:"source_info,omitempty" json:"source_info,omitempty"`

	Read        *ReadNode        `yaml:"read,omitempty" json:"read,omitempty"`
	Project     *ProjectNode     `yaml:"project,omitempty" json:"project,omitempty"`
	Filter      *FilterNode      `yaml:"filter,omitempty" json:"filter,omitempty"`
	Join        *JoinNode        `yaml:"join,omitempty" json:"join,omitempty"`
	SetOp       *SetOpNode       `yaml:"set_op,omitempty" json:"set_op,omitempty"`
	Sort        *SortNode        `yaml:"sort,omitempty" json:"sort,omitempty"`
	Limit       *LimitNode       `yaml:"limit,omitempty" json:"limit,omitempty"`
	Offset      *OffsetNode      `yaml:"offset,omitempty" json:"offset,omitempty"`
	Aggregate   *AggregateNode   `yaml:"aggregate,omitempty" json:"aggregate,omitempty"`
	SQL         *SQLNode         `yaml:"sql,omitempty" json:"sql,omitempty"`
	Sample      *SampleNode      `yaml:"sample,omitempty" json:"sample,omitempty"`
	Range       *RangeNode       `yaml:"range,omitempty" json:"range,omitempty"`
	Subquery    *SubqueryNode    `yaml:"subquery_alias,omitempty" json:"subquery_alias,omitempty"`
	Repartition *RepartitionNode `yaml:"repartition,omitempty" json:"repartition,omitempty"`
	RenameSame  *RenameSameNode  `yaml:"rename_columns,omitempty" json:"rename_columns,omitempty"`
	RenameMap   *RenameMapNode   `yaml:"rename_columns_map,omitempty" json:"rename_columns_map,omitempty"`
	ShowString  *ShowStringNode  `yaml:"show_string,omitempty" json:"show_string,omitempty"`
	FillNA      *FillNANode      `yaml:"fill_na,omitempty" json:"fill_na,omitempty"`
	Summary     *SummaryNode     `yaml:"summary,omitempty" json:"summary,omitempty"`
	Crosstab    *CrosstabNode    `yaml:"crosstab,omitempty" json:"crosstab,omitempty"`
	Unknown     *struct{}        `yaml:"unknown,omitempty" json:"unknown,omitempty"`
}

type ReadNode struct {
	Table  string            `yaml:"table,omitempty" json:"table,omitempty"`
	Format string            `yaml:"format,omitempty" json:"format,omitempty"`
	Schema string            `yaml:"schema,omitempty" json:"schema,omitempty"`
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

type ProjectNode struct {
	Input       *Node      `yaml:"input,omitempty" json:"input,omitempty"`
	Expressions []ExprNode `yaml:"expressions" json:"expressions"`
}

type FilterNode struct {
	Input     *Node    `yaml:"input" json:"input"`
	Condition ExprNode `yaml:"condition" json:"condition"`
}

type JoinNode struct {
	Left         *Node     `yaml:"left" json:"left"`
	Right        *Node     `yaml:"right" json:"right"`
	Type         string    `yaml:"type" json:"type"`
	Condition    *ExprNode `yaml:"condition,omitempty" json:"condition,omitempty"`
	UsingColumns []string  `yaml:"using_columns,omitempty" json:"using_columns,omitempty"`
}

type SetOpNode struct {
	Left   *Node  `yaml:"left" json:"left"`
	Right  *Node  `yaml:"right" json:"right"`
	Type   string `yaml:"type" json:"type"`
	IsAll  bool   `yaml:"is_all,omitempty" json:"is_all,omitempty"`
	ByName bool   `yaml:"by_name,omitempty" json:"by_name,omitempty"`
}

type SortFieldNode struct {
	Expr      ExprNode `yaml:"expr" json:"expr"`
	Direction string   `yaml:"direction" json:"direction"`
	Nulls     string   `yaml:"nulls" json:"nulls"`
}

type SortNode struct {
	Input  *Node           `yaml:"input" json:"input"`
	Fields []SortFieldNode `yaml:"fields" json:"fields"`
}

type LimitNode struct {
	Input *Node `yaml:"input" json:"input"`
	Limit int32 `yaml:"limit" json:"limit"`
}

type OffsetNode struct {
	Input  *Node `yaml:"input" json:"input"`
	Offset int32 `yaml:"offset" json:"offset"`
}

type AggregateNode struct {
	Input    *Node      `yaml:"input" json:"input"`
	GroupBy  []ExprNode `yaml:"group_by,omitempty" json:"group_by,omitempty"`
	Results  []ExprNode `yaml:"results,omitempty" json:"results,omitempty"`
}

type SQLNode struct {
	Query string `yaml:"query" json:"query"`
}

type SampleNode struct {
	Input           *Node   `yaml:"input" json:"input"`
	LowerBound      float64 `yaml:"lower_bound" json:"lower_bound"`
	UpperBound      float64 `yaml:"upper_bound" json:"upper_bound"`
	WithReplacement bool    `yaml:"with_replacement,omitempty" json:"with_replacement,omitempty"`
	Seed            *int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
}

type RangeNode struct {
	Start         *int64 `yaml:"start,omitempty" json:"start,omitempty"`
	End           *int64 `yaml:"end" json:"end"`
	Step          int64  `yaml:"step" json:"step"`
	NumPartitions *int32 `yaml:"num_partitions,omitempty" json:"num_partitions,omitempty"`
}

type SubqueryNode struct {
	Input     *Node    `yaml:"input" json:"input"`
	Alias     string   `yaml:"alias" json:"alias"`
	Qualifier []string `yaml:"qualifier,omitempty" json:"qualifier,omitempty"`
}

type RepartitionNode struct {
	Input         *Node `yaml:"input" json:"input"`
	NumPartitions int32 `yaml:"num_partitions" json:"num_partitions"`
	Shuffle       bool  `yaml:"shuffle,omitempty" json:"shuffle,omitempty"`
}

type RenameSameNode struct {
	Input *Node    `yaml:"input" json:"input"`
	Names []string `yaml:"names" json:"names"`
}

type RenameMapNode struct {
	Input   *Node             `yaml:"input" json:"input"`
	Renames map[string]string `yaml:"renames" json:"renames"`
}

type ShowStringNode struct {
	Input    *Node `yaml:"input" json:"input"`
	NumRows  int32 `yaml:"num_rows" json:"num_rows"`
	Truncate int32 `yaml:"truncate,omitempty" json:"truncate,omitempty"`
	Vertical bool  `yaml:"vertical,omitempty" json:"vertical,omitempty"`
}

type FillNANode struct {
	Input  *Node      `yaml:"input" json:"input"`
	Cols   []string   `yaml:"cols,omitempty" json:"cols,omitempty"`
	Values []LitNode  `yaml:"values" json:"values"`
}

type SummaryNode struct {
	Input      *Node    `yaml:"input" json:"input"`
	Statistics []string `yaml:"statistics,omitempty" json:"statistics,omitempty"`
}

type CrosstabNode struct {
	Input *Node  `yaml:"input" json:"input"`
	Col1  string `yaml:"col1" json:"col1"`
	Col2  string `yaml:"col2" json:"col2"`
}

// Load reads a fixture from a YAML (.yaml/.yml) or CUE (.cue) file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".cue":
		return parseCUE(path, data)
	default:
		return nil, fmt.Errorf("load fixture %s: unsupported extension", path)
	}
}

func parseYAML(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

func parseCUE(path string, data []byte) (*Fixture, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	var fx Fixture
	if err := v.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &fx, nil
}

// Build constructs the relation tree this fixture describes.
func (f *Fixture) Build() (*plan.Relation, error) {
	if f.Plan == nil {
		return nil, fmt.Errorf("fixture %q has no plan", f.Name)
	}
	return buildNode(f.Plan)
}

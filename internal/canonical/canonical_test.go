package canonical

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
)

func tableScan(name string) *plan.Relation {
	return plan.New(&plan.Read{NamedTable: &plan.NamedTable{UnparsedIdentifier: name}})
}

func limitFilterPlan() *plan.Relation {
	return plan.NewWithSource(&plan.Limit{
		Input: plan.New(&plan.Filter{
			Input:     tableScan("events"),
			Condition: expr.Fn("gt", expr.Attr("ts"), expr.Lit(literal.I64(5))),
		}),
		Limit: 10,
	}, "example.go:1")
}

func TestMarshalGolden(t *testing.T) {
	b, err := Marshal(limitFilterPlan())
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "limit_filter_plan", b)
}

func TestMarshalDeterministic(t *testing.T) {
	// Two independently built copies of the same tree must render to the
	// same bytes regardless of map iteration order.
	a, err := Marshal(limitFilterPlan())
	require.NoError(t, err)
	b, err := Marshal(limitFilterPlan())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalSortsMapDerivedKeys(t *testing.T) {
	rel := plan.New(&plan.RenameColumnsByNameToNameMap{
		Input:            tableScan("t"),
		RenameColumnsMap: map[string]string{"zeta": "z", "alpha": "a", "mid": "m"},
	})
	b, err := Marshal(rel)
	require.NoError(t, err)
	assert.Contains(t, string(b), `{"alpha":"a","mid":"m","zeta":"z"}`)
}

func TestMarshalNormalizesToNFC(t *testing.T) {
	composed := plan.New(&plan.SQL{Query: "caf\u00e9"})
	decomposed := plan.New(&plan.SQL{Query: "cafe\u0301"})

	a, err := Marshal(composed)
	require.NoError(t, err)
	b, err := Marshal(decomposed)
	require.NoError(t, err)
	assert.Equal(t, a, b, "both Unicode forms of the same text share one rendering")
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	b, err := Marshal(plan.New(&plan.SQL{Query: "SELECT a <> b & c"}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `SELECT a <> b & c`)
}

func TestMarshalRejectsNonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		rel := plan.New(&plan.NAFill{
			Input:  tableScan("t"),
			Values: []literal.Literal{literal.New(literal.FP64(f))},
		})
		_, err := Marshal(rel)
		assert.Error(t, err, "%v has no canonical rendering", f)
	}
}

func TestMarshalRejectsUnsetNodes(t *testing.T) {
	_, err := Marshal(nil)
	assert.Error(t, err)

	_, err = Marshal(&plan.Relation{})
	assert.Error(t, err)
}

func TestFingerprintShape(t *testing.T) {
	fp, err := Fingerprint(limitFilterPlan())
	require.NoError(t, err)
	assert.Len(t, fp, 64, "hex-encoded SHA-256")

	again, err := Fingerprint(limitFilterPlan())
	require.NoError(t, err)
	assert.Equal(t, fp, again)
}

func TestFingerprintSeparatesPlans(t *testing.T) {
	a, err := Fingerprint(plan.New(&plan.Limit{Input: tableScan("t"), Limit: 10}))
	require.NoError(t, err)
	b, err := Fingerprint(plan.New(&plan.Limit{Input: tableScan("t"), Limit: 11}))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "changing any field must change the identity")
}

func TestCompareUTF16AboveBasicPlane(t *testing.T) {
	// U+1D306 encodes as a surrogate pair starting at 0xD834, which sorts
	// before the single unit 0xFF61 even though the raw byte order
	// disagrees; RFC 8785 demands the UTF-16 ordering.
	assert.Equal(t, -1, compareUTF16("\U0001D306", "｡"))
	assert.Equal(t, 1, compareUTF16("｡", "\U0001D306"))
	assert.Equal(t, 0, compareUTF16("same", "same"))
	assert.Equal(t, -1, compareUTF16("ab", "abc"))
}

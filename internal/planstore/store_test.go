package planstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/validate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func tableScan(name string) *plan.Relation {
	return plan.New(&plan.Read{NamedTable: &plan.NamedTable{UnparsedIdentifier: name}})
}

func samplePlan() *plan.Relation {
	return plan.NewWithSource(&plan.Limit{
		Input: plan.New(&plan.Filter{
			Input:     tableScan("events"),
			Condition: expr.Fn("gt", expr.Attr("ts"), expr.Lit(literal.I64(5))),
		}),
		Limit: 10,
	}, "pipeline.go:17")
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rel := samplePlan()
	fp, err := s.Put(ctx, rel)
	require.NoError(t, err)
	require.Len(t, fp, 64)

	got, err := s.Get(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, rel, got)
}

func TestPutIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, samplePlan())
	require.NoError(t, err)
	second, err := s.Put(ctx, samplePlan())
	require.NoError(t, err)
	assert.Equal(t, first, second, "same content, same identity")

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "duplicate put must not create a second row")
}

func TestPutRejectsInvalidPlan(t *testing.T) {
	s := openTestStore(t)

	bad := plan.New(&plan.Limit{Input: tableScan("t"), Limit: -1})
	_, err := s.Put(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, validate.IsCode(err, validate.CodeRange), "got %v", err)

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries, "a rejected plan leaves no row behind")
}

func TestGetMissingFingerprint(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fpA, err := s.Put(ctx, plan.New(&plan.SQL{Query: "SELECT 1"}))
	require.NoError(t, err)
	fpB, err := s.Put(ctx, plan.NewWithSource(&plan.SQL{Query: "SELECT 2"}, "repl:1"))
	require.NoError(t, err)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, fpA, entries[0].Fingerprint)
	assert.Equal(t, fpB, entries[1].Fingerprint)
	assert.Less(t, entries[0].CreatedSeq, entries[1].CreatedSeq)
	assert.Equal(t, "repl:1", entries[1].SourceInfo)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.db")

	s, err := Open(path)
	require.NoError(t, err)
	fp, err := s.Put(context.Background(), samplePlan())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening applies the schema again without clobbering existing rows.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, samplePlan(), got)
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/planwire/internal/plan"
	"github.com/roach88/planwire/internal/wire"
)

func negativeLimitPlan() *plan.Relation {
	return plan.New(&plan.Limit{
		Input: plan.New(&plan.Read{NamedTable: &plan.NamedTable{UnparsedIdentifier: "events"}}),
		Limit: -1,
	})
}

const fixtureYAML = `
name: top-events
plan:
  limit:
    limit: 10
    input:
      filter:
        condition:
          fn:
            name: gt
            args:
              - {attr: ts}
              - {lit: {int: 5}}
        input:
          read: {table: events}
`

const invalidFixtureYAML = `
name: negative-limit
plan:
  limit:
    limit: -1
    input:
      read: {table: events}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEncodeWritesPlanFile(t *testing.T) {
	dir := t.TempDir()
	fxPath := writeFile(t, dir, "top.yaml", fixtureYAML)

	stdout, _, err := run(t, "encode", fxPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, `encoded "top-events"`)

	planPath := filepath.Join(dir, "top.plan")
	data, err := os.ReadFile(planPath)
	require.NoError(t, err)

	rel, err := wire.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "limit", rel.VariantName())
}

func TestEncodeJSONOutput(t *testing.T) {
	dir := t.TempDir()
	fxPath := writeFile(t, dir, "top.yaml", fixtureYAML)
	outPath := filepath.Join(dir, "out.plan")

	stdout, _, err := run(t, "--format", "json", "encode", fxPath, "-o", outPath)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "top-events", data["fixture"])
	assert.Equal(t, outPath, data["output"])
	assert.Len(t, data["fingerprint"], 64)
}

func TestEncodeRejectsInvalidPlan(t *testing.T) {
	dir := t.TempDir()
	fxPath := writeFile(t, dir, "bad.yaml", invalidFixtureYAML)

	stdout, _, err := run(t, "encode", fxPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "RANGE")
}

func TestEncodeMissingFixture(t *testing.T) {
	_, _, err := run(t, "encode", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fxPath := writeFile(t, dir, "top.yaml", fixtureYAML)
	planPath := filepath.Join(dir, "top.plan")

	_, _, err := run(t, "encode", fxPath, "-o", planPath)
	require.NoError(t, err)

	stdout, _, err := run(t, "validate", planPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "valid limit plan")
}

func TestValidateReportsViolationWithPath(t *testing.T) {
	dir := t.TempDir()

	// Bytes that decode cleanly but carry a negative limit.
	planPath := filepath.Join(dir, "bad.plan")
	encoded := encodeNegativeLimit(t)
	require.NoError(t, os.WriteFile(planPath, encoded, 0o644))

	stdout, _, err := run(t, "validate", planPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "RANGE")
	assert.Contains(t, stdout, "root")
}

func TestValidateGarbageBytes(t *testing.T) {
	dir := t.TempDir()
	planPath := writeFile(t, dir, "garbage.plan", "\xff\xff\xff\xff")

	stdout, _, err := run(t, "validate", planPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [")
}

func TestInspectRendersCanonicalJSON(t *testing.T) {
	dir := t.TempDir()
	fxPath := writeFile(t, dir, "top.yaml", fixtureYAML)
	planPath := filepath.Join(dir, "top.plan")

	_, _, err := run(t, "encode", fxPath, "-o", planPath)
	require.NoError(t, err)

	stdout, _, err := run(t, "inspect", planPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "variant:     limit")
	assert.Contains(t, stdout, `"unparsed_identifier":"events"`)
}

func TestInspectSkipsValidation(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "bad.plan")
	require.NoError(t, os.WriteFile(planPath, encodeNegativeLimit(t), 0o644))

	// A semantically broken plan still renders so it can be diagnosed.
	stdout, _, err := run(t, "inspect", planPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"limit":-1`)
}

func TestStorePutGetList(t *testing.T) {
	dir := t.TempDir()
	fxPath := writeFile(t, dir, "top.yaml", fixtureYAML)
	planPath := filepath.Join(dir, "top.plan")
	dbPath := filepath.Join(dir, "plans.db")

	_, _, err := run(t, "encode", fxPath, "-o", planPath)
	require.NoError(t, err)

	stdout, _, err := run(t, "store", "--db", dbPath, "put", planPath)
	require.NoError(t, err)
	require.Contains(t, stdout, "stored plan ")
	fingerprint := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(stdout), "stored plan "))
	require.Len(t, fingerprint, 64)

	stdout, _, err = run(t, "store", "--db", dbPath, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, fingerprint)

	gotPath := filepath.Join(dir, "restored.plan")
	stdout, _, err = run(t, "store", "--db", dbPath, "get", fingerprint, "-o", gotPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote limit plan")

	original, err := os.ReadFile(planPath)
	require.NoError(t, err)
	restored, err := os.ReadFile(gotPath)
	require.NoError(t, err)
	assert.Equal(t, original, restored, "deterministic encoding survives the store")
}

func TestStoreGetMissing(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "plans.db")

	_, _, err := run(t, "store", "--db", dbPath, "get",
		strings.Repeat("0", 64), "-o", filepath.Join(dir, "out.plan"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRootRejectsBadFlags(t *testing.T) {
	_, _, err := run(t, "--format", "xml", "validate", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)

	_, _, err = run(t, "--max-depth", "0", "validate", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid max-depth")
}

func TestMaxDepthFlagReachesCodec(t *testing.T) {
	dir := t.TempDir()
	fxPath := writeFile(t, dir, "top.yaml", fixtureYAML)

	// The pipeline nests three relations plus an expression; depth 2 is
	// too shallow for it.
	stdout, _, err := run(t, "--max-depth", "2", "encode", fxPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "DEPTH_EXCEEDED")
}

// encodeNegativeLimit produces wire bytes for a limit of -1 over a table
// scan, a plan the codec accepts and the validator rejects.
func encodeNegativeLimit(t *testing.T) []byte {
	t.Helper()
	b, err := wire.Encode(negativeLimitPlan())
	require.NoError(t, err)
	return b
}

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/planwire/internal/expr"
	"github.com/roach88/planwire/internal/literal"
	"github.com/roach88/planwire/internal/plan"
)

func mustEncode(t *testing.T, rel *plan.Relation, opts ...Option) []byte {
	t.Helper()
	b, err := Encode(rel, opts...)
	require.NoError(t, err)
	return b
}

func TestDecodeRejectsSecondVariantField(t *testing.T) {
	// A relation body is just its fields; concatenating two single-variant
	// bodies yields one message with two variant fields set.
	first := mustEncode(t, plan.New(&plan.SQL{Query: "SELECT 1"}))
	second := mustEncode(t, plan.New(&plan.Limit{Limit: 3}))

	_, err := Decode(append(first, second...))
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeOneofMultiSet), "got %v", err)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "root", de.Path.String())
}

func TestDecodeRejectsUnrecognizedVariantTag(t *testing.T) {
	// Tag 42 is not assigned to any relation variant.
	b := protowire.AppendTag(nil, 42, protowire.BytesType)
	b = protowire.AppendBytes(b, nil)

	_, err := Decode(b)
	require.Error(t, err)
	assert.True(t, IsUnsupportedVariant(err), "got %v", err)
}

func TestDecodeUnknownSentinelTag(t *testing.T) {
	// The reserved sentinel tag decodes to Unknown; rejecting it is the
	// validator's job, not the codec's.
	decoded, err := Decode(mustEncode(t, plan.New(&plan.Unknown{})))
	require.NoError(t, err)
	assert.IsType(t, &plan.Unknown{}, decoded.Rel)
}

func TestDecodeSkipsUnrecognizedBodyFields(t *testing.T) {
	// A field number inside a variant payload that this build does not know
	// is skipped, so newer producers can add scalars without breaking us.
	body := protowire.AppendTag(nil, 2, protowire.VarintType) // limit
	body = protowire.AppendVarint(body, 7)
	body = protowire.AppendTag(body, 15, protowire.VarintType) // future field
	body = protowire.AppendVarint(body, 1)

	b := protowire.AppendTag(nil, relLimitTag, protowire.BytesType)
	b = protowire.AppendBytes(b, body)

	decoded, err := Decode(b)
	require.NoError(t, err)
	limit, ok := decoded.Rel.(*plan.Limit)
	require.True(t, ok)
	assert.Equal(t, int32(7), limit.Limit)
}

func TestDecodeTruncatedBytes(t *testing.T) {
	full := mustEncode(t, plan.New(&plan.Filter{
		Input:     tableScan("t"),
		Condition: expr.Fn("gt", expr.Attr("a"), expr.Lit(literal.I64(1))),
	}))

	for cut := 1; cut < len(full); cut += 7 {
		_, err := Decode(full[:len(full)-cut])
		assert.Error(t, err, "cut %d bytes", cut)
	}
}

func TestDecodeGarbageBytes(t *testing.T) {
	_, err := Decode([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	require.Error(t, err)

	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestDecodeEmptyBytes(t *testing.T) {
	// An empty buffer is a relation with no variant set: structurally fine
	// for the codec, rejected later by validation.
	decoded, err := Decode(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded.Rel)
}

func deepFilterChain(depth int) *plan.Relation {
	rel := plan.New(&plan.SQL{Query: "SELECT 1"})
	for i := 0; i < depth; i++ {
		rel = plan.New(&plan.Filter{Input: rel, Condition: expr.Lit(literal.Boolean(true))})
	}
	return rel
}

func TestEncodeDepthCeiling(t *testing.T) {
	_, err := Encode(deepFilterChain(8), WithMaxDepth(4))
	require.Error(t, err)
	assert.True(t, IsDepthExceeded(err), "got %v", err)

	_, err = Encode(deepFilterChain(8), WithMaxDepth(16))
	assert.NoError(t, err)
}

func TestDecodeDepthCeiling(t *testing.T) {
	b := mustEncode(t, deepFilterChain(8), WithMaxDepth(64))

	_, err := Decode(b, WithMaxDepth(4))
	require.Error(t, err)
	assert.True(t, IsDepthExceeded(err), "got %v", err)

	_, err = Decode(b, WithMaxDepth(64))
	assert.NoError(t, err)
}

func TestDepthCeilingCountsExpressionNesting(t *testing.T) {
	e := expr.Expression(expr.Attr("x"))
	for i := 0; i < 300; i++ {
		e = expr.Fn("not", e)
	}
	rel := plan.New(&plan.Filter{Input: tableScan("t"), Condition: e})

	_, err := Encode(rel)
	require.Error(t, err, "expression nesting past the default ceiling")
	assert.True(t, IsDepthExceeded(err), "got %v", err)
}

func TestEncodeRejectsNilAndUnset(t *testing.T) {
	_, err := Encode(nil)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeMalformed))

	_, err = Encode(&plan.Relation{})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeMalformed))
}

func TestDecodeErrorCarriesPath(t *testing.T) {
	// Corrupt the nested input of a limit so the failure points below root.
	inner := protowire.AppendTag(nil, 42, protowire.BytesType)
	inner = protowire.AppendBytes(inner, nil)

	body := protowire.AppendTag(nil, 1, protowire.BytesType) // input
	body = protowire.AppendBytes(body, inner)

	b := protowire.AppendTag(nil, relLimitTag, protowire.BytesType)
	b = protowire.AppendBytes(b, body)

	_, err := Decode(b)
	require.Error(t, err)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "root/limit.input", de.Path.String())
}

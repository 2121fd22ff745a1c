package literal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndNewNullable(t *testing.T) {
	lit := New(I64(42))
	assert.Equal(t, I64(42), lit.Value)
	assert.False(t, lit.Nullable)

	n := NewNullable(String("x"))
	assert.Equal(t, String("x"), n.Value)
	assert.True(t, n.Nullable)
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.MustParse("a2f766a9-5f9e-41a9-9b2c-7b92f7b0c0a1")
	lit := NewUUID(id)
	require.Len(t, []byte(lit), 16)

	back, err := lit.AsUUID()
	require.NoError(t, err)
	assert.Equal(t, id, back)
}

func TestAsUUIDRejectsWrongWidth(t *testing.T) {
	_, err := UUID([]byte{0x01, 0x02}).AsUUID()
	assert.Error(t, err)
}

func TestKindNameCoversEveryKind(t *testing.T) {
	kinds := []Value{
		Boolean(true), I8(1), I16(1), I32(1), I64(1), FP32(1), FP64(1),
		String("s"), Binary{0x01}, Timestamp(1), TimestampTZ(1), Date(1),
		Time(1), FixedChar("c"), FixedBinary{0x01}, UUID(make([]byte, 16)),
		&VarChar{Value: "v", Length: 4},
		&IntervalYearToMonth{Years: 1},
		&IntervalDayToSecond{Days: 1},
		&Decimal{Value: make([]byte, 16), Precision: 5},
		&Struct{}, &List{}, &Map{}, &Null{}, &EmptyList{}, &EmptyMap{},
		&UserDefined{TypeReference: 7},
	}
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		name := KindName(k)
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate kind name %q", name)
		seen[name] = true
	}
}

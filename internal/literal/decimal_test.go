package literal

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNegativeOneIsAllOnes(t *testing.T) {
	d, err := DecimalFromString("-1", 5, 0)
	require.NoError(t, err)

	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), d.Value,
		"two's complement of -1 fills all 16 bytes")

	n, err := d.Unscaled()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n.Int64())
}

func TestDecimalRoundTrip(t *testing.T) {
	cases := []struct {
		in        string
		precision int32
		scale     int32
		want      string
	}{
		{"0", 1, 0, "0"},
		{"-12.345", 10, 3, "-12.345"},
		{"99999", 5, 0, "99999"},
		{"1.5", 4, 2, "1.50"},
		{"-0.001", 38, 3, "-0.001"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := DecimalFromString(tc.in, tc.precision, tc.scale)
			require.NoError(t, err)
			require.Len(t, d.Value, 16, "wire width never varies with precision")

			v, err := d.Apd()
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Text('f'))
		})
	}
}

func TestDecimalRescales(t *testing.T) {
	// 1.5 at scale 3 has unscaled value 1500.
	d, err := DecimalFromString("1.5", 6, 3)
	require.NoError(t, err)

	n, err := d.Unscaled()
	require.NoError(t, err)
	assert.Equal(t, int64(1500), n.Int64())
}

func TestDecimalRejectsBadShapes(t *testing.T) {
	_, err := DecimalFromString("1", 0, 0)
	assert.Error(t, err, "precision below 1")

	_, err = DecimalFromString("1", 39, 0)
	assert.Error(t, err, "precision above the maximum")

	_, err = DecimalFromString("1", 5, 6)
	assert.Error(t, err, "scale above precision")

	_, err = DecimalFromString("1.23", 5, 1)
	assert.Error(t, err, "not exactly representable at scale 1")

	_, err = DecimalFromString("123456", 5, 0)
	assert.Error(t, err, "six digits do not fit precision 5")
}

func TestDecimalLargeMagnitudes(t *testing.T) {
	// 38 nines is the widest representable decimal.
	wide := "99999999999999999999999999999999999999"
	d, err := DecimalFromString(wide, 38, 0)
	require.NoError(t, err)

	n, err := d.Unscaled()
	require.NoError(t, err)

	want, ok := new(big.Int).SetString(wide, 10)
	require.True(t, ok)
	assert.Zero(t, n.Cmp(want))

	neg, err := DecimalFromString("-"+wide, 38, 0)
	require.NoError(t, err)
	m, err := neg.Unscaled()
	require.NoError(t, err)
	assert.Zero(t, m.Cmp(new(big.Int).Neg(want)))
}

func TestDecimalUnscaledRejectsWrongWidth(t *testing.T) {
	d := &Decimal{Value: []byte{0x01}, Precision: 5, Scale: 0}
	_, err := d.Unscaled()
	assert.Error(t, err)
}

package literal

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// MaxDecimalPrecision is the largest declarable decimal precision.
const MaxDecimalPrecision = 38

// decimalWidth is the fixed wire width of a decimal magnitude in bytes. The
// width never varies with the declared precision.
const decimalWidth = 16

var (
	two128         = new(big.Int).Lsh(big.NewInt(1), 128)
	maxDecimalMag  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minDecimalMag  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// NewDecimal builds a Decimal literal from an arbitrary-precision decimal,
// rescaled to the given scale. It fails if the value cannot be represented
// exactly at that scale, exceeds the declared precision, or overflows the
// fixed 16-byte two's-complement magnitude.
func NewDecimal(d *apd.Decimal, precision, scale int32) (*Decimal, error) {
	if precision < 1 || precision > MaxDecimalPrecision {
		return nil, fmt.Errorf("decimal precision %d out of range [1, %d]", precision, MaxDecimalPrecision)
	}
	if scale < 0 || scale > precision {
		return nil, fmt.Errorf("decimal scale %d out of range [0, %d]", scale, precision)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("decimal value %s is not finite", d)
	}

	n := d.Coeff.MathBigInt()
	if d.Negative {
		n = new(big.Int).Neg(n)
	} else {
		n = new(big.Int).Set(n)
	}

	// Rescale the unscaled integer so that value = n * 10^-scale.
	shift := int64(d.Exponent) + int64(scale)
	switch {
	case shift > 0:
		n.Mul(n, pow10(shift))
	case shift < 0:
		q, r := new(big.Int).QuoRem(n, pow10(-shift), new(big.Int))
		if r.Sign() != 0 {
			return nil, fmt.Errorf("decimal %s is not exactly representable at scale %d", d, scale)
		}
		n = q
	}

	if countDigits(n) > int(precision) {
		return nil, fmt.Errorf("decimal %s does not fit precision %d at scale %d", d, precision, scale)
	}
	value, err := encodeTwosComplement(n)
	if err != nil {
		return nil, err
	}
	return &Decimal{Value: value, Precision: precision, Scale: scale}, nil
}

// DecimalFromString is NewDecimal over a decimal string such as "-12.345".
func DecimalFromString(s string, precision, scale int32) (*Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return NewDecimal(d, precision, scale)
}

// MustDecimalFromString is like DecimalFromString but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDecimalFromString(s string, precision, scale int32) *Decimal {
	d, err := DecimalFromString(s, precision, scale)
	if err != nil {
		panic(err)
	}
	return d
}

// Apd interprets the 16-byte magnitude using the declared scale and returns
// the arbitrary-precision value. It fails if the magnitude is not exactly
// 16 bytes.
func (d *Decimal) Apd() (*apd.Decimal, error) {
	n, err := d.Unscaled()
	if err != nil {
		return nil, err
	}
	var coeff apd.BigInt
	coeff.SetMathBigInt(n)
	return apd.NewWithBigInt(&coeff, -d.Scale), nil
}

// Unscaled decodes the 16-byte little-endian two's-complement magnitude as a
// signed integer. The caller divides by 10^Scale to obtain the value.
func (d *Decimal) Unscaled() (*big.Int, error) {
	if len(d.Value) != decimalWidth {
		return nil, fmt.Errorf("decimal magnitude is %d bytes, want %d", len(d.Value), decimalWidth)
	}
	be := make([]byte, decimalWidth)
	for i, b := range d.Value {
		be[decimalWidth-1-i] = b
	}
	n := new(big.Int).SetBytes(be)
	if be[0]&0x80 != 0 {
		n.Sub(n, two128)
	}
	return n, nil
}

// String renders the decimal at its declared scale, or a diagnostic form if
// the magnitude is malformed.
func (d *Decimal) String() string {
	v, err := d.Apd()
	if err != nil {
		return fmt.Sprintf("decimal(<%d bytes>, %d, %d)", len(d.Value), d.Precision, d.Scale)
	}
	return v.Text('f')
}

// encodeTwosComplement writes n as 16 bytes of little-endian two's
// complement. n must fit a signed 128-bit integer.
func encodeTwosComplement(n *big.Int) ([]byte, error) {
	if n.Cmp(maxDecimalMag) > 0 || n.Cmp(minDecimalMag) < 0 {
		return nil, fmt.Errorf("decimal magnitude %s overflows 128 bits", n)
	}
	v := n
	if n.Sign() < 0 {
		v = new(big.Int).Add(two128, n)
	}
	be := v.Bytes()
	out := make([]byte, decimalWidth)
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out, nil
}

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}

// countDigits returns the number of decimal digits in |n|, with 0 counted as
// one digit.
func countDigits(n *big.Int) int {
	s := new(big.Int).Abs(n).String()
	return len(s)
}

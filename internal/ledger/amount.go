// internal/ledger/amount.go
package ledger

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Decimals is the fixed-point scale shared by the token and both game
// services. All wire amounts are integers scaled by 10^Decimals; conversion
// to and from human-readable decimal strings happens at the gateway boundary
// and nowhere else.
const Decimals = 18

var scale = sdkmath.NewIntWithDecimal(1, Decimals)

// Amount is a signed fixed-point token amount in base units. The zero value
// behaves as zero.
type Amount struct {
	v sdkmath.Int
}

// ZeroAmount returns the zero amount. For Withdraw, zero means "all".
func ZeroAmount() Amount {
	return Amount{v: sdkmath.ZeroInt()}
}

// NewAmount builds an amount from a whole number of tokens.
func NewAmount(tokens int64) Amount {
	return Amount{v: sdkmath.NewInt(tokens).Mul(scale)}
}

// AmountFromRaw wraps an already-scaled base-unit integer.
func AmountFromRaw(raw sdkmath.Int) Amount {
	return Amount{v: raw}
}

// ParseAmount converts a human-readable decimal string ("12.5") into base
// units. More than Decimals fractional digits is an error, not a rounding.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > Decimals {
		return Amount{}, fmt.Errorf("amount %q has more than %d decimal places", s, Decimals)
	}
	digits := intPart + fracPart + strings.Repeat("0", Decimals-len(fracPart))
	raw, ok := sdkmath.NewIntFromString(digits)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		raw = raw.Neg()
	}
	return Amount{v: raw}, nil
}

// MustParseAmount is ParseAmount for constants in tests and wiring.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// raw guards against the nil big.Int inside a zero-value sdkmath.Int.
func (a Amount) raw() sdkmath.Int {
	if a.v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return a.v
}

// Raw exposes the base-unit integer for wire encoding.
func (a Amount) Raw() sdkmath.Int { return a.raw() }

// Format renders the amount as a human-readable decimal string with
// insignificant trailing zeros trimmed.
func (a Amount) Format() string {
	raw := a.raw()
	sign := ""
	if raw.IsNegative() {
		sign = "-"
		raw = raw.Neg()
	}
	quo := raw.Quo(scale)
	rem := raw.Mod(scale)
	if rem.IsZero() {
		return sign + quo.String()
	}
	frac := rem.String()
	frac = strings.Repeat("0", Decimals-len(frac)) + frac
	frac = strings.TrimRight(frac, "0")
	return sign + quo.String() + "." + frac
}

func (a Amount) String() string { return a.Format() }

func (a Amount) IsZero() bool     { return a.raw().IsZero() }
func (a Amount) IsNegative() bool { return a.raw().IsNegative() }
func (a Amount) IsPositive() bool { return a.raw().IsPositive() }

func (a Amount) Add(b Amount) Amount { return Amount{v: a.raw().Add(b.raw())} }
func (a Amount) Sub(b Amount) Amount { return Amount{v: a.raw().Sub(b.raw())} }
func (a Amount) Neg() Amount         { return Amount{v: a.raw().Neg()} }

// MulRatio scales the amount by num/den, truncating. Used for payout math in
// the in-memory ledger.
func (a Amount) MulRatio(num, den int64) Amount {
	return Amount{v: a.raw().Mul(sdkmath.NewInt(num)).Quo(sdkmath.NewInt(den))}
}

func (a Amount) Cmp(b Amount) int    { return a.raw().BigInt().Cmp(b.raw().BigInt()) }
func (a Amount) Equal(b Amount) bool { return a.raw().Equal(b.raw()) }
func (a Amount) LT(b Amount) bool    { return a.raw().LT(b.raw()) }
func (a Amount) GTE(b Amount) bool   { return a.raw().GTE(b.raw()) }

// MarshalJSON encodes the amount as a base-unit decimal string, matching the
// ledger's uint256/int256 wire form.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.raw().String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted or bare base-unit integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	raw, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return fmt.Errorf("invalid base-unit amount %q", s)
	}
	a.v = raw
	return nil
}

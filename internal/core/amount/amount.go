package amount

import (
	"fmt"
	"math/bits"
)

// Amount is a quantity of native currency in wei.
type Amount uint64

const WeiPerEther Amount = 1_000_000_000_000_000_000

// GweiPerEther is kept for conversions in tooling output.
const GweiPerEther Amount = 1_000_000_000

func New(wei uint64) Amount {
	return Amount(wei)
}

func (a Amount) Wei() uint64 {
	return uint64(a)
}

func (a Amount) Add(other Amount) Amount {
	return a + other
}

func (a Amount) Sub(other Amount) Amount {
	return a - other
}

func (a Amount) Mul(factor uint64) Amount {
	return a * Amount(factor)
}

// AddChecked returns a+other and whether the sum overflowed uint64.
func (a Amount) AddChecked(other Amount) (Amount, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(other), 0)
	return Amount(sum), carry != 0
}

// MulChecked returns a*factor and whether the product overflowed uint64.
func (a Amount) MulChecked(factor uint64) (Amount, bool) {
	hi, lo := bits.Mul64(uint64(a), factor)
	return Amount(lo), hi != 0
}

func (a Amount) IsZero() bool {
	return a == 0
}

func (a Amount) String() string {
	return fmt.Sprintf("%d", uint64(a))
}

// BPSDenominator is the basis-point scale used for royalty math.
const BPSDenominator = 10_000

// BPSShare returns the bps share of a, rounded down.
func (a Amount) BPSShare(bps uint16) Amount {
	return Amount(uint64(a) * uint64(bps) / BPSDenominator)
}

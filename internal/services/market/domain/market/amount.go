package market

import (
	"errors"
	"math/bits"
	"strconv"
)

// Amount is a quantity of the single native value unit, in minor units.
type Amount uint64

// BasePoints is a fee rate where 10000 is 100%.
type BasePoints uint32

// MaxFeeRate is the largest accepted platform fee rate.
const MaxFeeRate BasePoints = 10000

// ErrFeeRateOutOfRange reports a rate above MaxFeeRate.
var ErrFeeRateOutOfRange = errors.New("fee rate exceeds 10000 base points")

// String renders the amount in minor units.
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// SplitFee divides a session payment between platform and producer.
// The platform part is floor(paid*rate/10000) computed on a 128-bit
// intermediate; the producer receives the remainder, so the parts always sum
// to paid.
func SplitFee(paid Amount, rate BasePoints) (platformPart, producerPart Amount, err error) {
	if rate > MaxFeeRate {
		return 0, 0, ErrFeeRateOutOfRange
	}
	hi, lo := bits.Mul64(uint64(paid), uint64(rate))
	// hi < MaxFeeRate because rate <= MaxFeeRate, so Div64 cannot overflow.
	quotient, _ := bits.Div64(hi, lo, uint64(MaxFeeRate))
	platformPart = Amount(quotient)
	return platformPart, paid - platformPart, nil
}

// addAmount returns a+b and whether the sum overflowed.
func addAmount(a, b Amount) (Amount, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	return Amount(sum), carry != 0
}

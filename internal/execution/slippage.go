package execution

import "github.com/JP-Fernando/trading-tool/internal/schema"

// SlippageInput is everything a slippage policy may look at.
type SlippageInput struct {
	MidPrice           float64
	OrderQty           float64
	AvailableLiquidity float64
	Side               schema.Side
}

// SlippageFunc turns a market snapshot and order size into a raw execution
// price. Implementations must be pure functions of their input.
type SlippageFunc func(SlippageInput) float64

// MidPrice executes at the mid with no cost.
func MidPrice(in SlippageInput) float64 {
	return in.MidPrice
}

// Constant always returns price, regardless of the market.
func Constant(price float64) SlippageFunc {
	return func(SlippageInput) float64 {
		return price
	}
}

// FixedBps moves the price against the order by bps basis points of mid.
func FixedBps(bps float64) SlippageFunc {
	frac := bps / 10000.0
	return func(in SlippageInput) float64 {
		return in.MidPrice * (1 + in.Side.Sign()*frac)
	}
}

// LinearImpact moves the price against the order proportionally to the
// share of top-of-book liquidity the order consumes. With no liquidity the
// mid is returned.
func LinearImpact(coef float64) SlippageFunc {
	return func(in SlippageInput) float64 {
		if in.AvailableLiquidity <= 0 {
			return in.MidPrice
		}
		impact := coef * in.OrderQty / in.AvailableLiquidity
		return in.MidPrice * (1 + in.Side.Sign()*impact)
	}
}

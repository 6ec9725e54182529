package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Indicator keys as persisted with the strategy snapshot.
const (
	KeyAskingPrice = "asking_price"
	KeyShortTermMA = "short_term_ma"
	KeyLongTermMA  = "long_term_ma"
)

type IndicatorSnapshot struct {
	AskingPrice decimal.Decimal
	ShortTermMA decimal.Decimal
	LongTermMA  decimal.Decimal
}

func (s IndicatorSnapshot) Values() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		KeyAskingPrice: s.AskingPrice,
		KeyShortTermMA: s.ShortTermMA,
		KeyLongTermMA:  s.LongTermMA,
	}
}

// Spread is the short/long moving-average difference as a percentage of
// their midpoint.
func Spread(short, long decimal.Decimal) (decimal.Decimal, error) {
	mid := short.Add(long).Div(two)
	if mid.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: short=%s long=%s", ErrIndeterminateSpread, short, long)
	}
	return hundred.Mul(short.Sub(long)).Div(mid), nil
}

// Signal maps a spread to a side. The threshold is in percent and applies
// symmetrically to entry and exit.
func Signal(snapshot IndicatorSnapshot, invested bool, threshold decimal.Decimal) (Side, decimal.Decimal) {
	diff, err := Spread(snapshot.ShortTermMA, snapshot.LongTermMA)
	if err != nil {
		return Stay, decimal.Zero
	}
	switch {
	case diff.GreaterThanOrEqual(threshold) && !invested:
		return Buy, diff
	case diff.LessThanOrEqual(threshold.Neg()) && invested:
		return Sell, diff
	default:
		return Stay, diff
	}
}

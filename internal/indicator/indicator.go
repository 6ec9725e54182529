// Package indicator computes moving averages over decimal price series.
package indicator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Canonical crossover windows, in periods.
const (
	ShortWindow = 10
	LongWindow  = 20
)

var ErrNotEnoughData = errors.New("not enough data for moving average")

type Provider interface {
	MovingAverage(prices []decimal.Decimal, window int) (decimal.Decimal, error)
}

// SMA is the simple moving average over the last window prices.
type SMA struct{}

func (SMA) MovingAverage(prices []decimal.Decimal, window int) (decimal.Decimal, error) {
	if window <= 0 {
		return decimal.Zero, errors.New("window must be positive")
	}
	if len(prices) < window {
		return decimal.Zero, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughData, len(prices), window)
	}
	return decimal.Avg(prices[len(prices)-window], prices[len(prices)-window+1:]...), nil
}

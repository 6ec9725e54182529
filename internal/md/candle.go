package md

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Candle field names: bid/ask legs of open/high/low/close, plus the
// bid/ask of a current-price quote.
const (
	PriceAsk      = "ask"
	PriceBid      = "bid"
	PriceAskOpen  = "openAsk"
	PriceBidOpen  = "openBid"
	PriceAskHigh  = "highAsk"
	PriceBidHigh  = "highBid"
	PriceAskLow   = "lowAsk"
	PriceBidLow   = "lowBid"
	PriceAskClose = "closeAsk"
	PriceBidClose = "closeBid"
)

var (
	ErrMissingField = errors.New("candle field missing")
	ErrNoCandles    = errors.New("no candles")
)

// Candle maps a price field name to its value.
type Candle map[string]decimal.Decimal

// Normalize extracts one field from every candle, keeping the input order
// (most recent last).
func Normalize(candles []Candle, field string) ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, 0, len(candles))
	for i, candle := range candles {
		price, ok := candle[field]
		if !ok {
			return nil, fmt.Errorf("candle %d: %w: %s", i, ErrMissingField, field)
		}
		prices = append(prices, price)
	}
	return prices, nil
}

// LastCandle assumes the latest candle sits at len-1.
func LastCandle(candles []Candle) (Candle, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles[len(candles)-1], nil
}

// ParseCandles reads a {"candles": [{...}, ...]} payload. Non-numeric
// fields such as timestamps or the completion flag are skipped.
func ParseCandles(payload []byte) ([]Candle, error) {
	if !gjson.ValidBytes(payload) {
		return nil, errors.New("invalid candle payload")
	}
	list := gjson.GetBytes(payload, "candles")
	if !list.IsArray() {
		return nil, errors.New("candle payload has no candles array")
	}

	var (
		candles []Candle
		err     error
	)
	list.ForEach(func(_, item gjson.Result) bool {
		candle := Candle{}
		item.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.Number {
				return true
			}
			price, parseErr := decimal.NewFromString(value.Raw)
			if parseErr != nil {
				err = fmt.Errorf("candle %d field %s: %w", len(candles), key.String(), parseErr)
				return false
			}
			candle[key.String()] = price
			return true
		})
		if err != nil {
			return false
		}
		candles = append(candles, candle)
		return true
	})
	if err != nil {
		return nil, err
	}
	return candles, nil
}

// NormalizeCurrent reads one field of the first quote in a
// {"prices": [{...}]} payload.
func NormalizeCurrent(payload []byte, field string) (decimal.Decimal, error) {
	value := gjson.GetBytes(payload, "prices.0."+field)
	if !value.Exists() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return decimal.NewFromString(value.String())
}

package md

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeCandle(v int64) Candle {
	return Candle{PriceAskClose: decimal.NewFromInt(v)}
}

func TestCandleBufferKeepsMostRecent(t *testing.T) {
	buffer := NewCandleBuffer(3)
	for _, v := range []int64{1, 2, 3, 4, 5} {
		buffer.Add(closeCandle(v))
	}

	values := buffer.Values()
	require.Len(t, values, 3)
	for i, want := range []int64{3, 4, 5} {
		got := values[i][PriceAskClose]
		assert.True(t, got.Equal(decimal.NewFromInt(want)), "candle %d: expected %d, got %s", i, want, got)
	}
}

func TestCandleBufferPartiallyFilled(t *testing.T) {
	buffer := NewCandleBuffer(5)
	buffer.Add(closeCandle(7))

	require.Equal(t, 1, buffer.Len())
	assert.True(t, buffer.Values()[0][PriceAskClose].Equal(decimal.NewFromInt(7)))
}

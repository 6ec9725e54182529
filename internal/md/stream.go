package md

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"
	"github.com/shopspring/decimal"
)

type CandleHandler func(Candle)

// StartStream subscribes to minute bars for symbol and hands every bar to
// handler as a Candle. It blocks until ctx is done.
func StartStream(ctx context.Context, apiKey, apiSecret, feed, symbol string, handler CandleHandler) error {
	client := stream.NewStocksClient(
		parseFeed(feed),
		stream.WithCredentials(apiKey, apiSecret),
	)

	// Connect must be called before subscribing in this SDK version
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect market data stream: %w", err)
	}

	if err := client.SubscribeToBars(func(bar stream.Bar) {
		slog.Debug("bar received", "symbol", bar.Symbol, "timestamp", bar.Timestamp, "close", bar.Close)
		handler(BarCandle(bar.Open, bar.High, bar.Low, bar.Close))
	}, symbol); err != nil {
		return fmt.Errorf("subscribe to bars: %w", err)
	}

	slog.Info("subscribed to bars", "symbol", symbol, "feed", feed)

	<-ctx.Done()
	return ctx.Err()
}

// BarCandle fills both bid and ask legs from a trade bar, which carries a
// single price per point.
func BarCandle(openPrice, highPrice, lowPrice, closePrice float64) Candle {
	o := decimal.NewFromFloat(openPrice)
	h := decimal.NewFromFloat(highPrice)
	l := decimal.NewFromFloat(lowPrice)
	c := decimal.NewFromFloat(closePrice)
	return Candle{
		PriceAskOpen:  o,
		PriceBidOpen:  o,
		PriceAskHigh:  h,
		PriceBidHigh:  h,
		PriceAskLow:   l,
		PriceBidLow:   l,
		PriceAskClose: c,
		PriceBidClose: c,
	}
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "iex":
		return marketdata.IEX
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}

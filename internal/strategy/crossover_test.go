package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossover/internal/ident"
	"crossover/internal/indicator"
	"crossover/internal/md"
	"crossover/internal/portfolio"
	"crossover/internal/store"
)

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Load(context.Context, string) (store.Record, error) {
	return store.Record{}, f.err
}

func (f failingStore) Upsert(context.Context, string, store.Snapshot, store.Session) error {
	return f.err
}

func newTestCrossover(t *testing.T, records store.Store, tradeableA, tradeableB string) *Crossover {
	t.Helper()
	cfg := Config{
		Portfolio:  portfolio.New("EUR_USD", "USD", "EUR", dec(tradeableA), dec(tradeableB)),
		DataWindow: 50,
		Interval:   "1m",
	}
	c, err := NewCrossover(context.Background(), cfg, records, ident.Func(func() string { return "strategy-1" }), indicator.SMA{})
	require.NoError(t, err)
	return c
}

func candles(prices ...int64) []md.Candle {
	out := make([]md.Candle, 0, len(prices))
	for _, p := range prices {
		out = append(out, md.Candle{md.PriceAskClose: decimal.NewFromInt(p)})
	}
	return out
}

func TestNewCrossoverGeneratesID(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	assert.Equal(t, "strategy-1", c.ID())
	assert.Equal(t, Flat, c.Position())
}

func TestNewCrossoverReloadOverridesConfig(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	persisted := portfolio.New("GBP_USD", "USD", "GBP", dec("500"), decimal.Zero)
	persisted.PairB.TradeableCurrency = dec("7")
	require.NoError(t, records.Upsert(ctx, "existing", store.Snapshot{
		Config:      store.PortfolioConfig{Instrument: persisted.Instrument, PairA: persisted.PairA, PairB: persisted.PairB},
		Profit:      dec("12"),
		Invested:    true,
		ShortWindow: 5,
		LongWindow:  15,
		Threshold:   dec("1"),
		Instrument:  persisted.Instrument,
	}, store.Session{NumTicks: 3}))

	cfg := Config{
		StrategyID: "existing",
		Portfolio:  portfolio.New("EUR_USD", "USD", "EUR", dec("1000"), decimal.Zero),
	}
	ids := ident.Func(func() string { t.Fatal("id must not be generated on reload"); return "" })
	c, err := NewCrossover(ctx, cfg, records, ids, indicator.SMA{})
	require.NoError(t, err)

	assert.Equal(t, "existing", c.ID())
	assert.Equal(t, "GBP_USD", c.Portfolio().Instrument)
	assert.True(t, c.Portfolio().Profit.Equal(dec("12")))
	assert.Equal(t, Long, c.Position())
	assert.Equal(t, 5, c.cfg.ShortWindow)
	assert.Equal(t, 15, c.cfg.LongWindow)
	assert.True(t, c.cfg.Threshold.Equal(dec("1")))
}

func TestNewCrossoverReloadFailures(t *testing.T) {
	cfg := Config{StrategyID: "missing", Portfolio: portfolio.New("EUR_USD", "USD", "EUR", dec("1"), decimal.Zero)}

	_, err := NewCrossover(context.Background(), cfg, store.NewMemoryStore(), ident.UUID{}, indicator.SMA{})
	require.ErrorIs(t, err, ErrConfigurationLoad)
	require.ErrorIs(t, err, store.ErrNotFound)

	boom := errors.New("connection refused")
	_, err = NewCrossover(context.Background(), cfg, failingStore{err: boom}, ident.UUID{}, indicator.SMA{})
	require.ErrorIs(t, err, ErrConfigurationLoad)
	require.ErrorIs(t, err, boom)
}

func TestNewCrossoverRejectsInvertedWindows(t *testing.T) {
	cfg := Config{
		Portfolio:   portfolio.New("EUR_USD", "USD", "EUR", dec("1"), decimal.Zero),
		ShortWindow: 20,
		LongWindow:  10,
	}
	_, err := NewCrossover(context.Background(), cfg, store.NewMemoryStore(), ident.UUID{}, indicator.SMA{})
	require.ErrorIs(t, err, ErrConfigurationLoad)
}

func TestAnalyzeComputesSnapshot(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	prices := make([]int64, 0, 20)
	for i := int64(1); i <= 20; i++ {
		prices = append(prices, i)
	}

	require.NoError(t, c.Analyze(candles(prices...)))
	snapshot := c.Snapshot()
	assert.True(t, snapshot.AskingPrice.Equal(dec("20")))
	assert.True(t, snapshot.ShortTermMA.Equal(dec("15.5")), "short %s", snapshot.ShortTermMA)
	assert.True(t, snapshot.LongTermMA.Equal(dec("10.5")), "long %s", snapshot.LongTermMA)
	assert.Len(t, c.Indicators(), 3)
}

func TestAnalyzeNeedsLongWindow(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	err := c.Analyze(candles(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11))
	require.ErrorIs(t, err, indicator.ErrNotEnoughData)

	side, order := c.Decide(time.Now())
	assert.Equal(t, Stay, side)
	assert.Nil(t, order)
}

func TestScenarioEntry(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	snapshot := IndicatorSnapshot{AskingPrice: dec("10.0"), ShortTermMA: dec("101"), LongTermMA: dec("100")}

	side, order := c.Evaluate(snapshot, false, time.Now())
	require.Equal(t, Buy, side)
	require.NotNil(t, order)
	assert.Equal(t, int64(100), order.Units)
	assert.Equal(t, "EUR_USD", order.Instrument)
}

func TestScenarioExit(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "0", "42")
	snapshot := IndicatorSnapshot{AskingPrice: dec("9.5"), ShortTermMA: dec("98"), LongTermMA: dec("100")}

	side, order := c.Evaluate(snapshot, true, time.Now())
	require.Equal(t, Sell, side)
	require.NotNil(t, order)
	assert.Equal(t, int64(42), order.Units)
}

func TestScenarioBelowThreshold(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "42")
	// 100.1 against 100 is a spread of roughly 0.1%.
	snapshot := IndicatorSnapshot{AskingPrice: dec("10"), ShortTermMA: dec("100.1"), LongTermMA: dec("100")}

	for _, invested := range []bool{false, true} {
		side, order := c.Evaluate(snapshot, invested, time.Now())
		assert.Equal(t, Stay, side)
		assert.Nil(t, order)
	}
}

func TestEvaluateZeroDenominatorStays(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	side, order := c.Evaluate(IndicatorSnapshot{}, false, time.Now())
	assert.Equal(t, Stay, side)
	assert.Nil(t, order)
}

func TestEvaluateAllocatesBeforeEntry(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	c.Portfolio().PairA.TradeableCurrency = dec("300")
	c.Portfolio().Profit = dec("50")
	snapshot := IndicatorSnapshot{AskingPrice: dec("10"), ShortTermMA: dec("101"), LongTermMA: dec("100")}

	_, order := c.Evaluate(snapshot, false, time.Now())
	require.NotNil(t, order)
	assert.Equal(t, int64(100), order.Units)
	assert.True(t, c.Portfolio().PairA.TradeableCurrency.Equal(dec("1000")))
}

func TestDecideDoesNotAdvancePositionWithoutConfirmation(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	c.snapshot = IndicatorSnapshot{AskingPrice: dec("10"), ShortTermMA: dec("101"), LongTermMA: dec("100")}
	c.analyzed = true

	side, order := c.Decide(time.Now())
	require.Equal(t, Buy, side)
	require.Equal(t, Flat, c.Position())

	// Unconfirmed, the same tick data keeps signalling an entry.
	side, _ = c.Decide(time.Now())
	require.Equal(t, Buy, side)

	require.NoError(t, c.ConfirmExecution(Execution{OrderID: "o-1", Side: Buy, Units: order.Units, Price: order.Price}))
	assert.Equal(t, Long, c.Position())
	assert.True(t, c.Portfolio().PairB.TradeableCurrency.Equal(dec("100")))
	assert.True(t, c.Portfolio().PairA.TradeableCurrency.IsZero())

	side, order = c.Decide(time.Now())
	assert.Equal(t, Stay, side)
	assert.Nil(t, order)
}

func TestConfirmExecutionRejectsMismatchedSide(t *testing.T) {
	c := newTestCrossover(t, store.NewMemoryStore(), "1000", "0")
	err := c.ConfirmExecution(Execution{Side: Sell, Units: 1, Price: dec("1")})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, c.Portfolio().PairA.TradeableCurrency.Equal(dec("1000")))
}

func TestShutdownAppendsSession(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	c := newTestCrossover(t, records, "1000", "0")
	started := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		require.NoError(t, records.Upsert(ctx, c.ID(), store.Snapshot{}, MakeSessionInfo(started, started, i, 0, "previous")))
	}
	before, err := records.Load(ctx, c.ID())
	require.NoError(t, err)
	n := len(before.Sessions)

	require.NoError(t, c.Analyze(candles(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20)))
	c.Portfolio().Profit = dec("3.5")
	session := MakeSessionInfo(started, started.Add(time.Hour), 120, 2, "signal")
	require.NoError(t, c.Shutdown(ctx, session))

	after, err := records.Load(ctx, c.ID())
	require.NoError(t, err)
	require.Len(t, after.Sessions, n+1)
	assert.Equal(t, session, after.Sessions[n])
	assert.True(t, after.Strategy.Profit.Equal(dec("3.5")))
	assert.Equal(t, "EUR_USD", after.Strategy.Config.Instrument)
	assert.Equal(t, []string{KeyAskingPrice, KeyLongTermMA, KeyShortTermMA}, after.Strategy.Indicators)
	assert.Equal(t, 50, after.Strategy.DataWindow)

	require.ErrorIs(t, c.Shutdown(ctx, session), ErrAlreadyShutdown)
}

func TestShutdownSurfacesPersistenceFailure(t *testing.T) {
	boom := errors.New("write timeout")
	c := newTestCrossover(t, failingStore{err: boom}, "1000", "0")

	err := c.Shutdown(context.Background(), MakeSessionInfo(time.Now(), time.Now(), 0, 0, "done"))
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, boom)
}

func TestNewCrossoverRejectsDataWindowBelowLongWindow(t *testing.T) {
	ctx := context.Background()
	records := store.NewMemoryStore()
	require.NoError(t, records.Upsert(ctx, "narrow", store.Snapshot{
		Config:      store.PortfolioConfig{Instrument: "EUR_USD"},
		ShortWindow: 15,
		LongWindow:  40,
		DataWindow:  30,
	}, store.Session{}))

	cfg := Config{
		StrategyID: "narrow",
		Portfolio:  portfolio.New("EUR_USD", "USD", "EUR", dec("1000"), decimal.Zero),
		DataWindow: 60,
	}
	_, err := NewCrossover(ctx, cfg, records, ident.UUID{}, indicator.SMA{})
	require.ErrorIs(t, err, ErrConfigurationLoad)
}

func TestNewCrossoverDataWindowDefaultsToLongWindow(t *testing.T) {
	cfg := Config{Portfolio: portfolio.New("EUR_USD", "USD", "EUR", dec("1000"), decimal.Zero)}
	c, err := NewCrossover(context.Background(), cfg, store.NewMemoryStore(), ident.UUID{}, indicator.SMA{})
	require.NoError(t, err)
	assert.Equal(t, indicator.LongWindow, c.DataWindow())
}

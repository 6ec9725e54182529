package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"crossover/internal/ident"
	"crossover/internal/indicator"
	"crossover/internal/md"
	"crossover/internal/portfolio"
	"crossover/internal/store"
)

const Name = "Moving Average Crossover"

// DefaultThreshold is the crossover threshold in percent.
var DefaultThreshold = decimal.RequireFromString("0.5")

type Config struct {
	StrategyID  string
	Portfolio   *portfolio.Portfolio
	ShortWindow int
	LongWindow  int
	DataWindow  int
	Interval    string
	Threshold   decimal.Decimal
	PriceField  string
}

// Crossover trades the spread between a short and a long moving average.
// It is driven by a single caller; none of its methods are safe for
// concurrent use.
type Crossover struct {
	id         string
	cfg        Config
	portfolio  *portfolio.Portfolio
	position   *Position
	snapshot   IndicatorSnapshot
	analyzed   bool
	indicators indicator.Provider
	store      store.Store
	shutdown   bool
}

var _ Strategy = (*Crossover)(nil)

// NewCrossover generates a strategy id when cfg has none. With an id, the
// persisted record is reloaded and overrides cfg; a failed or empty reload
// is returned as ErrConfigurationLoad.
func NewCrossover(ctx context.Context, cfg Config, records store.Store, ids ident.Factory, indicators indicator.Provider) (*Crossover, error) {
	if cfg.Portfolio == nil {
		return nil, fmt.Errorf("%w: portfolio is required", ErrConfigurationLoad)
	}
	if cfg.ShortWindow == 0 {
		cfg.ShortWindow = indicator.ShortWindow
	}
	if cfg.LongWindow == 0 {
		cfg.LongWindow = indicator.LongWindow
	}
	if cfg.Threshold.IsZero() {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.PriceField == "" {
		cfg.PriceField = md.PriceAskClose
	}

	c := &Crossover{
		id:         cfg.StrategyID,
		portfolio:  cfg.Portfolio,
		position:   NewPosition(false),
		indicators: indicators,
		store:      records,
	}

	if c.id == "" {
		c.id = ids.NewID()
		slog.Info("strategy created", "strategy_id", c.id, "name", Name, "instrument", cfg.Portfolio.Instrument)
	} else {
		record, err := records.Load(ctx, c.id)
		if err != nil {
			return nil, fmt.Errorf("%w: strategy_id=%s: %w", ErrConfigurationLoad, c.id, err)
		}
		cfg = applyRecord(cfg, record.Strategy)
		c.portfolio = cfg.Portfolio
		c.position = NewPosition(record.Strategy.Invested)
		slog.Info("strategy reloaded", "strategy_id", c.id, "sessions", len(record.Sessions), "instrument", c.portfolio.Instrument, "position", c.position.State())
	}

	if cfg.ShortWindow >= cfg.LongWindow {
		return nil, fmt.Errorf("%w: short window %d must be below long window %d", ErrConfigurationLoad, cfg.ShortWindow, cfg.LongWindow)
	}
	if cfg.DataWindow == 0 {
		cfg.DataWindow = cfg.LongWindow
	}
	if cfg.DataWindow < cfg.LongWindow {
		return nil, fmt.Errorf("%w: data window %d cannot hold long window %d", ErrConfigurationLoad, cfg.DataWindow, cfg.LongWindow)
	}
	c.cfg = cfg
	return c, nil
}

func applyRecord(cfg Config, snapshot store.Snapshot) Config {
	cfg.Portfolio = &portfolio.Portfolio{
		Instrument: snapshot.Config.Instrument,
		PairA:      snapshot.Config.PairA,
		PairB:      snapshot.Config.PairB,
		Profit:     snapshot.Profit,
		CostBasis:  snapshot.CostBasis,
		BasisUnits: snapshot.BasisUnits,
	}
	if cfg.Portfolio.PairA.InitialCurrency.IsZero() {
		cfg.Portfolio.PairA.InitialCurrency = cfg.Portfolio.PairA.StartingCurrency
	}
	if snapshot.ShortWindow > 0 {
		cfg.ShortWindow = snapshot.ShortWindow
	}
	if snapshot.LongWindow > 0 {
		cfg.LongWindow = snapshot.LongWindow
	}
	if snapshot.DataWindow > 0 {
		cfg.DataWindow = snapshot.DataWindow
	}
	if snapshot.Interval != "" {
		cfg.Interval = snapshot.Interval
	}
	if snapshot.Threshold.IsPositive() {
		cfg.Threshold = snapshot.Threshold
	}
	return cfg
}

func (c *Crossover) ID() string {
	return c.id
}

// DataWindow is the number of candles the strategy needs kept per tick.
func (c *Crossover) DataWindow() int {
	return c.cfg.DataWindow
}

func (c *Crossover) Portfolio() *portfolio.Portfolio {
	return c.portfolio
}

func (c *Crossover) Position() PositionState {
	return c.position.State()
}

func (c *Crossover) Snapshot() IndicatorSnapshot {
	return c.snapshot
}

func (c *Crossover) Indicators() map[string]decimal.Decimal {
	if !c.analyzed {
		return map[string]decimal.Decimal{}
	}
	return c.snapshot.Values()
}

// Analyze recomputes the indicator snapshot from the candle window.
func (c *Crossover) Analyze(candles []md.Candle) error {
	prices, err := md.Normalize(candles, c.cfg.PriceField)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return md.ErrNoCandles
	}
	short, err := c.indicators.MovingAverage(prices, c.cfg.ShortWindow)
	if err != nil {
		return fmt.Errorf("short moving average: %w", err)
	}
	long, err := c.indicators.MovingAverage(prices, c.cfg.LongWindow)
	if err != nil {
		return fmt.Errorf("long moving average: %w", err)
	}

	c.snapshot = IndicatorSnapshot{
		AskingPrice: prices[len(prices)-1],
		ShortTermMA: short,
		LongTermMA:  long,
	}
	c.analyzed = true
	slog.Debug("strategy data", "strategy_id", c.id, KeyAskingPrice, c.snapshot.AskingPrice, KeyShortTermMA, short, KeyLongTermMA, long)
	return nil
}

// Decide evaluates the latest snapshot against the current position.
func (c *Crossover) Decide(now time.Time) (Side, *Order) {
	if !c.analyzed {
		return Stay, nil
	}
	return c.Evaluate(c.snapshot, c.position.Invested(), now)
}

// Evaluate applies the crossover rule to snapshot. Tradeable capital is
// reallocated before every entry is sized.
func (c *Crossover) Evaluate(snapshot IndicatorSnapshot, invested bool, now time.Time) (Side, *Order) {
	side, diff := Signal(snapshot, invested, c.cfg.Threshold)
	if side == Stay {
		return Stay, nil
	}
	if side == Buy {
		c.portfolio.AllocateTradeableAmount()
	}
	order := BuildOrder(c.portfolio, side, snapshot.AskingPrice, now)
	slog.Info("crossover signal", "strategy_id", c.id, "side", side, "diff_pct", diff.StringFixed(4), "units", order.Units, "price", order.Price)
	return side, &order
}

// ConfirmExecution advances the position and books the fill on the
// portfolio. Fills that do not match the position are rejected untouched.
func (c *Crossover) ConfirmExecution(exec Execution) error {
	if err := c.position.Confirm(exec.Side); err != nil {
		return err
	}
	switch exec.Side {
	case Buy:
		c.portfolio.ApplyBuy(exec.Units, exec.Price)
	case Sell:
		c.portfolio.ApplySell(exec.Units, exec.Price)
	}
	slog.Info("execution confirmed", "strategy_id", c.id, "order_id", exec.OrderID, "side", exec.Side, "units", exec.Units, "price", exec.Price, "position", c.position.State(), "profit", c.portfolio.Profit)
	return nil
}

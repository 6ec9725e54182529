package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"crossover/internal/store"
)

func MakeSessionInfo(startedAt, endedAt time.Time, numTicks, numOrders int, shutdownCause string) store.Session {
	return store.Session{
		StartedAt:     startedAt.UTC(),
		EndedAt:       endedAt.UTC(),
		NumTicks:      numTicks,
		NumOrders:     numOrders,
		ShutdownCause: shutdownCause,
	}
}

// Shutdown persists the latest snapshot and appends session to the
// strategy's history in a single upsert. It may only run once.
func (c *Crossover) Shutdown(ctx context.Context, session store.Session) error {
	if c.shutdown {
		return ErrAlreadyShutdown
	}
	c.shutdown = true

	snapshot := c.recordSnapshot()
	if err := c.store.Upsert(ctx, c.id, snapshot, session); err != nil {
		return fmt.Errorf("%w: strategy_id=%s: %w", ErrPersistence, c.id, err)
	}
	slog.Info("session persisted", "strategy_id", c.id, "ticks", session.NumTicks, "orders", session.NumOrders, "cause", session.ShutdownCause, "profit", c.portfolio.Profit)
	return nil
}

func (c *Crossover) recordSnapshot() store.Snapshot {
	values := c.Indicators()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	p := c.portfolio
	return store.Snapshot{
		Config: store.PortfolioConfig{
			Instrument: p.Instrument,
			PairA:      p.PairA,
			PairB:      p.PairB,
		},
		Profit:          p.Profit,
		CostBasis:       p.CostBasis,
		BasisUnits:      p.BasisUnits,
		Invested:        c.position.Invested(),
		DataWindow:      c.cfg.DataWindow,
		Interval:        c.cfg.Interval,
		ShortWindow:     c.cfg.ShortWindow,
		LongWindow:      c.cfg.LongWindow,
		Threshold:       c.cfg.Threshold,
		Indicators:      keys,
		IndicatorValues: values,
		Instrument:      p.Instrument,
	}
}

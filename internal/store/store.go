// Package store persists strategy records: the latest strategy snapshot plus
// the append-only history of trading sessions.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"crossover/internal/portfolio"
)

var ErrNotFound = errors.New("strategy record not found")

// PortfolioConfig is the persisted shape of a portfolio.
type PortfolioConfig struct {
	Instrument string        `json:"instrument"`
	PairA      portfolio.Leg `json:"pair_a"`
	PairB      portfolio.Leg `json:"pair_b"`
}

// Snapshot is the latest strategy state, replaced on every upsert.
type Snapshot struct {
	Config          PortfolioConfig            `json:"config"`
	Profit          decimal.Decimal            `json:"profit"`
	CostBasis       decimal.Decimal            `json:"cost_basis"`
	BasisUnits      decimal.Decimal            `json:"basis_units"`
	Invested        bool                       `json:"invested"`
	DataWindow      int                        `json:"data_window"`
	Interval        string                     `json:"interval"`
	ShortWindow     int                        `json:"short_window"`
	LongWindow      int                        `json:"long_window"`
	Threshold       decimal.Decimal            `json:"crossover_threshold"`
	Indicators      []string                   `json:"indicators"`
	IndicatorValues map[string]decimal.Decimal `json:"indicator_values,omitempty"`
	Instrument      string                     `json:"instrument"`
}

type Session struct {
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	NumTicks      int       `json:"num_ticks"`
	NumOrders     int       `json:"num_orders"`
	ShutdownCause string    `json:"shutdown_cause"`
}

type Record struct {
	ID       string    `json:"id"`
	Strategy Snapshot  `json:"strategy_data"`
	Sessions []Session `json:"sessions"`
}

// Store upserts by strategy id: the snapshot is set, the session appended.
type Store interface {
	Load(ctx context.Context, id string) (Record, error)
	Upsert(ctx context.Context, id string, snapshot Snapshot, session Session) error
}

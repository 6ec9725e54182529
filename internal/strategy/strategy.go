package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"crossover/internal/md"
	"crossover/internal/store"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
	Stay Side = "STAY"
)

type OrderType string

const Market OrderType = "MARKET"

var (
	ErrIndeterminateSpread = errors.New("indeterminate spread")
	ErrConfigurationLoad   = errors.New("strategy configuration load failed")
	ErrPersistence         = errors.New("strategy session persist failed")
	ErrInvalidTransition   = errors.New("invalid position transition")
	ErrAlreadyShutdown     = errors.New("strategy already shut down")
)

// Execution confirms that the execution venue filled an order.
type Execution struct {
	OrderID string
	Side    Side
	Units   int64
	Price   decimal.Decimal
}

// Strategy is the capability set the engine drives once per tick.
type Strategy interface {
	ID() string
	DataWindow() int
	Analyze(candles []md.Candle) error
	Decide(now time.Time) (Side, *Order)
	ConfirmExecution(exec Execution) error
	Indicators() map[string]decimal.Decimal
	Shutdown(ctx context.Context, session store.Session) error
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"crossover/internal/broker"
	"crossover/internal/config"
	"crossover/internal/md"
	"crossover/internal/risk"
	"crossover/internal/strategy"
)

var ErrShutdown = errors.New("engine already shut down")

// Engine runs one decision cycle per tick. A tick is never processed while
// another one, or the shutdown, is in progress.
type Engine struct {
	mu          sync.Mutex
	cfg         config.Config
	strategy    strategy.Strategy
	gate        risk.Gate
	executor    broker.Executor
	decisions   *DecisionLogger
	buffer      *md.CandleBuffer
	runID       string
	orderSeqNum uint64
	pending     *broker.OrderRef
	startedAt   time.Time
	numTicks    int
	numOrders   int
	closed      bool
	now         func() time.Time
}

func New(cfg config.Config, strat strategy.Strategy, gate risk.Gate, executor broker.Executor, decisions *DecisionLogger) *Engine {
	e := &Engine{
		cfg:       cfg,
		strategy:  strat,
		gate:      gate,
		executor:  executor,
		decisions: decisions,
		buffer:    md.NewCandleBuffer(strat.DataWindow()),
		runID:     decisions.RunID(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	e.startedAt = e.now()
	return e
}

func (e *Engine) NumTicks() int {
	return e.numTicks
}

func (e *Engine) NumOrders() int {
	return e.numOrders
}

func (e *Engine) OnTick(ctx context.Context, candle md.Candle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.numTicks++
	e.buffer.Add(candle)
	e.reconcile(ctx)

	now := e.now()
	decision := Decision{
		RunID:      e.runID,
		StrategyID: e.strategy.ID(),
		Timestamp:  now,
		Tick:       e.numTicks,
		Instrument: e.cfg.Instrument,
		Side:       strategy.Stay,
	}

	if err := e.strategy.Analyze(e.buffer.Values()); err != nil {
		decision.Result = "no_analysis"
		decision.RejectReason = err.Error()
		e.decisions.Append(decision)
		slog.Debug("tick skipped", "tick", e.numTicks, "reason", err)
		return
	}
	indicators := e.strategy.Indicators()
	decision.AskingPrice = indicators[strategy.KeyAskingPrice]
	decision.ShortTermMA = indicators[strategy.KeyShortTermMA]
	decision.LongTermMA = indicators[strategy.KeyLongTermMA]

	side, order := e.strategy.Decide(now)
	decision.Side = side
	if order == nil {
		decision.Result = "stay"
		e.decisions.Append(decision)
		return
	}
	decision.Units = order.Units
	decision.Expiry = order.ExpiryISO()

	inFlight := 0
	if e.pending != nil {
		inFlight = 1
	}
	riskCtx := risk.RiskContext{
		InFlightOrders: inFlight,
		MaxNotional:    decimal.NewFromFloat(e.cfg.MaxNotional),
		KillSwitch:     e.cfg.KillSwitch,
	}
	if err := e.gate.Evaluate(*order, riskCtx); err != nil {
		decision.Result = "rejected"
		decision.RejectReason = err.Error()
		e.decisions.Append(decision)
		return
	}

	ref, err := e.executor.PlaceOrder(ctx, *order, e.nextClientOrderID())
	if err != nil {
		decision.Result = "order_failed"
		decision.RejectReason = err.Error()
		e.decisions.Append(decision)
		return
	}

	e.numOrders++
	e.pending = &ref
	decision.Result = "order_submitted"
	decision.OrderID = ref.ID
	decision.ClientOrderID = ref.ClientOrderID
	e.decisions.Append(decision)
	slog.Info("order submitted", "instrument", order.Instrument, "side", side, "units", order.Units, "order_id", ref.ID, "client_order_id", ref.ClientOrderID)

	e.reconcile(ctx)
}

// Shutdown closes the session and has the strategy persist it. It runs once;
// the persistence error is returned as is.
func (e *Engine) Shutdown(ctx context.Context, cause string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrShutdown
	}
	e.closed = true
	if e.pending != nil {
		e.reconcile(ctx)
	}
	session := strategy.MakeSessionInfo(e.startedAt, e.now(), e.numTicks, e.numOrders, cause)
	slog.Info("session ended", "run_id", e.runID, "ticks", e.numTicks, "orders", e.numOrders, "cause", cause)
	return e.strategy.Shutdown(ctx, session)
}

func (e *Engine) nextClientOrderID() string {
	e.orderSeqNum++
	return fmt.Sprintf("%s-%d", e.runID, e.orderSeqNum)
}

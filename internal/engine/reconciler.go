package engine

import (
	"context"
	"log/slog"

	"crossover/internal/broker"
)

// reconcile asks the venue about the order in flight. A fill is confirmed to
// the strategy, which is the only way its position advances; a rejected
// order is dropped and the position stays where it was.
func (e *Engine) reconcile(ctx context.Context) {
	if e.pending == nil {
		return
	}
	report, err := e.executor.OrderReport(ctx, *e.pending)
	if err != nil {
		slog.Error("reconcile order failed", "order_id", e.pending.ID, "error", err)
		return
	}

	switch report.Status {
	case broker.StatusFilled:
		if err := e.strategy.ConfirmExecution(report.Execution()); err != nil {
			slog.Error("execution confirmation rejected", "order_id", report.Ref.ID, "side", report.Ref.Side, "error", err)
		}
		e.pending = nil
	case broker.StatusRejected:
		slog.Warn("order not executed", "order_id", report.Ref.ID, "side", report.Ref.Side, "reason", report.Reason)
		e.pending = nil
	default:
		slog.Debug("order still pending", "order_id", report.Ref.ID, "status", report.Reason)
	}
}

package risk

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"crossover/internal/strategy"
)

type RiskContext struct {
	InFlightOrders int
	MaxNotional    decimal.Decimal
	KillSwitch     bool
}

// Gate vets an order before it reaches the execution venue.
type Gate struct{}

func (g Gate) Evaluate(order strategy.Order, ctx RiskContext) error {
	notional := order.Price.Mul(decimal.NewFromInt(order.Units))

	slog.Info("risk evaluation", "side", order.Side, "units", order.Units, "price", order.Price, "notional", notional)

	if ctx.KillSwitch {
		slog.Info("risk rejected", "reason", "kill_switch_enabled")
		return fmt.Errorf("kill_switch_enabled")
	}
	if ctx.InFlightOrders > 0 {
		slog.Info("risk rejected", "reason", "order_in_flight", "count", ctx.InFlightOrders)
		return fmt.Errorf("order_in_flight")
	}
	if order.Units <= 0 {
		slog.Info("risk rejected", "reason", "invalid_units", "units", order.Units)
		return fmt.Errorf("invalid_units")
	}
	if order.Side == strategy.Buy && ctx.MaxNotional.IsPositive() && notional.GreaterThan(ctx.MaxNotional) {
		slog.Info("risk rejected", "reason", "max_notional_exceeded", "notional", notional, "max", ctx.MaxNotional)
		return fmt.Errorf("max_notional_exceeded")
	}

	slog.Info("risk approved", "side", order.Side, "units", order.Units)
	return nil
}

package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"crossover/internal/strategy"
)

// Simulator fills every order immediately at its own price. It backs dry
// runs and replays.
type Simulator struct {
	seq uint64
}

var _ Executor = (*Simulator)(nil)

func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) PlaceOrder(_ context.Context, order strategy.Order, clientOrderID string) (OrderRef, error) {
	if order.Side != strategy.Buy && order.Side != strategy.Sell {
		return OrderRef{}, fmt.Errorf("unsupported order side: %s", order.Side)
	}
	id := fmt.Sprintf("sim-%d", atomic.AddUint64(&s.seq, 1))
	slog.Info("simulated order", "order_id", id, "side", order.Side, "symbol", order.Instrument, "units", order.Units, "price", order.Price)
	return OrderRef{
		ID:            id,
		ClientOrderID: clientOrderID,
		Side:          order.Side,
		Units:         order.Units,
		Price:         order.Price,
		Status:        StatusFilled,
	}, nil
}

func (s *Simulator) OrderReport(_ context.Context, ref OrderRef) (Report, error) {
	return Report{
		Ref:         ref,
		Status:      StatusFilled,
		FilledUnits: ref.Units,
		FilledPrice: ref.Price,
		Reason:      "simulated",
	}, nil
}

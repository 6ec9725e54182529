package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"crossover/internal/strategy"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusFilled   Status = "filled"
	StatusRejected Status = "rejected"
)

type OrderRef struct {
	ID            string
	ClientOrderID string
	Side          strategy.Side
	Units         int64
	Price         decimal.Decimal
	Status        Status
}

// Report is the venue's view of a previously placed order.
type Report struct {
	Ref         OrderRef
	Status      Status
	FilledUnits int64
	FilledPrice decimal.Decimal
	Reason      string
}

// Execution returns the confirmation handed to the strategy for a filled
// order.
func (r Report) Execution() strategy.Execution {
	return strategy.Execution{
		OrderID: r.Ref.ID,
		Side:    r.Ref.Side,
		Units:   r.FilledUnits,
		Price:   r.FilledPrice,
	}
}

type Executor interface {
	PlaceOrder(ctx context.Context, order strategy.Order, clientOrderID string) (OrderRef, error)
	OrderReport(ctx context.Context, ref OrderRef) (Report, error)
}

type Account struct {
	Equity      float64
	BuyingPower float64
}

// Client places orders through the Alpaca trading API.
type Client struct {
	client *alpaca.Client
}

var _ Executor = (*Client)(nil)

func New(apiKey, apiSecret, baseURL string) *Client {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &Client{client: alpaca.NewClient(opts)}
}

func (c *Client) PlaceOrder(ctx context.Context, order strategy.Order, clientOrderID string) (OrderRef, error) {
	side, err := parseSide(order.Side)
	if err != nil {
		return OrderRef{}, err
	}
	if order.Type != strategy.Market {
		return OrderRef{}, fmt.Errorf("unsupported order type: %s", order.Type)
	}

	qty := decimal.NewFromInt(order.Units)
	req := alpaca.PlaceOrderRequest{
		Symbol:        order.Instrument,
		Qty:           &qty,
		Side:          side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: clientOrderID,
	}

	placed, err := c.client.PlaceOrder(req)
	if err != nil {
		slog.Error("place order failed", "side", order.Side, "symbol", order.Instrument, "units", order.Units, "error", err)
		return OrderRef{}, err
	}

	slog.Info("place order success", "order_id", placed.ID, "side", order.Side, "symbol", order.Instrument, "units", order.Units, "expiry", order.ExpiryISO(), "status", placed.Status)
	return OrderRef{
		ID:            placed.ID,
		ClientOrderID: placed.ClientOrderID,
		Side:          order.Side,
		Units:         order.Units,
		Price:         order.Price,
		Status:        mapStatus(string(placed.Status)),
	}, nil
}

func (c *Client) OrderReport(ctx context.Context, ref OrderRef) (Report, error) {
	order, err := c.client.GetOrder(ref.ID)
	if err != nil {
		slog.Error("fetch order failed", "order_id", ref.ID, "error", err)
		return Report{}, err
	}

	report := Report{
		Ref:         ref,
		Status:      mapStatus(string(order.Status)),
		FilledUnits: order.FilledQty.IntPart(),
		FilledPrice: ref.Price,
		Reason:      string(order.Status),
	}
	if order.FilledAvgPrice != nil {
		report.FilledPrice = *order.FilledAvgPrice
	}
	slog.Info("order report", "order_id", ref.ID, "status", report.Status, "filled_units", report.FilledUnits, "filled_price", report.FilledPrice)
	return report, nil
}

func (c *Client) Account(ctx context.Context) (Account, error) {
	acct, err := c.client.GetAccount()
	if err != nil {
		slog.Error("fetch account failed", "error", err)
		return Account{}, err
	}
	equity, _ := acct.Equity.Float64()
	buyingPower, _ := acct.BuyingPower.Float64()

	slog.Info("account fetched", "equity", equity, "buying_power", buyingPower)
	return Account{Equity: equity, BuyingPower: buyingPower}, nil
}

func parseSide(side strategy.Side) (alpaca.Side, error) {
	switch side {
	case strategy.Buy:
		return alpaca.Buy, nil
	case strategy.Sell:
		return alpaca.Sell, nil
	default:
		return "", fmt.Errorf("unsupported order side: %s", side)
	}
}

// mapStatus folds the venue's order lifecycle into pending/filled/rejected.
// Partial fills stay pending until the order completes.
func mapStatus(status string) Status {
	switch strings.ToLower(status) {
	case "filled":
		return StatusFilled
	case "canceled", "expired", "rejected", "suspended", "stopped", "done_for_day", "replaced":
		return StatusRejected
	default:
		return StatusPending
	}
}

func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

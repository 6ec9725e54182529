package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"crossover/internal/portfolio"
)

const (
	orderLifetime = 24 * time.Hour
	expiryLayout  = "2006-01-02T15:04:05.000000Z"
)

type Order struct {
	Instrument string
	Units      int64
	Side       Side
	Type       OrderType
	Price      decimal.Decimal
	Expiry     time.Time
}

// ExpiryISO renders the expiry as an ISO-8601 UTC instant with a Z suffix.
func (o Order) ExpiryISO() string {
	return o.Expiry.UTC().Format(expiryLayout)
}

// BuildOrder sizes a market order for side at the asking price. Entries
// spend tradeable pair A, exits liquidate pair B.
func BuildOrder(p *portfolio.Portfolio, side Side, askingPrice decimal.Decimal, now time.Time) Order {
	var units int64
	if side == Buy {
		units = p.UnitsToBuy(askingPrice)
	} else {
		units = p.UnitsToSell(askingPrice)
	}
	return Order{
		Instrument: p.Instrument,
		Units:      units,
		Side:       side,
		Type:       Market,
		Price:      askingPrice,
		Expiry:     now.UTC().Add(orderLifetime),
	}
}

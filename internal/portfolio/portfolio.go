// Package portfolio tracks the two currency legs of a traded instrument and
// sizes positions from the capital currently available on them.
package portfolio

import (
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
)

var maxUnits = decimal.NewFromInt(math.MaxInt64)

// Leg is one side of the instrument. For pair A the tradeable amount funds
// entries; for pair B it is the quantity held.
type Leg struct {
	Name              string          `json:"name"`
	StartingCurrency  decimal.Decimal `json:"starting_currency"`
	InitialCurrency   decimal.Decimal `json:"initial_currency"`
	TradeableCurrency decimal.Decimal `json:"tradeable_currency"`
}

type Portfolio struct {
	Instrument string          `json:"instrument"`
	PairA      Leg             `json:"pair_a"`
	PairB      Leg             `json:"pair_b"`
	Profit     decimal.Decimal `json:"profit"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
	// BasisUnits are the pair B units bought through this portfolio; only
	// they carry CostBasis. Holdings brought in at start realize no profit.
	BasisUnits decimal.Decimal `json:"basis_units"`
}

// New starts a portfolio with startingA of pair A available to trade and
// startingB of pair B already held.
func New(instrument, nameA, nameB string, startingA, startingB decimal.Decimal) *Portfolio {
	return &Portfolio{
		Instrument: instrument,
		PairA: Leg{
			Name:              nameA,
			StartingCurrency:  startingA,
			InitialCurrency:   startingA,
			TradeableCurrency: startingA,
		},
		PairB: Leg{
			Name:              nameB,
			StartingCurrency:  startingB,
			InitialCurrency:   startingB,
			TradeableCurrency: startingB,
		},
	}
}

// UnitsToBuy is floor(tradeable A / price). Non-positive prices or balances
// size to zero.
func (p *Portfolio) UnitsToBuy(price decimal.Decimal) int64 {
	tradeable := p.PairA.TradeableCurrency
	if !price.IsPositive() || !tradeable.IsPositive() {
		return 0
	}
	units, _ := tradeable.QuoRem(price, 0)
	if units.GreaterThan(maxUnits) {
		return math.MaxInt64
	}
	return units.IntPart()
}

// UnitsToSell always liquidates the whole pair B balance; price is unused.
func (p *Portfolio) UnitsToSell(_ decimal.Decimal) int64 {
	held := p.PairB.TradeableCurrency
	if !held.IsPositive() {
		return 0
	}
	if held.GreaterThan(maxUnits) {
		return math.MaxInt64
	}
	return held.IntPart()
}

// AllocateTradeableAmount redeploys the full initial capital after a
// profitable run and leaves the tradeable amount alone otherwise.
func (p *Portfolio) AllocateTradeableAmount() {
	if !p.Profit.IsPositive() {
		return
	}
	if !p.PairA.TradeableCurrency.Equal(p.PairA.InitialCurrency) {
		slog.Info("tradeable amount reallocated", "leg", p.PairA.Name, "from", p.PairA.TradeableCurrency, "to", p.PairA.InitialCurrency, "profit", p.Profit)
	}
	p.PairA.TradeableCurrency = p.PairA.InitialCurrency
}

// ApplyBuy records a filled entry: pair A pays for units of pair B.
func (p *Portfolio) ApplyBuy(units int64, price decimal.Decimal) {
	qty := decimal.NewFromInt(units)
	cost := qty.Mul(price)
	p.PairA.TradeableCurrency = p.PairA.TradeableCurrency.Sub(cost)
	p.PairB.TradeableCurrency = p.PairB.TradeableCurrency.Add(qty)
	p.CostBasis = p.CostBasis.Add(cost)
	p.BasisUnits = p.BasisUnits.Add(qty)
}

// ApplySell records a filled exit. Profit is realized only on the bought
// units being closed, against their share of the cost basis; any starting
// holdings sold alongside just return their proceeds to pair A.
func (p *Portfolio) ApplySell(units int64, price decimal.Decimal) {
	qty := decimal.NewFromInt(units)
	proceeds := qty.Mul(price)

	covered := decimal.Min(qty, p.BasisUnits)
	basis := decimal.Zero
	if covered.IsPositive() {
		basis = p.CostBasis
		if p.BasisUnits.GreaterThan(covered) {
			basis = p.CostBasis.Mul(covered).Div(p.BasisUnits)
		}
		p.Profit = p.Profit.Add(covered.Mul(price).Sub(basis))
	}

	p.PairA.TradeableCurrency = p.PairA.TradeableCurrency.Add(proceeds)
	p.PairB.TradeableCurrency = p.PairB.TradeableCurrency.Sub(qty)
	p.CostBasis = p.CostBasis.Sub(basis)
	p.BasisUnits = p.BasisUnits.Sub(covered)
}

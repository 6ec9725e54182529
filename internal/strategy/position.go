package strategy

import "fmt"

type PositionState string

const (
	Flat PositionState = "FLAT"
	Long PositionState = "LONG"
)

// Position only moves on confirmed executions: BUY takes FLAT to LONG,
// SELL takes LONG to FLAT.
type Position struct {
	state PositionState
}

func NewPosition(invested bool) *Position {
	if invested {
		return &Position{state: Long}
	}
	return &Position{state: Flat}
}

func (p *Position) State() PositionState {
	return p.state
}

func (p *Position) Invested() bool {
	return p.state == Long
}

func (p *Position) Confirm(side Side) error {
	switch {
	case side == Buy && p.state == Flat:
		p.state = Long
	case side == Sell && p.state == Long:
		p.state = Flat
	default:
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, side, p.state)
	}
	return nil
}

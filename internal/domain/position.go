package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState is the lifecycle stage of an open position.
type PositionState string

const (
	StateDetect  PositionState = "DETECT"
	StateFilter  PositionState = "FILTER"
	StateBuy     PositionState = "BUY"
	StateMonitor PositionState = "MONITOR"
	StateSell    PositionState = "SELL"
)

// Position is an open holding in a single token. Created on a successful
// buy; peak price is advanced by the monitor loop, quantity and invested
// amount shrink on partial sells, and the position is removed when
// quantity reaches zero.
type Position struct {
	Mint        string
	EntryTime   time.Time
	EntryPrice  decimal.Decimal
	Quantity    decimal.Decimal
	InvestedSOL decimal.Decimal
	FeesPaidSOL decimal.Decimal
	PeakPrice   decimal.Decimal
	State       PositionState
}

// GainPct returns the unrealized gain percentage at the given price.
// Returns zero when the entry price is zero.
func (p *Position) GainPct(price decimal.Decimal) decimal.Decimal {
	if p.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return price.Sub(p.EntryPrice).Div(p.EntryPrice).Mul(decimal.NewFromInt(100))
}

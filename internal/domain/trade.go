package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType distinguishes buy and sell records.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// Exit reason codes recorded on sell trades.
const (
	ExitReasonTakeProfit     = "TAKE_PROFIT"
	ExitReasonTrailingStop   = "TRAILING_STOP"
	ExitReasonMaxHold        = "MAX_HOLD"
	ExitReasonVolumeCollapse = "VOLUME_COLLAPSE"
)

// TradeRecord is one executed (real or simulated) trade. Immutable once
// appended to the trade log; grouped by calendar day for retention.
type TradeRecord struct {
	TradeID    string          `json:"trade_id"`
	Type       TradeType       `json:"type"`
	Mint       string          `json:"mint"`
	SOLAmount  decimal.Decimal `json:"sol_amount"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
	Price      decimal.Decimal `json:"price"`
	ProfitSOL  decimal.Decimal `json:"profit_sol"`
	ProfitPct  decimal.Decimal `json:"profit_pct"`
	Reason     string          `json:"reason,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Day returns the calendar date (UTC) the record belongs to.
func (t *TradeRecord) Day() string {
	return t.Timestamp.UTC().Format("2006-01-02")
}

// TradeResult is the snapshot returned to callers after a buy or sell.
type TradeResult struct {
	Type         TradeType
	Mint         string
	SOLAmount    decimal.Decimal
	UnitAmount   decimal.Decimal
	Price        decimal.Decimal
	FeesSOL      decimal.Decimal
	ProfitSOL    decimal.Decimal
	ProfitPct    decimal.Decimal
	Reason       string
	BalanceAfter decimal.Decimal
	Timestamp    time.Time
}

// VolumeObservation is one monitor-tick volume sample for an open
// position, kept for post-hoc audit of volume-collapse exits.
type VolumeObservation struct {
	Mint        string
	TimestampMs int64
	Volume      decimal.Decimal
	Baseline    decimal.Decimal
}

// DailyPnL summarizes one calendar day of the trade log.
type DailyPnL struct {
	Date           string          `json:"date"`
	TotalTrades    int             `json:"total_trades"`
	Buys           int             `json:"buys"`
	Sells          int             `json:"sells"`
	TotalProfitSOL decimal.Decimal `json:"total_profit_sol"`
	WinningTrades  int             `json:"winning_trades"`
	LosingTrades   int             `json:"losing_trades"`
	WinRate        decimal.Decimal `json:"win_rate"`
}

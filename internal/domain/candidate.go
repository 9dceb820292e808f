package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which discovery path produced a candidate.
type Source string

const (
	SourceWebhook    Source = "WEBHOOK"
	SourceAggregator Source = "AGGREGATOR"
	SourceLogStream  Source = "LOG_STREAM"
)

// Candidate is a newly discovered token launch. Immutable once emitted by
// the detector; the mint address doubles as the candidate id.
type Candidate struct {
	Mint          string
	ObservedAt    time.Time
	LaunchedAt    time.Time
	FirstTradeSOL decimal.Decimal
	Source        Source

	// Name and Symbol are populated when the source reports them
	// (the aggregator does, the webhook does not).
	Name   string
	Symbol string

	TxSignature string
	Slot        int64
}

// Enriched carries the externally supplied fields required by the filter
// pipeline. Produced by an enrichment provider, consumed exactly once.
// Pointer fields are nil when the provider could not resolve them; the
// pipeline rejects records with unresolved required fields up front.
type Enriched struct {
	Candidate

	// AuthorityChecked reports whether the mint authority was resolved.
	// MintAuthority is nil when the authority has been renounced.
	AuthorityChecked bool
	MintAuthority    *string

	SellTaxPct    *decimal.Decimal
	SellSimulated *bool
	SOLInCurve    *decimal.Decimal

	// Holder concentration is optional; both must be set to be evaluated.
	Top10HoldersPct *decimal.Decimal
	DevHoldPct      *decimal.Decimal
}

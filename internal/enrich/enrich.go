// Package enrich defines the external data contracts the strategy needs
// beyond raw detection: candidate enrichment for filtering, price quotes
// for monitoring and a volume signal for collapse exits.
package enrich

import (
	"context"

	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/curve"
	"solana-curve-sniper/internal/domain"
)

// Provider resolves the filter-relevant fields for a candidate.
// Unresolvable fields are left nil on the result; the filter pipeline
// decides whether that is fatal.
type Provider interface {
	Enrich(ctx context.Context, c *domain.Candidate) (*domain.Enriched, error)
}

// PriceSource quotes the current curve state for a mint.
type PriceSource interface {
	// QuoteInCurve returns the SOL collected by the curve and the
	// resulting spot quote.
	QuoteInCurve(ctx context.Context, mint string) (decimal.Decimal, curve.Quote, error)
}

// VolumeSource reports a recent trading-volume signal for a mint, in
// SOL over a fixed trailing window.
type VolumeSource interface {
	RecentVolume(ctx context.Context, mint string) (decimal.Decimal, error)
}

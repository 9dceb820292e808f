// Package stub provides in-memory implementations of the enrichment
// contracts for tests and offline paper sessions.
package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/curve"
	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/enrich"
)

// ErrUnknownMint is returned when no fixture exists for a mint.
var ErrUnknownMint = errors.New("unknown mint")

// Enrichment is the fixture returned for one mint.
type Enrichment struct {
	AuthorityChecked bool
	MintAuthority    *string
	SellTaxPct       *decimal.Decimal
	SellSimulated    *bool
	SOLInCurve       *decimal.Decimal
	Top10HoldersPct  *decimal.Decimal
	DevHoldPct       *decimal.Decimal
}

// Provider serves fixed enrichment, price and volume data per mint.
// Safe for concurrent use.
type Provider struct {
	mu          sync.RWMutex
	enrichments map[string]Enrichment
	solInCurve  map[string]decimal.Decimal
	volumes     map[string]decimal.Decimal
	curve       *curve.Curve
}

// NewProvider creates an empty stub provider quoting on the default curve.
func NewProvider() *Provider {
	return &Provider{
		enrichments: make(map[string]Enrichment),
		solInCurve:  make(map[string]decimal.Decimal),
		volumes:     make(map[string]decimal.Decimal),
		curve:       curve.NewDefault(),
	}
}

// SetEnrichment registers the enrichment fixture for a mint.
func (p *Provider) SetEnrichment(mint string, e Enrichment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enrichments[mint] = e
	if e.SOLInCurve != nil {
		p.solInCurve[mint] = *e.SOLInCurve
	}
}

// SetSOLInCurve updates the curve state used for price quotes.
func (p *Provider) SetSOLInCurve(mint string, sol decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.solInCurve[mint] = sol
}

// SetVolume updates the volume signal for a mint.
func (p *Provider) SetVolume(mint string, volume decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes[mint] = volume
}

// Enrich returns the registered fixture merged onto the candidate.
func (p *Provider) Enrich(_ context.Context, c *domain.Candidate) (*domain.Enriched, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.enrichments[c.Mint]
	if !ok {
		return nil, ErrUnknownMint
	}

	return &domain.Enriched{
		Candidate:        *c,
		AuthorityChecked: e.AuthorityChecked,
		MintAuthority:    e.MintAuthority,
		SellTaxPct:       e.SellTaxPct,
		SellSimulated:    e.SellSimulated,
		SOLInCurve:       e.SOLInCurve,
		Top10HoldersPct:  e.Top10HoldersPct,
		DevHoldPct:       e.DevHoldPct,
	}, nil
}

// QuoteInCurve quotes the default curve at the registered SOL level.
func (p *Provider) QuoteInCurve(_ context.Context, mint string) (decimal.Decimal, curve.Quote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sol, ok := p.solInCurve[mint]
	if !ok {
		return decimal.Zero, curve.Quote{}, ErrUnknownMint
	}
	return sol, p.curve.Price(sol, decimal.Zero), nil
}

// RecentVolume returns the registered volume signal.
func (p *Provider) RecentVolume(_ context.Context, mint string) (decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	v, ok := p.volumes[mint]
	if !ok {
		return decimal.Zero, ErrUnknownMint
	}
	return v, nil
}

var (
	_ enrich.Provider     = (*Provider)(nil)
	_ enrich.PriceSource  = (*Provider)(nil)
	_ enrich.VolumeSource = (*Provider)(nil)
)

package strategy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-curve-sniper/internal/curve"
	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/enrich/stub"
	"solana-curve-sniper/internal/filters"
	"solana-curve-sniper/internal/ledger"
	"solana-curve-sniper/internal/storage/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func boolPtr(b bool) *bool { return &b }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// fakePrices serves an arbitrary spot price per mint so tests can move
// the market without recomputing curve reserves.
type fakePrices struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func newFakePrices() *fakePrices {
	return &fakePrices{prices: make(map[string]decimal.Decimal)}
}

func (f *fakePrices) set(mint string, price decimal.Decimal) {
	f.mu.Lock()
	f.prices[mint] = price
	f.mu.Unlock()
}

func (f *fakePrices) QuoteInCurve(_ context.Context, mint string) (decimal.Decimal, curve.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.prices[mint]
	if !ok {
		return decimal.Zero, curve.Quote{}, errors.New("no price for mint")
	}
	return decimal.Zero, curve.Quote{Price: p}, nil
}

type fakeVolumes struct {
	mu      sync.Mutex
	volumes map[string]decimal.Decimal
}

func newFakeVolumes() *fakeVolumes {
	return &fakeVolumes{volumes: make(map[string]decimal.Decimal)}
}

func (f *fakeVolumes) set(mint string, v decimal.Decimal) {
	f.mu.Lock()
	f.volumes[mint] = v
	f.mu.Unlock()
}

func (f *fakeVolumes) RecentVolume(_ context.Context, mint string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.volumes[mint]
	if !ok {
		return decimal.Zero, errors.New("no volume for mint")
	}
	return v, nil
}

type sellCall struct {
	mint   string
	amount decimal.Decimal
	reason string
}

// recordingEngine executes against the real ledger at the fake price
// and records every call. failSells makes the next N sells error.
type recordingEngine struct {
	ledger    *ledger.Ledger
	prices    *fakePrices
	buyPrice  decimal.Decimal
	buyUnits  decimal.Decimal
	buySOL    decimal.Decimal
	failSells int

	mu    sync.Mutex
	buys  []string
	sells []sellCall
}

func (e *recordingEngine) Buy(ctx context.Context, c *domain.Enriched) (*domain.TradeResult, error) {
	e.mu.Lock()
	e.buys = append(e.buys, c.Mint)
	e.mu.Unlock()
	return e.ledger.ExecuteBuy(ctx, c.Mint, e.buySOL, e.buyUnits, e.buyPrice)
}

func (e *recordingEngine) Sell(ctx context.Context, mint string, amount decimal.Decimal, reason string) (*domain.TradeResult, error) {
	e.mu.Lock()
	if e.failSells > 0 {
		e.failSells--
		e.mu.Unlock()
		return nil, errors.New("transient sell failure")
	}
	e.sells = append(e.sells, sellCall{mint: mint, amount: amount, reason: reason})
	e.mu.Unlock()

	_, quote, err := e.prices.QuoteInCurve(ctx, mint)
	if err != nil {
		return nil, err
	}
	return e.ledger.ExecuteSell(ctx, mint, amount, amount.Mul(quote.Price), quote.Price, reason)
}

type harness struct {
	orch    *Orchestrator
	ledger  *ledger.Ledger
	prices  *fakePrices
	volumes *fakeVolumes
	engine  *recordingEngine
	obs     *memory.VolumeObservationStore
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	l := ledger.New(ledger.DefaultConfig(), memory.NewTradeLogStore(), zerolog.Nop())
	prices := newFakePrices()
	volumes := newFakeVolumes()
	obs := memory.NewVolumeObservationStore()
	engine := &recordingEngine{
		ledger:   l,
		prices:   prices,
		buyPrice: dec("0.01"),
		buyUnits: dec("100"),
		buySOL:   dec("1"),
	}

	orch, err := New(cfg, Deps{
		Enricher:     stub.NewProvider(),
		Prices:       prices,
		Volumes:      volumes,
		Filters:      filters.NewPipeline(filters.DefaultConfig()),
		Engine:       engine,
		Ledger:       l,
		Observations: obs,
		Log:          zerolog.Nop(),
	})
	require.NoError(t, err)

	return &harness{orch: orch, ledger: l, prices: prices, volumes: volumes, engine: engine, obs: obs}
}

// openPosition seeds a position directly in the ledger: 100 units at
// 0.01 SOL each.
func (h *harness) openPosition(t *testing.T, mint string) {
	t.Helper()
	_, err := h.ledger.ExecuteBuy(context.Background(), mint, dec("1"), dec("100"), dec("0.01"))
	require.NoError(t, err)
	h.prices.set(mint, dec("0.01"))
	h.volumes.set(mint, dec("100"))
}

func TestOnCandidateOpensPosition(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	provider := stub.NewProvider()
	provider.SetEnrichment("Mint111", stub.Enrichment{
		AuthorityChecked: true,
		SellTaxPct:       decPtr("5"),
		SellSimulated:    boolPtr(true),
		SOLInCurve:       decPtr("5"),
	})
	h.orch.deps.Enricher = provider
	h.prices.set("Mint111", dec("0.01"))

	h.orch.OnCandidate(context.Background(), &domain.Candidate{
		Mint:          "Mint111",
		FirstTradeSOL: dec("1"),
		Source:        domain.SourceWebhook,
	})

	assert.Equal(t, []string{"Mint111"}, h.engine.buys)
	_, open := h.ledger.Position("Mint111")
	assert.True(t, open)
}

func TestOnCandidateRejectedByFilters(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	provider := stub.NewProvider()
	liveAuthority := "LiveWa11etAuthority11111111111111111111111"
	provider.SetEnrichment("Mint111", stub.Enrichment{
		AuthorityChecked: true,
		MintAuthority:    &liveAuthority,
		SellTaxPct:       decPtr("5"),
		SellSimulated:    boolPtr(true),
		SOLInCurve:       decPtr("5"),
	})
	h.orch.deps.Enricher = provider

	h.orch.OnCandidate(context.Background(), &domain.Candidate{
		Mint:          "Mint111",
		FirstTradeSOL: dec("1"),
		Source:        domain.SourceWebhook,
	})

	assert.Empty(t, h.engine.buys, "rejected candidate must not be bought")
}

func TestOnCandidateEnrichmentFailureDiscards(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	h.orch.OnCandidate(context.Background(), &domain.Candidate{Mint: "MintUnknown"})

	assert.Empty(t, h.engine.buys)
}

func TestTakeProfitSellsConfiguredFraction(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.openPosition(t, "Mint111")

	// +60% gain crosses the +50% target.
	h.prices.set("Mint111", dec("0.016"))
	h.orch.Tick(context.Background())

	require.Len(t, h.engine.sells, 1)
	assert.Equal(t, domain.ExitReasonTakeProfit, h.engine.sells[0].reason)
	assert.True(t, h.engine.sells[0].amount.Equal(dec("50")), "sold %s", h.engine.sells[0].amount)

	pos, open := h.ledger.Position("Mint111")
	require.True(t, open, "partial exit must keep the position")
	assert.True(t, pos.Quantity.Equal(dec("50")))
}

func TestTakeProfitFiresBeforeTrailingStop(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.openPosition(t, "Mint111")

	// +150% arms the trailing stop; take-profit also fires this tick.
	h.prices.set("Mint111", dec("0.025"))
	h.orch.Tick(context.Background())
	require.Len(t, h.engine.sells, 1)
	require.Equal(t, domain.ExitReasonTakeProfit, h.engine.sells[0].reason)

	// Retrace >15% from the 0.025 peak while still above the +50%
	// take-profit target: both conditions hold, take-profit wins.
	h.prices.set("Mint111", dec("0.02"))
	h.orch.Tick(context.Background())

	require.Len(t, h.engine.sells, 2)
	assert.Equal(t, domain.ExitReasonTakeProfit, h.engine.sells[1].reason)
}

func TestTrailingStopFullExit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TakeProfitTargetPct = dec("1000") // keep take-profit out of the way
	h := newHarness(t, cfg)
	h.openPosition(t, "Mint111")

	// +150% arms the stop and sets the peak.
	h.prices.set("Mint111", dec("0.025"))
	h.orch.Tick(context.Background())
	assert.Empty(t, h.engine.sells)

	// 20% below peak breaches the 15% trail.
	h.prices.set("Mint111", dec("0.02"))
	h.orch.Tick(context.Background())

	require.Len(t, h.engine.sells, 1)
	assert.Equal(t, domain.ExitReasonTrailingStop, h.engine.sells[0].reason)
	assert.True(t, h.engine.sells[0].amount.Equal(dec("100")), "trailing stop exits fully")

	_, open := h.ledger.Position("Mint111")
	assert.False(t, open)
}

func TestTrailingStopInactiveUntilArmed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TakeProfitTargetPct = dec("1000")
	h := newHarness(t, cfg)
	h.openPosition(t, "Mint111")

	// Deep drawdown without ever reaching the activation threshold:
	// there is no plain stop-loss, so nothing fires.
	h.prices.set("Mint111", dec("0.005"))
	h.orch.Tick(context.Background())

	assert.Empty(t, h.engine.sells)
	_, open := h.ledger.Position("Mint111")
	assert.True(t, open)
}

func TestMaxHoldExit(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg)
	h.openPosition(t, "Mint111")

	// Underwater and past the hold limit: exit regardless of P&L.
	h.prices.set("Mint111", dec("0.008"))
	h.orch.now = func() time.Time { return time.Now().Add(91 * time.Minute) }
	h.orch.Tick(context.Background())

	require.Len(t, h.engine.sells, 1)
	assert.Equal(t, domain.ExitReasonMaxHold, h.engine.sells[0].reason)

	_, open := h.ledger.Position("Mint111")
	assert.False(t, open)
}

func TestVolumeCollapseExit(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.openPosition(t, "Mint111")

	// Strictly increasing clock so the two observations sort apart.
	base := time.Now()
	var calls int64
	h.orch.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	// First tick captures the baseline.
	h.orch.Tick(context.Background())
	assert.Empty(t, h.engine.sells)

	// 90% drop versus the 100-SOL baseline breaches the 80% threshold.
	h.volumes.set("Mint111", dec("10"))
	h.orch.Tick(context.Background())

	require.Len(t, h.engine.sells, 1)
	assert.Equal(t, domain.ExitReasonVolumeCollapse, h.engine.sells[0].reason)

	observations, err := h.obs.ByMint(context.Background(), "Mint111")
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.True(t, observations[0].Baseline.Equal(dec("100")))
	assert.True(t, observations[1].Volume.Equal(dec("10")))
	assert.True(t, observations[1].Baseline.Equal(dec("100")),
		"baseline must stay pinned to the entry-time sample")
}

func TestFailedSellRetriedNextTick(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.openPosition(t, "Mint111")
	h.engine.failSells = 1

	h.prices.set("Mint111", dec("0.016"))
	h.orch.Tick(context.Background())

	assert.Empty(t, h.engine.sells)
	pos, open := h.ledger.Position("Mint111")
	require.True(t, open)
	assert.True(t, pos.Quantity.Equal(dec("100")), "failed sell must leave the position unchanged")

	h.orch.Tick(context.Background())
	require.Len(t, h.engine.sells, 1)
	assert.Equal(t, domain.ExitReasonTakeProfit, h.engine.sells[0].reason)
}

func TestPriceLookupFailureSkipsTick(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.openPosition(t, "MintNoPrice")
	h.prices.mu.Lock()
	delete(h.prices.prices, "MintNoPrice")
	h.prices.mu.Unlock()

	h.orch.Tick(context.Background())

	assert.Empty(t, h.engine.sells)
	_, open := h.ledger.Position("MintNoPrice")
	assert.True(t, open)
}

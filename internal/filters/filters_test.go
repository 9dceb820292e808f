package filters

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/solana"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

// goodCandidate passes every default check.
func goodCandidate() *domain.Enriched {
	return &domain.Enriched{
		Candidate: domain.Candidate{
			Mint:          "GoodMint1111111111111111111111111111111111",
			ObservedAt:    time.Now(),
			FirstTradeSOL: decimal.RequireFromString("1.5"),
			Source:        domain.SourceWebhook,
			Name:          "Sensible Token",
			Symbol:        "SNS",
		},
		AuthorityChecked: true,
		MintAuthority:    nil,
		SellTaxPct:       decPtr("2"),
		SellSimulated:    boolPtr(true),
		SOLInCurve:       decPtr("5"),
	}
}

func TestRunAllPassesCleanCandidate(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	passed, verdicts := p.RunAll(goodCandidate())
	require.True(t, passed)
	assert.Len(t, verdicts, 6)
	for _, v := range verdicts {
		assert.True(t, v.Passed, "check %s failed: %s", v.Check, v.Reason)
	}
}

func TestRunAllMissingFieldShortCircuits(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	cases := []struct {
		name   string
		mutate func(*domain.Enriched)
		field  string
	}{
		{"authority", func(c *domain.Enriched) { c.AuthorityChecked = false }, "mint_authority"},
		{"sell tax", func(c *domain.Enriched) { c.SellTaxPct = nil }, "sell_tax_pct"},
		{"sell simulation", func(c *domain.Enriched) { c.SellSimulated = nil }, "sell_simulated"},
		{"liquidity", func(c *domain.Enriched) { c.SOLInCurve = nil }, "sol_in_curve"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := goodCandidate()
			tc.mutate(c)

			passed, verdicts := p.RunAll(c)
			require.False(t, passed)
			require.Len(t, verdicts, 1, "missing field must yield exactly one verdict")
			assert.False(t, verdicts[0].Passed)
			assert.Contains(t, verdicts[0].Reason, "missing field: "+tc.field)
		})
	}
}

func TestRunAllEvaluatesAllChecksOnFailure(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	c := goodCandidate()
	c.FirstTradeSOL = decimal.RequireFromString("0.1")
	c.SellTaxPct = decPtr("50")

	passed, verdicts := p.RunAll(c)
	require.False(t, passed)
	assert.Len(t, verdicts, 6, "failures must not short-circuit the pipeline")

	reasons := FailureReasons(verdicts)
	assert.Len(t, reasons, 2)
}

func TestCheckFirstTradeSize(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	c := goodCandidate()
	c.FirstTradeSOL = decimal.RequireFromString("0.49")

	passed, verdicts := p.RunAll(c)
	assert.False(t, passed)
	assert.False(t, verdicts[0].Passed)
	assert.Equal(t, CheckFirstTradeSize, verdicts[0].Check)
}

func TestCheckMintAuthority(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	cases := []struct {
		name      string
		authority *string
		want      bool
	}{
		{"renounced", nil, true},
		{"burned to system program", strPtr(solana.SystemProgramID), true},
		{"burned to wrapped SOL", strPtr(solana.WSOLMint), true},
		{"burned to incinerator", strPtr("1nc1nerator11111111111111111111111111111111"), true},
		{"live wallet", strPtr("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := goodCandidate()
			c.MintAuthority = tc.authority

			passed, _ := p.RunAll(c)
			assert.Equal(t, tc.want, passed)
		})
	}
}

func TestCheckSellTaxBoundary(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	c := goodCandidate()
	c.SellTaxPct = decPtr("14.99")
	passed, _ := p.RunAll(c)
	assert.True(t, passed)

	c.SellTaxPct = decPtr("15")
	passed, _ = p.RunAll(c)
	assert.False(t, passed, "tax at the maximum must fail")
}

func TestCheckSellSimulation(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	c := goodCandidate()
	c.SellSimulated = boolPtr(false)

	passed, verdicts := p.RunAll(c)
	require.False(t, passed)

	var found bool
	for _, v := range verdicts {
		if v.Check == CheckSellSimulation {
			found = true
			assert.False(t, v.Passed)
		}
	}
	assert.True(t, found)
}

func TestCheckTokenName(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	cases := []struct {
		name   string
		symbol string
		want   bool
	}{
		{"Sensible Token", "SNS", true},
		{"Definitely A Rug", "RUG", false},   // banned keyword
		{"SCAMCOIN", "SCM", false},           // keyword, case-insensitive
		{"Money $$$ Printer", "MPR", false},  // repeated currency symbols
		{"ToTheMoon 🚀🚀🚀", "MOON", false}, // rocket spam
		{"Guaranteed x100", "GX", false},     // multiplier claim
		{"1000x gem", "GEM", false},          // multiplier claim, reversed
		{"MaxCoin", "MAX", true},             // "x" alone is fine
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := goodCandidate()
			c.Name = tc.name
			c.Symbol = tc.symbol

			passed, _ := p.RunAll(c)
			assert.Equal(t, tc.want, passed)
		})
	}
}

func TestCheckLiquidity(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	c := goodCandidate()
	c.SOLInCurve = decPtr("0.9")

	passed, _ := p.RunAll(c)
	assert.False(t, passed)
}

func TestCheckHoldersOptional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckHolderDistribution = true
	p := NewPipeline(cfg)

	c := goodCandidate()
	passed, verdicts := p.RunAll(c)
	require.True(t, passed, "absent holder data must pass")
	assert.Len(t, verdicts, 7)

	c.DevHoldPct = decPtr("25")
	passed, _ = p.RunAll(c)
	assert.False(t, passed, "dev holding above 10%% must fail")

	c.DevHoldPct = decPtr("5")
	c.Top10HoldersPct = decPtr("85")
	passed, _ = p.RunAll(c)
	assert.False(t, passed, "top-10 holding above 80%% must fail")

	c.Top10HoldersPct = decPtr("60")
	passed, _ = p.RunAll(c)
	assert.True(t, passed)
}

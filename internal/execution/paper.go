package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/curve"
	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/enrich"
	"solana-curve-sniper/internal/ledger"
)

// paperEngine simulates trades on the pricing curve and records them in
// the ledger. No network calls beyond the price lookup.
type paperEngine struct {
	cfg    Config
	curve  *curve.Curve
	prices enrich.PriceSource
	ledger *ledger.Ledger
	log    zerolog.Logger
}

func newPaperEngine(cfg Config, deps Deps) (*paperEngine, error) {
	if deps.Ledger == nil || deps.Prices == nil {
		return nil, errors.New("paper engine requires a ledger and a price source")
	}

	c := deps.Curve
	if c == nil {
		c = curve.NewDefault()
	}

	return &paperEngine{
		cfg:    cfg,
		curve:  c,
		prices: deps.Prices,
		ledger: deps.Ledger,
		log:    deps.Log.With().Str("component", "execution").Str("mode", "paper").Logger(),
	}, nil
}

// Buy simulates buying the configured SOL amount at the current curve
// state, slippage applied, and records the result in the ledger.
func (e *paperEngine) Buy(ctx context.Context, c *domain.Enriched) (*domain.TradeResult, error) {
	solInCurve, _, err := e.prices.QuoteInCurve(ctx, c.Mint)
	if err != nil {
		return nil, fmt.Errorf("quote curve for %s: %w", c.Mint, err)
	}

	sim := e.curve.SimulateWithSlippage(e.cfg.BuyAmountSOL, solInCurve, e.cfg.SlippageBps, true)
	if sim.OutWithSlippage.Sign() <= 0 {
		return nil, fmt.Errorf("buy simulation for %s produced no tokens", c.Mint)
	}

	// Entry price is the all-in effective price, slippage included.
	price := e.cfg.BuyAmountSOL.Div(sim.OutWithSlippage)

	result, err := e.ledger.ExecuteBuy(ctx, c.Mint, e.cfg.BuyAmountSOL, sim.OutWithSlippage, price)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("mint", c.Mint).
		Str("sol", e.cfg.BuyAmountSOL.String()).
		Str("tokens", sim.OutWithSlippage.String()).
		Str("price", price.String()).
		Str("impact_pct", sim.PriceImpactPct.String()).
		Msg("paper buy executed")
	return result, nil
}

// Sell simulates selling quantity units at the current curve state and
// records the result in the ledger.
func (e *paperEngine) Sell(ctx context.Context, mint string, quantity decimal.Decimal, reason string) (*domain.TradeResult, error) {
	solInCurve, _, err := e.prices.QuoteInCurve(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("quote curve for %s: %w", mint, err)
	}

	sim := e.curve.SimulateWithSlippage(quantity, solInCurve, e.cfg.SlippageBps, false)
	if sim.OutWithSlippage.Sign() <= 0 {
		return nil, fmt.Errorf("sell simulation for %s produced no SOL", mint)
	}

	price := sim.OutWithSlippage.Div(quantity)

	result, err := e.ledger.ExecuteSell(ctx, mint, quantity, sim.OutWithSlippage, price, reason)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("mint", mint).
		Str("tokens", quantity.String()).
		Str("sol", sim.OutWithSlippage.String()).
		Str("reason", reason).
		Str("profit_pct", result.ProfitPct.StringFixed(2)).
		Msg("paper sell executed")
	return result, nil
}

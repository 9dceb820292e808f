// Package curve implements the constant-product bonding curve used for
// token launch pricing: virtual_sol * virtual_tokens = k. All arithmetic
// is fixed-precision decimal; reserve magnitudes span many orders of
// magnitude and float64 drift compounds across repeated quotes.
package curve

import "github.com/shopspring/decimal"

func init() {
	// Quotients like k / virtual_sol need well over the default 16
	// digits before price deltas in the 1e-12 range survive.
	if decimal.DivisionPrecision < 28 {
		decimal.DivisionPrecision = 28
	}
}

// Default launch parameters for the target venue.
const (
	DefaultVirtualSOLReserves   = 30.0
	DefaultVirtualTokenReserves = 1_073_000_000.0
	DefaultRealTokenReserves    = 793_100_000.0
)

// Curve holds the immutable reserve state fixed at construction.
// k never changes for a given curve instance.
type Curve struct {
	virtualSOL    decimal.Decimal
	virtualTokens decimal.Decimal
	realTokens    decimal.Decimal
	k             decimal.Decimal
}

// New creates a curve from initial virtual reserves and real supply.
func New(virtualSOL, virtualTokens, realTokens decimal.Decimal) *Curve {
	return &Curve{
		virtualSOL:    virtualSOL,
		virtualTokens: virtualTokens,
		realTokens:    realTokens,
		k:             virtualSOL.Mul(virtualTokens),
	}
}

// NewDefault creates a curve with the venue's standard launch parameters.
func NewDefault() *Curve {
	return New(
		decimal.NewFromFloat(DefaultVirtualSOLReserves),
		decimal.NewFromFloat(DefaultVirtualTokenReserves),
		decimal.NewFromFloat(DefaultRealTokenReserves),
	)
}

// K returns the constant product.
func (c *Curve) K() decimal.Decimal { return c.k }

// Quote is a spot price computed from current curve state.
type Quote struct {
	Price     decimal.Decimal
	MarketCap decimal.Decimal
	// Infinite is set when the token-side reserve is exhausted and the
	// price is unbounded; Price and MarketCap are zero in that case.
	Infinite bool
}

// Price returns the spot price and market cap given the SOL currently in
// the curve and the tokens already sold out of it.
func (c *Curve) Price(solInCurve, tokensSold decimal.Decimal) Quote {
	vSOL := c.virtualSOL.Add(solInCurve)
	vTokens := c.virtualTokens.Sub(tokensSold)

	if vTokens.Sign() <= 0 {
		return Quote{Infinite: true}
	}

	price := vSOL.Div(vTokens)
	return Quote{
		Price:     price,
		MarketCap: price.Mul(c.realTokens),
	}
}

// TokensOutForBuy returns the tokens received for solIn and the effective
// price paid per token. Non-positive input yields zero output.
func (c *Curve) TokensOutForBuy(solIn, solInCurve decimal.Decimal) (tokensOut, effectivePrice decimal.Decimal) {
	if solIn.Sign() <= 0 {
		return decimal.Zero, decimal.Zero
	}

	vSOL := c.virtualSOL.Add(solInCurve)
	vTokens := c.k.Div(vSOL)

	newVSOL := vSOL.Add(solIn)
	newVTokens := c.k.Div(newVSOL)

	tokensOut = vTokens.Sub(newVTokens)
	if tokensOut.Sign() <= 0 {
		return decimal.Zero, decimal.Zero
	}
	return tokensOut, solIn.Div(tokensOut)
}

// SOLOutForSell returns the SOL received for tokensIn and the effective
// price obtained per token. Non-positive input yields zero output.
func (c *Curve) SOLOutForSell(tokensIn, solInCurve decimal.Decimal) (solOut, effectivePrice decimal.Decimal) {
	if tokensIn.Sign() <= 0 {
		return decimal.Zero, decimal.Zero
	}

	vSOL := c.virtualSOL.Add(solInCurve)
	vTokens := c.k.Div(vSOL)

	newVTokens := vTokens.Add(tokensIn)
	newVSOL := c.k.Div(newVTokens)

	solOut = vSOL.Sub(newVSOL)
	if solOut.Sign() <= 0 {
		return decimal.Zero, decimal.Zero
	}
	return solOut, solOut.Div(tokensIn)
}

// PriceImpact returns the absolute relative difference, in percent,
// between the spot price and the effective price of the simulated trade.
func (c *Curve) PriceImpact(amount, solInCurve decimal.Decimal, isBuy bool) decimal.Decimal {
	spot := c.Price(solInCurve, decimal.Zero)
	if spot.Infinite || spot.Price.IsZero() {
		return decimal.Zero
	}

	var effective decimal.Decimal
	if isBuy {
		_, effective = c.TokensOutForBuy(amount, solInCurve)
	} else {
		tokensOut, _ := c.TokensOutForBuy(amount, solInCurve)
		_, effective = c.SOLOutForSell(tokensOut, solInCurve)
	}

	return effective.Sub(spot.Price).Div(spot.Price).Mul(decimal.NewFromInt(100)).Abs()
}

// Simulation is the summary of one simulated trade with slippage applied.
type Simulation struct {
	Type             string
	AmountIn         decimal.Decimal
	Out              decimal.Decimal
	OutWithSlippage  decimal.Decimal
	EffectivePrice   decimal.Decimal
	SlippageBps      int64
	PriceImpactPct   decimal.Decimal
}

// SimulateWithSlippage simulates a trade and degrades the output by the
// slippage multiplier 1 + bps/10000. For buys amount is SOL in and the
// output is tokens; for sells amount is tokens in and the output is SOL.
func (c *Curve) SimulateWithSlippage(amount, solInCurve decimal.Decimal, slippageBps int64, isBuy bool) Simulation {
	multiplier := decimal.NewFromInt(1).Add(
		decimal.NewFromInt(slippageBps).Div(decimal.NewFromInt(10000)))

	if isBuy {
		tokensOut, effective := c.TokensOutForBuy(amount, solInCurve)
		return Simulation{
			Type:            "buy",
			AmountIn:        amount,
			Out:             tokensOut,
			OutWithSlippage: tokensOut.Div(multiplier),
			EffectivePrice:  effective,
			SlippageBps:     slippageBps,
			PriceImpactPct:  c.PriceImpact(amount, solInCurve, true),
		}
	}

	solOut, effective := c.SOLOutForSell(amount, solInCurve)
	return Simulation{
		Type:            "sell",
		AmountIn:        amount,
		Out:             solOut,
		OutWithSlippage: solOut.Div(multiplier),
		EffectivePrice:  effective,
		SlippageBps:     slippageBps,
		PriceImpactPct:  c.PriceImpact(solOut, solInCurve, false),
	}
}

package curve

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestKInvariantAcrossQueries(t *testing.T) {
	c := New(dec("30"), dec("1073000000"), dec("793100000"))
	k := c.K()

	// Repeated quotes with varying state must not mutate the curve.
	for i := 0; i < 100; i++ {
		sol := decimal.NewFromInt(int64(i))
		c.Price(sol, decimal.Zero)
		c.TokensOutForBuy(dec("0.1"), sol)
		c.SOLOutForSell(dec("1000"), sol)

		if !c.K().Equal(k) {
			t.Fatalf("k changed after query %d: %s != %s", i, c.K(), k)
		}
	}
}

func TestPriceMatchesReserveRatio(t *testing.T) {
	c := NewDefault()

	q := c.Price(dec("5"), decimal.Zero)
	if q.Infinite {
		t.Fatal("unexpected infinite price")
	}

	want := dec("35").Div(dec("1073000000"))
	if !q.Price.Equal(want) {
		t.Errorf("price = %s, want %s", q.Price, want)
	}

	wantCap := want.Mul(dec("793100000"))
	if !q.MarketCap.Equal(wantCap) {
		t.Errorf("market cap = %s, want %s", q.MarketCap, wantCap)
	}
}

func TestPriceInfiniteWhenTokensExhausted(t *testing.T) {
	c := NewDefault()

	q := c.Price(dec("5"), dec("1073000000"))
	if !q.Infinite {
		t.Fatal("expected infinite price when token reserve is exhausted")
	}

	q = c.Price(dec("5"), dec("2000000000"))
	if !q.Infinite {
		t.Fatal("expected infinite price when token reserve is negative")
	}
}

func TestRoundTripLosesSOL(t *testing.T) {
	c := NewDefault()
	solInCurve := dec("5")

	cases := []string{"0.01", "0.1", "1", "10", "250"}
	for _, amount := range cases {
		solIn := dec(amount)

		tokensOut, _ := c.TokensOutForBuy(solIn, solInCurve)
		if tokensOut.Sign() <= 0 {
			t.Fatalf("buy of %s SOL produced no tokens", amount)
		}

		solOut, _ := c.SOLOutForSell(tokensOut, solInCurve)
		if solOut.GreaterThanOrEqual(solIn) {
			t.Errorf("round trip of %s SOL returned %s, expected a loss", solIn, solOut)
		}
	}
}

func TestBuyPreservesConstantProduct(t *testing.T) {
	c := NewDefault()
	solInCurve := dec("5")

	vSOL := dec("30").Add(solInCurve)
	vTokens := c.K().Div(vSOL)

	tokensOut, _ := c.TokensOutForBuy(dec("0.1"), solInCurve)

	newVSOL := vSOL.Add(dec("0.1"))
	newVTokens := vTokens.Sub(tokensOut)

	product := newVSOL.Mul(newVTokens)
	diff := product.Sub(c.K()).Abs()

	// Allow rounding at the division precision boundary.
	tolerance := dec("0.0001")
	if diff.GreaterThan(tolerance) {
		t.Errorf("post-trade product drifted from k by %s", diff)
	}
}

func TestZeroAndNegativeInputs(t *testing.T) {
	c := NewDefault()

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-1")} {
		out, price := c.TokensOutForBuy(amount, dec("5"))
		if !out.IsZero() || !price.IsZero() {
			t.Errorf("buy with input %s: got out=%s price=%s, want zeros", amount, out, price)
		}

		out, price = c.SOLOutForSell(amount, dec("5"))
		if !out.IsZero() || !price.IsZero() {
			t.Errorf("sell with input %s: got out=%s price=%s, want zeros", amount, out, price)
		}
	}
}

func TestPriceImpactGrowsWithSize(t *testing.T) {
	c := NewDefault()
	solInCurve := dec("5")

	small := c.PriceImpact(dec("0.01"), solInCurve, true)
	large := c.PriceImpact(dec("10"), solInCurve, true)

	if small.Sign() <= 0 {
		t.Error("expected non-zero impact for small buy")
	}
	if !large.GreaterThan(small) {
		t.Errorf("impact did not grow with size: small=%s large=%s", small, large)
	}
}

func TestSimulateWithSlippageReducesOutput(t *testing.T) {
	c := NewDefault()

	buy := c.SimulateWithSlippage(dec("0.1"), dec("5"), 2000, true)
	if buy.Type != "buy" {
		t.Fatalf("type = %q", buy.Type)
	}
	if !buy.OutWithSlippage.LessThan(buy.Out) {
		t.Errorf("slipped output %s not below raw output %s", buy.OutWithSlippage, buy.Out)
	}

	// 2000 bps divides output by 1.2.
	want := buy.Out.Div(dec("1.2"))
	if !buy.OutWithSlippage.Equal(want) {
		t.Errorf("slipped output = %s, want %s", buy.OutWithSlippage, want)
	}

	sell := c.SimulateWithSlippage(dec("100000"), dec("5"), 2000, false)
	if sell.Type != "sell" {
		t.Fatalf("type = %q", sell.Type)
	}
	if !sell.OutWithSlippage.LessThan(sell.Out) {
		t.Errorf("slipped SOL %s not below raw %s", sell.OutWithSlippage, sell.Out)
	}
}

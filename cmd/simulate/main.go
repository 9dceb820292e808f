// Package main simulates a single trade against the bonding curve from
// the command line, for sanity-checking curve math and slippage
// settings without running the sniper.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/curve"
)

func main() {
	tradeType := flag.String("type", "buy", "Trade type: buy or sell")
	amount := flag.String("amount", "0.1", "SOL to spend (buy) or tokens to sell")
	solInCurve := flag.String("sol-in-curve", "5", "SOL currently collected by the curve")
	slippageBps := flag.Int64("slippage-bps", 500, "Slippage tolerance in basis points")
	ladder := flag.Bool("ladder", false, "Also print a price ladder for increasing curve fill")
	flag.Parse()

	if *tradeType != "buy" && *tradeType != "sell" {
		fmt.Fprintln(os.Stderr, "type must be buy or sell")
		os.Exit(2)
	}

	amt, err := decimal.NewFromString(*amount)
	if err != nil || amt.Sign() <= 0 {
		fmt.Fprintf(os.Stderr, "invalid amount %q\n", *amount)
		os.Exit(2)
	}
	sol, err := decimal.NewFromString(*solInCurve)
	if err != nil || sol.Sign() < 0 {
		fmt.Fprintf(os.Stderr, "invalid sol-in-curve %q\n", *solInCurve)
		os.Exit(2)
	}

	c := curve.NewDefault()
	sim := c.SimulateWithSlippage(amt, sol, *slippageBps, *tradeType == "buy")
	quote := c.Price(sol, decimal.Zero)

	fmt.Printf("Simulating %s of %s at %s SOL in curve (slippage %d bps)\n\n",
		*tradeType, amt, sol, *slippageBps)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("spot price (SOL/token)", quote.Price.StringFixed(12))
	table.Append("market cap (SOL)", quote.MarketCap.StringFixed(4))
	table.Append("amount in", sim.AmountIn.String())
	table.Append("out (no slippage)", sim.Out.String())
	table.Append("out (with slippage)", sim.OutWithSlippage.String())
	table.Append("effective price", sim.EffectivePrice.StringFixed(12))
	table.Append("price impact %", sim.PriceImpactPct.StringFixed(4))
	table.Render()

	if *ladder {
		printLadder(c, sol)
	}
}

// printLadder shows how the spot price moves as the curve fills.
func printLadder(c *curve.Curve, start decimal.Decimal) {
	fmt.Println("\nPrice ladder:")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("SOL in curve", "Spot price", "Market cap")

	step := decimal.NewFromInt(5)
	sol := start
	for i := 0; i < 10; i++ {
		q := c.Price(sol, decimal.Zero)
		if q.Infinite {
			table.Append(sol.String(), "∞", "-")
			break
		}
		table.Append(sol.String(), q.Price.StringFixed(12), q.MarketCap.StringFixed(2))
		sol = sol.Add(step)
	}
	table.Render()
}

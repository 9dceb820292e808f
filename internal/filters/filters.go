// Package filters runs safety checks over an enriched launch candidate.
//
// Every check is an independent predicate; the pipeline never stops on
// the first failure so a rejected candidate carries the full list of
// verdicts for diagnostics. The single exception is a missing required
// enrichment field, which short-circuits with one failed verdict.
package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/solana"
)

// Check names, in evaluation order.
const (
	CheckFirstTradeSize = "first_trade_size"
	CheckMintAuthority  = "mint_authority"
	CheckSellTax        = "sell_tax"
	CheckSellSimulation = "sell_simulation"
	CheckTokenName      = "token_name"
	CheckLiquidity      = "liquidity"
	CheckHolders        = "holder_distribution"
)

// burnedAuthorities are sentinel addresses that count as a renounced
// mint authority even when the field is set.
var burnedAuthorities = map[string]bool{
	solana.SystemProgramID: true,
	solana.WSOLMint:        true,
	"1nc1nerator11111111111111111111111111111111": true,
}

// suspiciousPatterns flag structural scam markers in token names:
// repeated currency symbols, rocket spam, and multiplier claims.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\${3,}`),
	regexp.MustCompile(`🚀{3,}`),
	regexp.MustCompile(`(?i)x\d{2,}`),
	regexp.MustCompile(`(?i)\d{3,}x`),
}

// Verdict is the outcome of one check.
type Verdict struct {
	Check   string            `json:"check"`
	Passed  bool              `json:"passed"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Config holds the numeric thresholds and keyword lists for all checks.
type Config struct {
	MinFirstTradeSOL decimal.Decimal
	MaxSellTaxPct    decimal.Decimal
	MinLiquiditySOL  decimal.Decimal
	BannedKeywords   []string

	// CheckHolderDistribution enables the optional concentration check;
	// candidates without holder data pass it vacuously.
	CheckHolderDistribution bool
	MaxDevHoldPct           decimal.Decimal
	MaxTop10HoldPct         decimal.Decimal
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		MinFirstTradeSOL: decimal.RequireFromString("0.5"),
		MaxSellTaxPct:    decimal.RequireFromString("15"),
		MinLiquiditySOL:  decimal.RequireFromString("1.0"),
		BannedKeywords:   []string{"test", "rug", "scam", "honeypot", "airdrop"},
		MaxDevHoldPct:    decimal.RequireFromString("10"),
		MaxTop10HoldPct:  decimal.RequireFromString("80"),
	}
}

// Pipeline evaluates all checks against enriched candidates. Stateless
// and safe for concurrent use.
type Pipeline struct {
	cfg      Config
	keywords []string
}

// NewPipeline builds a pipeline from cfg. Keywords are lowered once.
func NewPipeline(cfg Config) *Pipeline {
	keywords := make([]string, 0, len(cfg.BannedKeywords))
	for _, kw := range cfg.BannedKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &Pipeline{cfg: cfg, keywords: keywords}
}

// RunAll evaluates every check against the candidate and returns the
// overall pass flag plus verdicts in evaluation order.
//
// If a required enrichment field is absent the result is a single
// failed verdict naming the field; no checks run against partial data.
func (p *Pipeline) RunAll(c *domain.Enriched) (bool, []Verdict) {
	if missing := requiredFieldMissing(c); missing != "" {
		return false, []Verdict{{
			Check:  "required_fields",
			Passed: false,
			Reason: fmt.Sprintf("missing field: %s", missing),
		}}
	}

	verdicts := []Verdict{
		p.checkFirstTradeSize(c),
		p.checkMintAuthority(c),
		p.checkSellTax(c),
		p.checkSellSimulation(c),
		p.checkTokenName(c),
		p.checkLiquidity(c),
	}
	if p.cfg.CheckHolderDistribution {
		verdicts = append(verdicts, p.checkHolders(c))
	}

	passed := true
	for _, v := range verdicts {
		if !v.Passed {
			passed = false
		}
	}
	return passed, verdicts
}

func requiredFieldMissing(c *domain.Enriched) string {
	switch {
	case !c.AuthorityChecked:
		return "mint_authority"
	case c.SellTaxPct == nil:
		return "sell_tax_pct"
	case c.SellSimulated == nil:
		return "sell_simulated"
	case c.SOLInCurve == nil:
		return "sol_in_curve"
	}
	return ""
}

func (p *Pipeline) checkFirstTradeSize(c *domain.Enriched) Verdict {
	v := Verdict{
		Check:   CheckFirstTradeSize,
		Details: map[string]string{"first_trade_sol": c.FirstTradeSOL.String()},
	}
	if c.FirstTradeSOL.LessThan(p.cfg.MinFirstTradeSOL) {
		v.Reason = fmt.Sprintf("first trade %s SOL below minimum %s",
			c.FirstTradeSOL, p.cfg.MinFirstTradeSOL)
		return v
	}
	v.Passed = true
	return v
}

func (p *Pipeline) checkMintAuthority(c *domain.Enriched) Verdict {
	v := Verdict{Check: CheckMintAuthority}
	if c.MintAuthority != nil && !burnedAuthorities[*c.MintAuthority] {
		v.Details = map[string]string{
			"authority": *c.MintAuthority,
			// On-curve means a spendable wallet key holds the
			// authority, not a program-derived address.
			"wallet_controlled": strconv.FormatBool(solana.IsOnCurve(*c.MintAuthority)),
		}
		v.Reason = "mint authority not renounced"
		return v
	}
	v.Passed = true
	return v
}

func (p *Pipeline) checkSellTax(c *domain.Enriched) Verdict {
	v := Verdict{
		Check:   CheckSellTax,
		Details: map[string]string{"sell_tax_pct": c.SellTaxPct.String()},
	}
	if c.SellTaxPct.GreaterThanOrEqual(p.cfg.MaxSellTaxPct) {
		v.Reason = fmt.Sprintf("sell tax %s%% at or above maximum %s%%",
			c.SellTaxPct, p.cfg.MaxSellTaxPct)
		return v
	}
	v.Passed = true
	return v
}

func (p *Pipeline) checkSellSimulation(c *domain.Enriched) Verdict {
	v := Verdict{Check: CheckSellSimulation}
	if !*c.SellSimulated {
		v.Reason = "sell simulation failed"
		return v
	}
	v.Passed = true
	return v
}

func (p *Pipeline) checkTokenName(c *domain.Enriched) Verdict {
	v := Verdict{Check: CheckTokenName}

	combined := strings.ToLower(c.Name + " " + c.Symbol)
	for _, kw := range p.keywords {
		if strings.Contains(combined, kw) {
			v.Details = map[string]string{"keyword": kw}
			v.Reason = fmt.Sprintf("name contains banned keyword %q", kw)
			return v
		}
	}

	raw := c.Name + " " + c.Symbol
	for _, pat := range suspiciousPatterns {
		if pat.MatchString(raw) {
			v.Details = map[string]string{"pattern": pat.String()}
			v.Reason = "name matches suspicious pattern"
			return v
		}
	}

	v.Passed = true
	return v
}

func (p *Pipeline) checkLiquidity(c *domain.Enriched) Verdict {
	v := Verdict{
		Check:   CheckLiquidity,
		Details: map[string]string{"sol_in_curve": c.SOLInCurve.String()},
	}
	if c.SOLInCurve.LessThan(p.cfg.MinLiquiditySOL) {
		v.Reason = fmt.Sprintf("liquidity %s SOL below minimum %s",
			c.SOLInCurve, p.cfg.MinLiquiditySOL)
		return v
	}
	v.Passed = true
	return v
}

func (p *Pipeline) checkHolders(c *domain.Enriched) Verdict {
	v := Verdict{Check: CheckHolders}

	// Holder data is best-effort; absence passes rather than blocking
	// every candidate when the holder endpoint is down.
	if c.DevHoldPct == nil && c.Top10HoldersPct == nil {
		v.Passed = true
		return v
	}

	if c.DevHoldPct != nil && c.DevHoldPct.GreaterThan(p.cfg.MaxDevHoldPct) {
		v.Details = map[string]string{"dev_hold_pct": c.DevHoldPct.String()}
		v.Reason = fmt.Sprintf("dev holds %s%%, above maximum %s%%",
			c.DevHoldPct, p.cfg.MaxDevHoldPct)
		return v
	}
	if c.Top10HoldersPct != nil && c.Top10HoldersPct.GreaterThan(p.cfg.MaxTop10HoldPct) {
		v.Details = map[string]string{"top10_hold_pct": c.Top10HoldersPct.String()}
		v.Reason = fmt.Sprintf("top 10 holders hold %s%%, above maximum %s%%",
			c.Top10HoldersPct, p.cfg.MaxTop10HoldPct)
		return v
	}

	v.Passed = true
	return v
}

// FailureReasons extracts the reasons of all failed verdicts, for logs.
func FailureReasons(verdicts []Verdict) []string {
	var reasons []string
	for _, v := range verdicts {
		if !v.Passed {
			reasons = append(reasons, v.Reason)
		}
	}
	return reasons
}

package discovery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/solana"
)

// LaunchProgramID is the bonding-curve market program watched for new
// token launches.
const LaunchProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

// mintAccountIndex is the fixed position of the mint in a create
// instruction's account list.
const mintAccountIndex = 1

const lamportsPerSOL = 1_000_000_000

// ParserConfig bounds what counts as a fresh launch.
type ParserConfig struct {
	ProgramID string
	// MaxAge discards candidates whose launch transaction is older than
	// this by the time we see it.
	MaxAge time.Duration
}

// DefaultParserConfig watches the launch program with a 60 second
// freshness window.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		ProgramID: LaunchProgramID,
		MaxAge:    60 * time.Second,
	}
}

// WebhookParser extracts launch candidates from pushed transaction
// batches.
type WebhookParser struct {
	cfg ParserConfig
}

// NewWebhookParser creates a parser for webhook payloads.
func NewWebhookParser(cfg ParserConfig) *WebhookParser {
	return &WebhookParser{cfg: cfg}
}

// Parse scans each transaction's instructions for the launch program
// and extracts one candidate per matching transaction. Stale and
// malformed transactions are skipped, never fatal.
func (p *WebhookParser) Parse(txs []TransactionRecord, now time.Time) []*domain.Candidate {
	var candidates []*domain.Candidate

	for _, tx := range txs {
		mint := p.mintFromInstructions(tx.Instructions)
		if mint == "" {
			continue
		}

		launchedAt := time.Unix(tx.Timestamp, 0).UTC()
		if now.Sub(launchedAt) > p.cfg.MaxAge {
			continue
		}

		candidates = append(candidates, &domain.Candidate{
			Mint:          mint,
			ObservedAt:    now,
			LaunchedAt:    launchedAt,
			FirstTradeSOL: firstTradeSOL(tx.Meta),
			Source:        domain.SourceWebhook,
			TxSignature:   tx.Signature,
			Slot:          tx.Slot,
		})
	}

	return candidates
}

func (p *WebhookParser) mintFromInstructions(instructions []Instruction) string {
	for _, ins := range instructions {
		if ins.ProgramID != p.cfg.ProgramID {
			continue
		}
		if len(ins.Accounts) <= mintAccountIndex+1 {
			continue
		}
		return ins.Accounts[mintAccountIndex]
	}
	return ""
}

// firstTradeSOL derives the creator's first buy from the fee payer's
// balance change. Missing metadata yields zero, not an error.
func firstTradeSOL(meta *TransactionMeta) decimal.Decimal {
	if meta == nil || len(meta.PreBalances) == 0 || len(meta.PostBalances) == 0 {
		return decimal.Zero
	}

	spent := meta.PreBalances[0] - meta.PostBalances[0]
	if spent <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(spent).Div(decimal.NewFromInt(lamportsPerSOL))
}

// LogParser extracts launch candidates from streamed program logs.
// Create instructions are fenced by the program's invoke/success lines.
type LogParser struct {
	cfg           ParserConfig
	createPattern *regexp.Regexp
	mintPattern   *regexp.Regexp
	solPattern    *regexp.Regexp
}

// NewLogParser creates a parser for logsSubscribe notifications.
func NewLogParser(cfg ParserConfig) *LogParser {
	return &LogParser{
		cfg:           cfg,
		createPattern: regexp.MustCompile(`Program log: Instruction: Create`),
		mintPattern:   regexp.MustCompile(`mint[=:]\s*([1-9A-HJ-NP-Za-km-z]{32,44})`),
		solPattern:    regexp.MustCompile(`sol_amount[=:]\s*(\d+)`),
	}
}

// Parse returns the candidate announced in one transaction's logs, or
// nil when the logs contain no launch.
func (p *LogParser) Parse(logs []string, signature string, slot int64, now time.Time) *domain.Candidate {
	var (
		inProgram bool
		created   bool
		mint      string
		lamports  int64
	)

	for _, line := range logs {
		if strings.Contains(line, "Program "+p.cfg.ProgramID+" invoke") {
			inProgram = true
			continue
		}
		if strings.Contains(line, "Program "+p.cfg.ProgramID+" success") ||
			strings.Contains(line, "Program "+p.cfg.ProgramID+" failed") {
			inProgram = false
			continue
		}
		if !inProgram {
			continue
		}

		if p.createPattern.MatchString(line) {
			created = true
		}
		if m := p.mintPattern.FindStringSubmatch(line); m != nil {
			mint = m[1]
		}
		if m := p.solPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				lamports = v
			}
		}
	}

	// The regex constrains the alphabet but not the decoded length.
	if !created || mint == "" || !solana.ValidAddress(mint) {
		return nil
	}

	return &domain.Candidate{
		Mint:          mint,
		ObservedAt:    now,
		LaunchedAt:    now,
		FirstTradeSOL: decimal.NewFromInt(lamports).Div(decimal.NewFromInt(lamportsPerSOL)),
		Source:        domain.SourceLogStream,
		TxSignature:   signature,
		Slot:          slot,
	}
}

// ParsePairs converts an aggregator poll response into candidates,
// applying the same freshness window as the push path. Liquidity is
// reported in USD; the approximate SOL figure doubles as the first
// trade size estimate.
func ParsePairs(pairs []PairRecord, solPriceUSD decimal.Decimal, maxAge time.Duration, now time.Time) []*domain.Candidate {
	var candidates []*domain.Candidate

	for _, pair := range pairs {
		if pair.BaseToken.Address == "" {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, pair.PairCreatedAt)
		if err != nil {
			continue
		}
		if now.Sub(createdAt) > maxAge {
			continue
		}

		liquiditySOL := decimal.Zero
		if pair.Liquidity.USD > 0 && solPriceUSD.Sign() > 0 {
			liquiditySOL = decimal.NewFromFloat(pair.Liquidity.USD).Div(solPriceUSD)
		}

		candidates = append(candidates, &domain.Candidate{
			Mint:          pair.BaseToken.Address,
			ObservedAt:    now,
			LaunchedAt:    createdAt.UTC(),
			FirstTradeSOL: liquiditySOL,
			Source:        domain.SourceAggregator,
			Name:          pair.BaseToken.Name,
			Symbol:        pair.BaseToken.Symbol,
		})
	}

	return candidates
}

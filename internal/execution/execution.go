// Package execution provides the mode-dispatching buy/sell contract.
// Paper mode composes the pricing curve with the ledger; live mode is a
// gated stub that will delegate to a wallet signer.
package execution

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/curve"
	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/enrich"
	"solana-curve-sniper/internal/ledger"
	"solana-curve-sniper/internal/wallet"
)

// Mode selects the execution implementation.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// LiveConfirmEnv must be set to "true" in the process environment
// before a live engine can be constructed.
const LiveConfirmEnv = "LIVE_MODE_CONFIRMED"

// Configuration errors are fatal at construction, never deferred to
// trade time.
var (
	ErrInvalidMode       = errors.New("invalid execution mode")
	ErrLiveNotConfirmed  = fmt.Errorf("live mode requires %s=true in the environment", LiveConfirmEnv)
	ErrLiveUnimplemented = errors.New("live trading is not implemented")
)

// Engine executes buys and sells for the strategy.
type Engine interface {
	// Buy spends the configured SOL amount on the candidate's token.
	Buy(ctx context.Context, c *domain.Enriched) (*domain.TradeResult, error)

	// Sell disposes quantity units of mint, recording reason.
	Sell(ctx context.Context, mint string, quantity decimal.Decimal, reason string) (*domain.TradeResult, error)
}

// Config holds trade sizing shared by both modes.
type Config struct {
	Mode         Mode
	BuyAmountSOL decimal.Decimal
	SlippageBps  int64
}

// Deps carries the collaborators an engine may need. Paper mode uses
// Curve, Prices and Ledger; live mode uses Signer.
type Deps struct {
	Curve  *curve.Curve
	Prices enrich.PriceSource
	Ledger *ledger.Ledger
	Signer wallet.Signer
	Log    zerolog.Logger

	// LookupEnv defaults to os.LookupEnv; tests override it.
	LookupEnv func(string) (string, bool)
}

// New constructs the engine for cfg.Mode. An unknown mode or a missing
// live-mode confirmation fails here, before any trade can be attempted.
func New(cfg Config, deps Deps) (Engine, error) {
	switch cfg.Mode {
	case ModePaper:
		return newPaperEngine(cfg, deps)
	case ModeLive:
		return newLiveEngine(cfg, deps)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}
}

func lookupEnv(deps Deps, key string) (string, bool) {
	if deps.LookupEnv != nil {
		return deps.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

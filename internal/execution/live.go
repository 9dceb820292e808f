package execution

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/wallet"
)

// liveEngine will delegate to the wallet signer once transaction
// construction is wired in. Until then every call fails explicitly;
// silent success here would mean phantom real trades.
type liveEngine struct {
	cfg    Config
	signer wallet.Signer
	log    zerolog.Logger
}

// newLiveEngine refuses construction without the operator-confirmation
// flag in the environment.
func newLiveEngine(cfg Config, deps Deps) (*liveEngine, error) {
	if v, ok := lookupEnv(deps, LiveConfirmEnv); !ok || v != "true" {
		return nil, ErrLiveNotConfirmed
	}
	if deps.Signer == nil {
		return nil, errors.New("live engine requires a wallet signer")
	}

	log := deps.Log.With().Str("component", "execution").Str("mode", "live").Logger()
	log.Warn().Str("wallet", deps.Signer.PublicKey()).Msg("live mode confirmed")

	return &liveEngine{cfg: cfg, signer: deps.Signer, log: log}, nil
}

func (e *liveEngine) Buy(_ context.Context, c *domain.Enriched) (*domain.TradeResult, error) {
	e.log.Error().Str("mint", c.Mint).Msg("live buy requested but not implemented")
	return nil, ErrLiveUnimplemented
}

func (e *liveEngine) Sell(_ context.Context, mint string, _ decimal.Decimal, reason string) (*domain.TradeResult, error) {
	e.log.Error().Str("mint", mint).Str("reason", reason).Msg("live sell requested but not implemented")
	return nil, ErrLiveUnimplemented
}

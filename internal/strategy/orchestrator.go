// Package strategy drives the position lifecycle: candidates from the
// detector are enriched and filtered, survivors are bought, and open
// positions are evaluated against the exit rules on a fixed tick.
package strategy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/enrich"
	"solana-curve-sniper/internal/execution"
	"solana-curve-sniper/internal/filters"
	"solana-curve-sniper/internal/ledger"
	"solana-curve-sniper/internal/observability"
	"solana-curve-sniper/internal/storage"
)

// Config holds the exit-rule parameters.
type Config struct {
	TickInterval time.Duration

	// TakeProfitTargetPct is the unrealized gain that triggers a
	// partial exit of TakeProfitSellFraction of the position.
	TakeProfitTargetPct    decimal.Decimal
	TakeProfitSellFraction decimal.Decimal

	// Trailing stop arms once gain has ever exceeded the activation
	// threshold, then exits fully on a retrace from the tracked peak.
	TrailingStopEnabled   bool
	TrailingActivationPct decimal.Decimal
	TrailingRetracePct    decimal.Decimal

	// MaxHold forces a full exit regardless of P&L.
	MaxHold time.Duration

	// VolumeDropThresholdPct exits fully when recent volume has dropped
	// more than this percentage below the baseline captured at entry.
	VolumeDropThresholdPct decimal.Decimal

	// StatusLogEveryTicks emits a best-effort per-position status line
	// every N ticks. Zero disables it.
	StatusLogEveryTicks int
}

// DefaultConfig sells half at +50%, trails 15% off the peak once the
// position has doubled, holds at most 90 minutes and bails when volume
// drops more than 80%.
func DefaultConfig() Config {
	return Config{
		TickInterval:           time.Second,
		TakeProfitTargetPct:    decimal.NewFromInt(50),
		TakeProfitSellFraction: decimal.RequireFromString("0.5"),
		TrailingStopEnabled:    true,
		TrailingActivationPct:  decimal.NewFromInt(100),
		TrailingRetracePct:     decimal.NewFromInt(15),
		MaxHold:                90 * time.Minute,
		VolumeDropThresholdPct: decimal.NewFromInt(80),
		StatusLogEveryTicks:    60,
	}
}

// Deps are the orchestrator's collaborators. Volumes and Observations
// are optional; without them the volume-collapse exit never fires.
type Deps struct {
	Enricher     enrich.Provider
	Prices       enrich.PriceSource
	Volumes      enrich.VolumeSource
	Filters      *filters.Pipeline
	Engine       execution.Engine
	Ledger       *ledger.Ledger
	Observations storage.VolumeObservationStore
	Log          zerolog.Logger
}

// monitorState is per-position bookkeeping that lives outside the
// Ledger: the trailing-stop latch, the volume baseline and the tick
// counter for status logging.
type monitorState struct {
	armed       bool
	baselineSet bool
	baseline    decimal.Decimal
	ticks       int
}

// Orchestrator owns the DETECT → FILTER → BUY → MONITOR → SELL flow.
type Orchestrator struct {
	cfg  Config
	deps Deps
	log  zerolog.Logger

	mu       sync.Mutex
	monitors map[string]*monitorState

	now func() time.Time
}

// New validates the collaborators and builds an orchestrator.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Enricher == nil {
		return nil, errors.New("orchestrator requires an enrichment provider")
	}
	if deps.Prices == nil {
		return nil, errors.New("orchestrator requires a price source")
	}
	if deps.Filters == nil {
		return nil, errors.New("orchestrator requires a filter pipeline")
	}
	if deps.Engine == nil {
		return nil, errors.New("orchestrator requires an execution engine")
	}
	if deps.Ledger == nil {
		return nil, errors.New("orchestrator requires a ledger")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		log:      deps.Log.With().Str("component", "strategy").Logger(),
		monitors: make(map[string]*monitorState),
		now:      time.Now,
	}, nil
}

// OnCandidate handles one detected candidate end to end: enrich,
// filter, buy. Failures are logged and the candidate is discarded;
// nothing here may stop detection for other candidates.
func (o *Orchestrator) OnCandidate(ctx context.Context, c *domain.Candidate) {
	log := o.log.With().Str("mint", c.Mint).Str("source", string(c.Source)).Logger()

	enriched, err := o.deps.Enricher.Enrich(ctx, c)
	if err != nil {
		log.Warn().Err(err).Msg("enrichment failed, discarding candidate")
		return
	}

	passed, verdicts := o.deps.Filters.RunAll(enriched)
	observability.RecordFilterOutcome(passed, failedChecks(verdicts))
	if !passed {
		log.Info().
			Strs("failed", filters.FailureReasons(verdicts)).
			Msg("candidate rejected by filters")
		return
	}
	log.Info().Msg("candidate passed all filters")

	result, err := o.deps.Engine.Buy(ctx, enriched)
	if err != nil {
		observability.RecordTradeError(string(domain.TradeBuy))
		log.Error().Err(err).Msg("buy failed, discarding candidate")
		return
	}
	observability.RecordTrade(string(domain.TradeBuy))

	o.initMonitor(ctx, c.Mint)
	o.publishAccountState()

	log.Info().
		Str("price", result.Price.String()).
		Str("units", result.UnitAmount.String()).
		Str("invested_sol", result.SOLAmount.String()).
		Msg("position opened")
}

// initMonitor seeds per-position state, capturing the volume baseline
// at entry when a volume source is available.
func (o *Orchestrator) initMonitor(ctx context.Context, mint string) {
	state := &monitorState{}

	if o.deps.Volumes != nil {
		if v, err := o.deps.Volumes.RecentVolume(ctx, mint); err == nil {
			state.baseline = v
			state.baselineSet = true
		}
	}

	o.mu.Lock()
	o.monitors[mint] = state
	o.mu.Unlock()
}

// Run evaluates exits on a fixed tick until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	o.log.Info().Dur("tick", o.cfg.TickInterval).Msg("position monitor started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Tick(ctx)
		}
	}
}

// Tick evaluates every open position once. Exported so tests can drive
// the monitor without real time.
func (o *Orchestrator) Tick(ctx context.Context) {
	started := o.now()

	var batch []*domain.VolumeObservation
	for _, pos := range o.deps.Ledger.Positions() {
		if obs := o.evaluatePosition(ctx, pos); obs != nil {
			batch = append(batch, obs)
		}
	}

	if len(batch) > 0 && o.deps.Observations != nil {
		if err := o.deps.Observations.AppendBatch(ctx, batch); err != nil {
			o.log.Warn().Err(err).Msg("failed to persist volume observations")
		}
	}

	o.publishAccountState()
	observability.DefaultMetrics.MonitorTickDuration.Observe(o.now().Sub(started).Seconds())
}

// evaluatePosition runs the exit rules for one position in their fixed
// priority order and acts on the first that fires. Returns the tick's
// volume observation, if any.
func (o *Orchestrator) evaluatePosition(ctx context.Context, pos *domain.Position) *domain.VolumeObservation {
	log := o.log.With().Str("mint", pos.Mint).Logger()
	state := o.monitor(pos.Mint)
	state.ticks++

	_, quote, err := o.deps.Prices.QuoteInCurve(ctx, pos.Mint)
	if err != nil {
		log.Warn().Err(err).Msg("price lookup failed, skipping tick")
		return nil
	}
	if quote.Infinite {
		log.Warn().Msg("curve reserve exhausted, skipping tick")
		return nil
	}
	price := quote.Price

	// Peak is updated before any exit check, unconditionally.
	peak, ok := o.deps.Ledger.UpdatePeakPrice(pos.Mint, price)
	if !ok {
		return nil
	}

	gain := pos.GainPct(price)
	if o.cfg.TrailingStopEnabled && gain.GreaterThan(o.cfg.TrailingActivationPct) {
		state.armed = true
	}

	var obs *domain.VolumeObservation
	volume := decimal.Zero
	volumeKnown := false
	if o.deps.Volumes != nil {
		if v, verr := o.deps.Volumes.RecentVolume(ctx, pos.Mint); verr == nil {
			volume = v
			volumeKnown = true
			if !state.baselineSet {
				state.baseline = v
				state.baselineSet = true
			}
			obs = &domain.VolumeObservation{
				Mint:        pos.Mint,
				TimestampMs: o.now().UnixMilli(),
				Volume:      v,
				Baseline:    state.baseline,
			}
		}
	}

	switch {
	case gain.GreaterThanOrEqual(o.cfg.TakeProfitTargetPct):
		amount := pos.Quantity.Mul(o.cfg.TakeProfitSellFraction)
		o.sell(ctx, pos.Mint, amount, domain.ExitReasonTakeProfit, log)

	case o.cfg.TrailingStopEnabled && state.armed &&
		price.LessThanOrEqual(o.stopPrice(peak)):
		o.sell(ctx, pos.Mint, pos.Quantity, domain.ExitReasonTrailingStop, log)

	case o.now().Sub(pos.EntryTime) >= o.cfg.MaxHold:
		o.sell(ctx, pos.Mint, pos.Quantity, domain.ExitReasonMaxHold, log)

	case volumeKnown && state.baselineSet && state.baseline.Sign() > 0 &&
		volumeDropPct(state.baseline, volume).GreaterThan(o.cfg.VolumeDropThresholdPct):
		o.sell(ctx, pos.Mint, pos.Quantity, domain.ExitReasonVolumeCollapse, log)

	default:
		if o.cfg.StatusLogEveryTicks > 0 && state.ticks%o.cfg.StatusLogEveryTicks == 0 {
			log.Info().
				Str("gain_pct", gain.StringFixed(1)).
				Str("price", price.String()).
				Str("peak_price", peak.String()).
				Dur("held", o.now().Sub(pos.EntryTime)).
				Msg("position status")
		}
	}

	return obs
}

// sell executes one exit. A failed sell leaves the position untouched;
// the same condition fires again on the next tick.
func (o *Orchestrator) sell(ctx context.Context, mint string, amount decimal.Decimal, reason string, log zerolog.Logger) {
	result, err := o.deps.Engine.Sell(ctx, mint, amount, reason)
	if err != nil {
		observability.RecordTradeError(string(domain.TradeSell))
		log.Error().Err(err).Str("reason", reason).Msg("sell failed, will retry next tick")
		return
	}

	observability.RecordTrade(string(domain.TradeSell))
	observability.RecordExit(reason)

	if _, open := o.deps.Ledger.Position(mint); !open {
		o.dropMonitor(mint)
	}

	log.Info().
		Str("reason", reason).
		Str("units", result.UnitAmount.String()).
		Str("profit_sol", result.ProfitSOL.String()).
		Str("profit_pct", result.ProfitPct.StringFixed(1)).
		Msg("position exit executed")
}

func (o *Orchestrator) stopPrice(peak decimal.Decimal) decimal.Decimal {
	retrace := o.cfg.TrailingRetracePct.Div(decimal.NewFromInt(100))
	return peak.Mul(decimal.NewFromInt(1).Sub(retrace))
}

func volumeDropPct(baseline, volume decimal.Decimal) decimal.Decimal {
	return baseline.Sub(volume).Div(baseline).Mul(decimal.NewFromInt(100))
}

func (o *Orchestrator) monitor(mint string) *monitorState {
	o.mu.Lock()
	defer o.mu.Unlock()

	state, ok := o.monitors[mint]
	if !ok {
		state = &monitorState{}
		o.monitors[mint] = state
	}
	return state
}

func (o *Orchestrator) dropMonitor(mint string) {
	o.mu.Lock()
	delete(o.monitors, mint)
	o.mu.Unlock()
}

func (o *Orchestrator) publishAccountState() {
	observability.UpdateAccountState(
		o.deps.Ledger.Balance().InexactFloat64(),
		len(o.deps.Ledger.Positions()),
	)
}

func failedChecks(verdicts []filters.Verdict) []string {
	var failed []string
	for _, v := range verdicts {
		if !v.Passed {
			failed = append(failed, v.Check)
		}
	}
	return failed
}

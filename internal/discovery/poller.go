package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"solana-curve-sniper/internal/observability"
)

// PollerConfig controls the aggregator polling loop.
type PollerConfig struct {
	URL         string
	Interval    time.Duration
	MaxAge      time.Duration
	SOLPriceUSD decimal.Decimal
	// RequestsPerSecond caps outgoing requests independently of the
	// poll interval so config mistakes cannot hammer the aggregator.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// DefaultPollerConfig polls every 10 seconds with the same freshness
// window as the push sources.
func DefaultPollerConfig(url string) PollerConfig {
	return PollerConfig{
		URL:               url,
		Interval:          10 * time.Second,
		MaxAge:            60 * time.Second,
		SOLPriceUSD:       decimal.NewFromInt(100),
		RequestsPerSecond: 1,
		Timeout:           10 * time.Second,
	}
}

// Poller periodically fetches newly listed pairs from a market
// aggregator and feeds them into the detector.
type Poller struct {
	cfg      PollerConfig
	detector *Detector
	client   *http.Client
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewPoller creates a poller feeding the given detector.
func NewPoller(cfg PollerConfig, detector *Detector, log zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Poller{
		cfg:      cfg,
		detector: detector,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Run polls until the context is cancelled. Individual cycle failures
// are logged and the loop continues; one bad response must not stop
// discovery.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.log.Info().
		Str("url", p.cfg.URL).
		Dur("interval", p.cfg.Interval).
		Msg("aggregator poller started")

	for {
		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.DefaultMetrics.PollCycles.WithLabelValues("error").Inc()
			p.log.Warn().Err(err).Msg("poll cycle failed")
		} else {
			observability.DefaultMetrics.PollCycles.WithLabelValues("ok").Inc()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching pairs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("aggregator returned status %d", resp.StatusCode)
	}

	var payload pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding pairs response: %w", err)
	}

	candidates := ParsePairs(payload.Pairs, p.cfg.SOLPriceUSD, p.cfg.MaxAge, nowUTC())
	for _, c := range candidates {
		p.detector.Dispatch(ctx, c)
	}

	p.log.Debug().
		Int("pairs", len(payload.Pairs)).
		Int("fresh", len(candidates)).
		Msg("poll cycle complete")
	return nil
}

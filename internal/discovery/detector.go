package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/observability"
	"solana-curve-sniper/internal/solana"
)

// Callback receives each unique candidate exactly once.
type Callback func(ctx context.Context, c *domain.Candidate)

// Detector funnels candidates from all sources through one dedup set.
// The first source to report a mint wins; later reports of the same
// mint are dropped regardless of origin.
type Detector struct {
	webhookParser *WebhookParser
	logParser     *LogParser
	log           zerolog.Logger

	mu       sync.Mutex
	seen     map[string]struct{}
	callback Callback
}

// NewDetector creates a detector with the given parser configuration.
func NewDetector(cfg ParserConfig, log zerolog.Logger) *Detector {
	return &Detector{
		webhookParser: NewWebhookParser(cfg),
		logParser:     NewLogParser(cfg),
		log:           log.With().Str("component", "detector").Logger(),
		seen:          make(map[string]struct{}),
	}
}

// SetCallback registers the downstream consumer. Must be called before
// any source starts feeding the detector.
func (d *Detector) SetCallback(cb Callback) {
	d.mu.Lock()
	d.callback = cb
	d.mu.Unlock()
}

// Dispatch forwards a candidate downstream unless its mint was already
// seen. Returns true when the candidate was dispatched.
func (d *Detector) Dispatch(ctx context.Context, c *domain.Candidate) bool {
	if c == nil || c.Mint == "" {
		return false
	}

	d.mu.Lock()
	if _, dup := d.seen[c.Mint]; dup {
		d.mu.Unlock()
		observability.RecordCandidateDeduplicated()
		d.log.Debug().
			Str("mint", c.Mint).
			Str("source", string(c.Source)).
			Msg("duplicate candidate dropped")
		return false
	}
	d.seen[c.Mint] = struct{}{}
	cb := d.callback
	d.mu.Unlock()

	observability.RecordCandidateDetected(string(c.Source))
	d.log.Info().
		Str("mint", c.Mint).
		Str("source", string(c.Source)).
		Str("first_trade_sol", c.FirstTradeSOL.String()).
		Msg("new candidate detected")

	if cb != nil {
		cb(ctx, c)
	}
	return true
}

// HandleTransactions is the webhook entry point. Returns how many new
// candidates the batch produced.
func (d *Detector) HandleTransactions(ctx context.Context, txs []TransactionRecord) int {
	candidates := d.webhookParser.Parse(txs, nowUTC())

	dispatched := 0
	for _, c := range candidates {
		if d.Dispatch(ctx, c) {
			dispatched++
		}
	}
	return dispatched
}

// ConsumeLogs drains a log stream until the context ends or the stream
// closes its channel. Stream errors are logged; the loop keeps going
// because the stream reconnects on its own.
func (d *Detector) ConsumeLogs(ctx context.Context, events <-chan solana.LogEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			observability.DefaultMetrics.LogEventsProcessed.Inc()

			if ev.Err != nil {
				d.log.Warn().
					Str("signature", ev.Signature).
					Msg("skipping failed transaction from log stream")
				continue
			}

			c := d.logParser.Parse(ev.Logs, ev.Signature, ev.Slot, nowUTC())
			if c == nil {
				continue
			}
			d.Dispatch(ctx, c)
		}
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

// SeenCount reports how many unique mints were observed.
func (d *Detector) SeenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

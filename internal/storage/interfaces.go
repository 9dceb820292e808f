// Package storage defines the persistence contracts for the trade log
// and the volume-observation audit trail, with in-memory, Redis,
// Postgres and ClickHouse implementations in subpackages.
package storage

import (
	"context"
	"time"

	"solana-curve-sniper/internal/domain"
)

// TradeLogStore is the append-only, day-grouped trade log.
type TradeLogStore interface {
	// Append adds a trade under its calendar day. Returns ErrDuplicateKey
	// if trade_id already exists for that day.
	Append(ctx context.Context, t *domain.TradeRecord) error

	// Day retrieves all trades for a calendar date ("2006-01-02", UTC),
	// ordered by timestamp ASC. An unknown date yields an empty slice.
	Day(ctx context.Context, date string) ([]*domain.TradeRecord, error)

	// Sweep removes records older than the cutoff and reports how many
	// were dropped. Backends with native expiry may return 0 and rely on
	// their own TTL mechanism.
	Sweep(ctx context.Context, before time.Time) (int, error)
}

// VolumeObservationStore keeps per-tick volume samples for open
// positions so volume-collapse exits can be audited after the fact.
type VolumeObservationStore interface {
	// AppendBatch adds observations in one write. Observations are not
	// deduplicated; callers sample at most once per (mint, tick).
	AppendBatch(ctx context.Context, obs []*domain.VolumeObservation) error

	// ByMint retrieves all observations for a mint, ordered by
	// timestamp ASC.
	ByMint(ctx context.Context, mint string) ([]*domain.VolumeObservation, error)
}

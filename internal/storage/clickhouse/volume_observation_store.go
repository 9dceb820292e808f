package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/storage"
)

// VolumeObservationStore implements storage.VolumeObservationStore on
// ClickHouse. MergeTree does not enforce uniqueness; the monitor loop
// samples each (mint, tick) once, so inserts are plain appends.
type VolumeObservationStore struct {
	conn *Conn
}

// NewVolumeObservationStore creates a new observation store.
func NewVolumeObservationStore(conn *Conn) *VolumeObservationStore {
	return &VolumeObservationStore{conn: conn}
}

var _ storage.VolumeObservationStore = (*VolumeObservationStore)(nil)

// AppendBatch adds observations in one batch insert.
func (s *VolumeObservationStore) AppendBatch(ctx context.Context, obs []*domain.VolumeObservation) error {
	if len(obs) == 0 {
		return nil
	}
	for _, o := range obs {
		if o == nil || o.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO volume_observations (mint, timestamp_ms, volume, baseline)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		err = batch.Append(
			o.Mint, uint64(o.TimestampMs),
			o.Volume.InexactFloat64(), o.Baseline.InexactFloat64(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ByMint retrieves all observations for a mint, ordered by timestamp ASC.
func (s *VolumeObservationStore) ByMint(ctx context.Context, mint string) ([]*domain.VolumeObservation, error) {
	query := `
		SELECT mint, timestamp_ms, volume, baseline
		FROM volume_observations
		WHERE mint = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query by mint: %w", err)
	}
	defer rows.Close()

	var result []*domain.VolumeObservation
	for rows.Next() {
		var o domain.VolumeObservation
		var timestampMs uint64
		var volume, baseline float64

		if err := rows.Scan(&o.Mint, &timestampMs, &volume, &baseline); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}

		o.TimestampMs = int64(timestampMs)
		o.Volume = decimal.NewFromFloat(volume)
		o.Baseline = decimal.NewFromFloat(baseline)
		result = append(result, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}
	return result, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/storage"
)

// TradeLogStore is a PostgreSQL implementation of storage.TradeLogStore.
// Decimal amounts are stored as text to avoid float rounding in the DB.
type TradeLogStore struct {
	pool *Pool
}

// NewTradeLogStore creates a new trade log store on the given pool.
func NewTradeLogStore(pool *Pool) *TradeLogStore {
	return &TradeLogStore{pool: pool}
}

var _ storage.TradeLogStore = (*TradeLogStore)(nil)

// Append adds a trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeLogStore) Append(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_log (
			trade_id, trade_day, trade_type, mint,
			sol_amount, unit_amount, price, profit_sol, profit_pct,
			reason, session_id, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.Day(), string(t.Type), t.Mint,
		t.SOLAmount.String(), t.UnitAmount.String(), t.Price.String(),
		t.ProfitSOL.String(), t.ProfitPct.String(),
		t.Reason, t.SessionID, t.Timestamp.UTC(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
	}
	return nil
}

// Day retrieves all trades for a calendar date, ordered by timestamp ASC.
func (s *TradeLogStore) Day(ctx context.Context, date string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT trade_id, trade_type, mint,
		       sol_amount, unit_amount, price, profit_sol, profit_pct,
		       reason, session_id, executed_at
		FROM trade_log
		WHERE trade_day = $1
		ORDER BY executed_at ASC
	`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query trade day %s: %w", date, err)
	}
	defer rows.Close()

	result := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		var t domain.TradeRecord
		var tradeType string
		var solAmount, unitAmount, price, profitSOL, profitPct string
		err := rows.Scan(
			&t.TradeID, &tradeType, &t.Mint,
			&solAmount, &unitAmount, &price, &profitSOL, &profitPct,
			&t.Reason, &t.SessionID, &t.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.Type = domain.TradeType(tradeType)
		if t.SOLAmount, err = decimal.NewFromString(solAmount); err != nil {
			return nil, fmt.Errorf("parse sol_amount for %s: %w", t.TradeID, err)
		}
		if t.UnitAmount, err = decimal.NewFromString(unitAmount); err != nil {
			return nil, fmt.Errorf("parse unit_amount for %s: %w", t.TradeID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", t.TradeID, err)
		}
		if t.ProfitSOL, err = decimal.NewFromString(profitSOL); err != nil {
			return nil, fmt.Errorf("parse profit_sol for %s: %w", t.TradeID, err)
		}
		if t.ProfitPct, err = decimal.NewFromString(profitPct); err != nil {
			return nil, fmt.Errorf("parse profit_pct for %s: %w", t.TradeID, err)
		}

		result = append(result, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return result, nil
}

// Sweep deletes records from days older than the cutoff.
func (s *TradeLogStore) Sweep(ctx context.Context, before time.Time) (int, error) {
	cutoff := before.UTC().Format("2006-01-02")

	tag, err := s.pool.Exec(ctx, `DELETE FROM trade_log WHERE trade_day < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep trade log before %s: %w", cutoff, err)
	}
	return int(tag.RowsAffected()), nil
}

// Package memory holds in-memory store implementations used by paper
// trading sessions and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/storage"
)

// TradeLogStore is an in-memory implementation of storage.TradeLogStore.
type TradeLogStore struct {
	mu   sync.RWMutex
	days map[string][]*domain.TradeRecord // keyed by "2006-01-02"
	ids  map[string]struct{}
}

// NewTradeLogStore creates a new in-memory trade log.
func NewTradeLogStore() *TradeLogStore {
	return &TradeLogStore{
		days: make(map[string][]*domain.TradeRecord),
		ids:  make(map[string]struct{}),
	}
}

// Append adds a trade under its calendar day. Returns ErrDuplicateKey if
// trade_id already exists.
func (s *TradeLogStore) Append(_ context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	day := t.Day()
	s.days[day] = append(s.days[day], &copy)
	s.ids[t.TradeID] = struct{}{}
	return nil
}

// Day retrieves all trades for a calendar date, ordered by timestamp ASC.
func (s *TradeLogStore) Day(_ context.Context, date string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.days[date]
	result := make([]*domain.TradeRecord, 0, len(records))
	for _, t := range records {
		copy := *t
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// Sweep removes whole days older than the cutoff and reports how many
// records were dropped.
func (s *TradeLogStore) Sweep(_ context.Context, before time.Time) (int, error) {
	cutoff := before.UTC().Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for day, records := range s.days {
		if day < cutoff {
			dropped += len(records)
			for _, t := range records {
				delete(s.ids, t.TradeID)
			}
			delete(s.days, day)
		}
	}
	return dropped, nil
}

var _ storage.TradeLogStore = (*TradeLogStore)(nil)

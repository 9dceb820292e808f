package memory

import (
	"context"
	"sort"
	"sync"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/storage"
)

// VolumeObservationStore is an in-memory implementation of
// storage.VolumeObservationStore.
type VolumeObservationStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.VolumeObservation // keyed by mint
}

// NewVolumeObservationStore creates a new in-memory observation store.
func NewVolumeObservationStore() *VolumeObservationStore {
	return &VolumeObservationStore{
		data: make(map[string][]*domain.VolumeObservation),
	}
}

// AppendBatch adds observations in one write.
func (s *VolumeObservationStore) AppendBatch(_ context.Context, obs []*domain.VolumeObservation) error {
	if len(obs) == 0 {
		return nil
	}

	for _, o := range obs {
		if o == nil || o.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		copy := *o
		s.data[o.Mint] = append(s.data[o.Mint], &copy)
	}
	return nil
}

// ByMint retrieves all observations for a mint, ordered by timestamp ASC.
func (s *VolumeObservationStore) ByMint(_ context.Context, mint string) ([]*domain.VolumeObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.data[mint]
	result := make([]*domain.VolumeObservation, 0, len(records))
	for _, o := range records {
		copy := *o
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.VolumeObservationStore = (*VolumeObservationStore)(nil)

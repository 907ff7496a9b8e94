package store

import (
	"sync"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// PriceHistoryStore is a thread-safe append-only store of price ticks,
// keyed by company and chronological. Ticks are never updated or deleted.
type PriceHistoryStore struct {
	mu    sync.RWMutex
	ticks map[int64][]domain.PriceTick // company_id → chronological
}

// NewPriceHistoryStore creates an empty PriceHistoryStore.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{
		ticks: make(map[int64][]domain.PriceTick),
	}
}

// Append adds a tick to the company's chronological list.
func (s *PriceHistoryStore) Append(t domain.PriceTick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks[t.CompanyID] = append(s.ticks[t.CompanyID], t)
}

// History returns up to limit of the most recent ticks for a company in
// chronological order.
func (s *PriceHistoryStore) History(companyID int64, limit int) []domain.PriceTick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticks := s.ticks[companyID]
	if limit > 0 && len(ticks) > limit {
		ticks = ticks[len(ticks)-limit:]
	}

	result := make([]domain.PriceTick, len(ticks))
	copy(result, ticks)
	return result
}

// LatestAtOrBefore returns the most recent tick recorded at or before t,
// falling back to the earliest tick when none is old enough. The second
// return value is false when the company has no history at all.
func (s *PriceHistoryStore) LatestAtOrBefore(companyID int64, t time.Time) (domain.PriceTick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticks := s.ticks[companyID]
	if len(ticks) == 0 {
		return domain.PriceTick{}, false
	}
	for i := len(ticks) - 1; i >= 0; i-- {
		if !ticks[i].RecordedAt.After(t) {
			return ticks[i], true
		}
	}
	return ticks[0], true
}

package store

import (
	"sync"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// TransactionStore is a thread-safe append-only store for executed
// trades, keyed by company. Records are never updated or deleted.
type TransactionStore struct {
	mu        sync.RWMutex
	nextID    int64
	byCompany map[int64][]*domain.Transaction // company_id → chronological
	all       []*domain.Transaction           // chronological across the market
}

// NewTransactionStore creates an empty TransactionStore.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byCompany: make(map[int64][]*domain.Transaction),
	}
}

// Append assigns the next transaction id and adds the record to the
// company's chronological list and the market-wide list.
func (s *TransactionStore) Append(t *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t.TransactionID = s.nextID
	s.byCompany[t.CompanyID] = append(s.byCompany[t.CompanyID], t)
	s.all = append(s.all, t)
}

// ListByCompany returns all transactions for a company in chronological
// order. Returns an empty slice if none exist.
func (s *TransactionStore) ListByCompany(companyID int64) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns := s.byCompany[companyID]
	if txns == nil {
		return []*domain.Transaction{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Transaction, len(txns))
	copy(result, txns)
	return result
}

// Recent returns up to limit transactions across the whole market in
// reverse chronological order (newest first).
func (s *TransactionStore) Recent(limit int) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.all) {
		limit = len(s.all)
	}
	result := make([]*domain.Transaction, 0, limit)
	for i := len(s.all) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.all[i])
	}
	return result
}

// VolumeSince returns the total traded share quantity for a company
// since the given time.
func (s *TransactionStore) VolumeSince(companyID int64, since time.Time) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var volume int64
	txns := s.byCompany[companyID]
	for i := len(txns) - 1; i >= 0; i-- {
		if txns[i].CreatedAt.Before(since) {
			break
		}
		volume += txns[i].Quantity
	}
	return volume
}

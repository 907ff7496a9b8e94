package store

import (
	"sync"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// WalletLedger is a thread-safe append-only store of wallet entries,
// keyed by user and chronological. Entries are never updated or deleted.
type WalletLedger struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64][]*domain.WalletEntry // user_id → chronological
}

// NewWalletLedger creates an empty WalletLedger.
func NewWalletLedger() *WalletLedger {
	return &WalletLedger{
		entries: make(map[int64][]*domain.WalletEntry),
	}
}

// Append assigns the next entry id and adds the entry to the user's
// chronological list.
func (s *WalletLedger) Append(e *domain.WalletEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	e.EntryID = s.nextID
	s.entries[e.UserID] = append(s.entries[e.UserID], e)
}

// ListByUser returns up to limit entries for a user in reverse
// chronological order (newest first).
func (s *WalletLedger) ListByUser(userID int64, limit int) []*domain.WalletEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[userID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	result := make([]*domain.WalletEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, all[i])
	}
	return result
}

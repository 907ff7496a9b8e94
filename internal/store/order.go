package store

import (
	"sync"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// OrderStore is a thread-safe in-memory store for orders,
// with a primary index by order_id and a secondary index by user_id.
type OrderStore struct {
	mu         sync.RWMutex
	nextID     int64
	orders     map[int64]*domain.Order
	userOrders map[int64][]*domain.Order // user_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:     make(map[int64]*domain.Order),
		userOrders: make(map[int64][]*domain.Order),
	}
}

// Create assigns the next order id, adds the order to the store, and
// appends it to the user's secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o.OrderID = s.nextID
	s.orders[o.OrderID] = o
	s.userOrders[o.UserID] = append(s.userOrders[o.UserID], o)
}

// Get retrieves an order by ID. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListByUser returns orders for a user in reverse chronological order
// (newest first). If status is non-nil, only orders matching that status
// are included. Pagination is 1-based. Returns the matching orders for the
// requested page and the total count of matching orders (before pagination).
func (s *OrderStore) ListByUser(userID int64, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.userOrders[userID]

	// Filter by status if provided, collecting in reverse order.
	filtered := make([]*domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)

	// Apply pagination.
	start := (page - 1) * limit
	if start >= total {
		return []*domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total
}

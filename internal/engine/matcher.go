package engine

import (
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

// Matcher implements the matching engine for limit orders with a
// treasury-issuance fallback for buys.
type Matcher struct {
	books     *BookManager
	users     *store.UserStore
	companies *store.CompanyStore
	orders    *store.OrderStore
	settler   *Settler
}

// NewMatcher creates a new Matcher with the given dependencies.
func NewMatcher(
	books *BookManager,
	users *store.UserStore,
	companies *store.CompanyStore,
	orders *store.OrderStore,
	settler *Settler,
) *Matcher {
	return &Matcher{
		books:     books,
		users:     users,
		companies: companies,
		orders:    orders,
		settler:   settler,
	}
}

// SubmitOrder processes an incoming limit order through the matching
// engine. It reserves funds or shares, runs the match loop against the
// opposite side of the book with a treasury-issuance fallback for buys,
// and rests any unfilled remainder on the book.
//
// The caller must provide a fully populated Order with UserID, CompanyID,
// Side, PricePerShare, and Quantity set. The matcher assigns OrderID,
// CreatedAt, and manages all status transitions.
//
// The per-company write lock is held for the entire matching pass, so
// submissions for the same company are serialized; different companies
// match in parallel.
func (m *Matcher) SubmitOrder(order *domain.Order) ([]*domain.Transaction, error) {
	company, err := m.companies.Get(order.CompanyID)
	if err != nil {
		return nil, err
	}

	book := m.books.GetOrCreate(order.CompanyID)
	book.mu.Lock()
	defer book.mu.Unlock()

	user, err := m.users.Get(order.UserID)
	if err != nil {
		return nil, err
	}

	// Reserve funds or shares up front so settlement cannot overdraw.
	user.Mu.Lock()
	if order.Side == domain.OrderSideBuy {
		required := order.PricePerShare * order.Quantity
		if user.AvailableCash() < required {
			user.Mu.Unlock()
			return nil, domain.ErrInsufficientFunds
		}
		user.ReservedCash += required
	} else {
		if user.AvailableShares(order.CompanyID) < order.Quantity {
			user.Mu.Unlock()
			return nil, domain.ErrInsufficientShares
		}
		user.HoldingFor(order.CompanyID).ReservedQuantity += order.Quantity
	}
	user.Mu.Unlock()

	order.CreatedAt = time.Now()
	order.RemainingQuantity = order.Quantity
	order.FilledQuantity = 0
	order.TotalAmount = order.PricePerShare * order.Quantity
	order.Status = domain.OrderStatusPending

	m.orders.Create(order)

	executedAt := time.Now()
	var txns []*domain.Transaction

	for order.RemainingQuantity > 0 {
		// Peek best opposite and check price compatibility
		// (buy limit >= sell limit).
		var best BookEntry
		var found bool
		if order.Side == domain.OrderSideBuy {
			best, found = book.BestSell()
			if found && order.PricePerShare < best.Price {
				found = false
			}
		} else {
			best, found = book.BestBuy()
			if found && best.Price < order.PricePerShare {
				found = false
			}
		}

		if found {
			resting := best.Order

			fillQty := order.RemainingQuantity
			if resting.RemainingQuantity < fillQty {
				fillQty = resting.RemainingQuantity
			}

			// The resting order sets the execution price.
			executionPrice := resting.PricePerShare

			buyOrder, sellOrder := order, resting
			if order.Side == domain.OrderSideSell {
				buyOrder, sellOrder = resting, order
			}

			txn, err := m.settler.SettleTrade(buyOrder, sellOrder, fillQty, executionPrice, executedAt)
			if err != nil {
				// Settlement aborted atomically; stop matching and let
				// the remainder rest.
				break
			}

			applyFill(order, fillQty, executedAt)
			applyFill(resting, fillQty, executedAt)

			if resting.RemainingQuantity == 0 {
				book.Remove(resting.OrderID)
			}

			txns = append(txns, txn)
			continue
		}

		// No compatible resting order. A buy whose remainder fits the
		// treasury issues from available_shares at the current share
		// price, provided the limit covers it.
		if order.Side == domain.OrderSideBuy {
			company.Mu.Lock()
			issuePrice := company.SharePrice
			available := company.AvailableShares
			company.Mu.Unlock()

			if available >= order.RemainingQuantity && order.PricePerShare >= issuePrice {
				qty := order.RemainingQuantity
				txn, err := m.settler.SettleIssuance(order, qty, issuePrice, executedAt)
				if err == nil {
					applyFill(order, qty, executedAt)
					txns = append(txns, txn)
					continue
				}
			}
		}
		break
	}

	// Rest the unfilled remainder on the book.
	if order.RemainingQuantity > 0 {
		entry := BookEntry{
			Price:     order.PricePerShare,
			CreatedAt: order.CreatedAt,
			OrderID:   order.OrderID,
			Order:     order,
		}
		if order.Side == domain.OrderSideBuy {
			book.InsertBuy(entry)
		} else {
			book.InsertSell(entry)
		}
	}

	return txns, nil
}

// applyFill updates an order's quantities and status after a settled fill.
func applyFill(o *domain.Order, qty int64, at time.Time) {
	o.RemainingQuantity -= qty
	o.FilledQuantity += qty
	if o.RemainingQuantity == 0 {
		o.Status = domain.OrderStatusCompleted
		completedAt := at
		o.CompletedAt = &completedAt
	} else {
		o.Status = domain.OrderStatusPartiallyFilled
	}
}

// CancelOrder cancels a pending or partially filled order on behalf of
// the requester. Cancelling a partially filled order cancels only the
// remainder and releases the matching reservation.
//
// Returns ErrOrderNotFound if the order does not exist, ErrUnauthorized
// if the requester does not own it, ErrAlreadyFilled if the order
// completed before the cancellation was observed, and
// ErrOrderNotCancellable if it was already cancelled.
func (m *Matcher) CancelOrder(orderID, requesterID int64) (*domain.Order, error) {
	order, err := m.orders.Get(orderID)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.UserID != requesterID {
		return nil, domain.ErrUnauthorized
	}

	book := m.books.GetOrCreate(order.CompanyID)
	book.mu.Lock()
	defer book.mu.Unlock()

	// Check status under the book lock: an in-flight match may have
	// completed the order after the lookup above.
	switch order.Status {
	case domain.OrderStatusPending, domain.OrderStatusPartiallyFilled:
		// Cancellable.
	case domain.OrderStatusCompleted:
		return nil, domain.ErrAlreadyFilled
	default:
		return nil, domain.ErrOrderNotCancellable
	}

	book.Remove(order.OrderID)

	released := order.RemainingQuantity
	order.RemainingQuantity = 0
	order.Status = domain.OrderStatusCancelled
	now := time.Now()
	order.CancelledAt = &now

	// Release the reservation for the cancelled remainder.
	user, err := m.users.Get(order.UserID)
	if err == nil {
		user.Mu.Lock()
		if order.Side == domain.OrderSideBuy {
			user.ReservedCash -= order.PricePerShare * released
		} else {
			if h, ok := user.Holdings[order.CompanyID]; ok {
				h.ReservedQuantity -= released
			}
		}
		user.Mu.Unlock()
	}

	return order, nil
}

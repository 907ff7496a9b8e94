package service

import (
	"errors"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/engine"
	"github.com/rohitkumar-gith/share-market-simulation/internal/metrics"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
	"github.com/rohitkumar-gith/share-market-simulation/internal/stream"
)

// SubmitOrderRequest represents the input for order submission. A nil
// Price makes a market order, priced from the current share price at
// submission time.
type SubmitOrderRequest struct {
	UserID    int64
	CompanyID int64
	Side      domain.OrderSide
	Quantity  int64
	Price     *float64
}

// SubmitOrderResult is returned after an order is accepted: the order
// in its post-matching state plus the fills executed during the pass.
type SubmitOrderResult struct {
	Order *domain.Order
	Fills []*domain.Transaction
}

// OrderService validates order submissions and drives them through the
// matching engine.
type OrderService struct {
	matcher   *engine.Matcher
	oracle    *engine.PriceOracle
	users     *store.UserStore
	companies *store.CompanyStore
	orders    *store.OrderStore
	hub       *stream.Hub
}

// NewOrderService creates a new OrderService. hub may be nil to disable
// trade-tick broadcasting.
func NewOrderService(
	matcher *engine.Matcher,
	oracle *engine.PriceOracle,
	users *store.UserStore,
	companies *store.CompanyStore,
	orders *store.OrderStore,
	hub *stream.Hub,
) *OrderService {
	return &OrderService{
		matcher:   matcher,
		oracle:    oracle,
		users:     users,
		companies: companies,
		orders:    orders,
		hub:       hub,
	}
}

// SubmitOrder validates and executes an order submission.
func (s *OrderService) SubmitOrder(req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return nil, &domain.ValidationError{
			Message: "side must be \"buy\" or \"sell\"",
		}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ValidationError{
			Message: "quantity must be greater than 0",
		}
	}
	if !s.users.Exists(req.UserID) {
		return nil, domain.ErrUserNotFound
	}
	company, err := s.companies.Get(req.CompanyID)
	if err != nil {
		return nil, err
	}

	var priceCents int64
	if req.Price != nil {
		priceCents, err = validAmount(*req.Price)
		if err != nil {
			return nil, &domain.ValidationError{
				Message: "price must be positive with at most 2 decimal places",
			}
		}
	} else {
		// Market order: peg to the share price observed at submission.
		priceCents, err = s.oracle.CurrentPrice(req.CompanyID)
		if err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		UserID:        req.UserID,
		CompanyID:     req.CompanyID,
		Side:          req.Side,
		Quantity:      req.Quantity,
		PricePerShare: priceCents,
	}

	fills, err := s.matcher.SubmitOrder(order)
	if err != nil {
		metrics.OrderRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues(string(req.Side)).Inc()
	for _, fill := range fills {
		metrics.TradesTotal.WithLabelValues(string(fill.Type)).Inc()
		metrics.TradeVolume.WithLabelValues(company.Ticker).Add(float64(fill.Quantity))
		if s.hub != nil {
			s.hub.Broadcast(stream.TradeMessage{
				Type:          string(fill.Type),
				Ticker:        company.Ticker,
				Quantity:      fill.Quantity,
				PricePerShare: domain.CentsToRupees(fill.PricePerShare),
				ExecutedAt:    fill.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
	}

	return &SubmitOrderResult{Order: order, Fills: fills}, nil
}

// CancelOrder cancels the unfilled remainder of an order owned by the
// requester.
func (s *OrderService) CancelOrder(orderID, requesterID int64) (*domain.Order, error) {
	return s.matcher.CancelOrder(orderID, requesterID)
}

// GetOrder retrieves a single order by id.
func (s *OrderService) GetOrder(orderID int64) (*domain.Order, error) {
	return s.orders.Get(orderID)
}

// OrderPage is one page of a user's order history.
type OrderPage struct {
	Orders []*domain.Order
	Page   int
	Limit  int
	Total  int
}

// ListOrders returns the user's orders, newest first, optionally
// filtered by status, with 1-based pagination.
func (s *OrderService) ListOrders(userID int64, status string, page, limit int) (*OrderPage, error) {
	if !s.users.Exists(userID) {
		return nil, domain.ErrUserNotFound
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var statusFilter *domain.OrderStatus
	if status != "" {
		st := domain.OrderStatus(status)
		switch st {
		case domain.OrderStatusPending, domain.OrderStatusPartiallyFilled,
			domain.OrderStatusCompleted, domain.OrderStatusCancelled:
			statusFilter = &st
		default:
			return nil, &domain.ValidationError{
				Message: "status must be one of: pending, partially_filled, completed, cancelled",
			}
		}
	}

	orders, total := s.orders.ListByUser(userID, statusFilter, page, limit)
	return &OrderPage{Orders: orders, Page: page, Limit: limit, Total: total}, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, domain.ErrCompanyNotFound):
		return "company_not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	default:
		return "other"
	}
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders. A null
// price makes a market order.
type submitOrderRequest struct {
	UserID    int64    `json:"user_id"`
	CompanyID int64    `json:"company_id"`
	Side      string   `json:"side"`
	Quantity  int64    `json:"quantity"`
	Price     *float64 `json:"price"`
}

// orderResponse is the JSON representation of an order.
// Nullable fields use pointers.
type orderResponse struct {
	OrderID           int64          `json:"order_id"`
	UserID            int64          `json:"user_id"`
	CompanyID         int64          `json:"company_id"`
	Side              string         `json:"side"`
	Quantity          int64          `json:"quantity"`
	FilledQuantity    int64          `json:"filled_quantity"`
	RemainingQuantity int64          `json:"remaining_quantity"`
	PricePerShare     float64        `json:"price_per_share"`
	TotalAmount       float64        `json:"total_amount"`
	Status            string         `json:"status"`
	CreatedAt         string         `json:"created_at"`
	CompletedAt       *string        `json:"completed_at"`
	CancelledAt       *string        `json:"cancelled_at"`
	Fills             []fillResponse `json:"fills,omitempty"`
}

// fillResponse is a single executed fill in the order response.
type fillResponse struct {
	TransactionID int64   `json:"transaction_id"`
	Type          string  `json:"type"`
	Quantity      int64   `json:"quantity"`
	PricePerShare float64 `json:"price_per_share"`
	TotalAmount   float64 `json:"total_amount"`
	ExecutedAt    string  `json:"executed_at"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.orderSvc.SubmitOrder(service.SubmitOrderRequest{
		UserID:    req.UserID,
		CompanyID: req.CompanyID,
		Side:      domain.OrderSide(req.Side),
		Quantity:  req.Quantity,
		Price:     req.Price,
	})
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(result.Order, result.Fills))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "order_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	order, err := h.orderSvc.GetOrder(orderID)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order, nil))
}

// CancelOrder handles DELETE /orders/{order_id}. The requesting user is
// identified by the user_id query parameter.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "order_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	requesterID := queryInt64(r, "user_id")
	if requesterID <= 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "user_id query parameter is required")
		return
	}

	order, err := h.orderSvc.CancelOrder(orderID, requesterID)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order, nil))
}

// ListOrders handles GET /users/{user_id}/orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	status := r.URL.Query().Get("status")

	result, err := h.orderSvc.ListOrders(userID, status, page, limit)
	if err != nil {
		mapOrderError(w, err)
		return
	}

	orders := make([]orderResponse, len(result.Orders))
	for i, o := range result.Orders {
		orders[i] = buildOrderResponse(o, nil)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"page":   result.Page,
		"limit":  result.Limit,
		"total":  result.Total,
	})
}

func buildOrderResponse(o *domain.Order, fills []*domain.Transaction) orderResponse {
	resp := orderResponse{
		OrderID:           o.OrderID,
		UserID:            o.UserID,
		CompanyID:         o.CompanyID,
		Side:              string(o.Side),
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		PricePerShare:     domain.CentsToRupees(o.PricePerShare),
		TotalAmount:       domain.CentsToRupees(o.TotalAmount),
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.CompletedAt != nil {
		s := o.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	if o.CancelledAt != nil {
		s := o.CancelledAt.UTC().Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	for _, f := range fills {
		resp.Fills = append(resp.Fills, fillResponse{
			TransactionID: f.TransactionID,
			Type:          string(f.Type),
			Quantity:      f.Quantity,
			PricePerShare: domain.CentsToRupees(f.PricePerShare),
			TotalAmount:   domain.CentsToRupees(f.TotalAmount),
			ExecutedAt:    f.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}

// mapOrderError maps domain errors to HTTP responses for order endpoints.
func mapOrderError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, domain.ErrCompanyNotFound):
		WriteError(w, http.StatusNotFound, "company_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrAlreadyFilled):
		WriteError(w, http.StatusConflict, "already_filled", err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable):
		WriteError(w, http.StatusConflict, "order_not_cancellable", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrInsufficientShares):
		WriteError(w, http.StatusConflict, "insufficient_shares", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

package domain

import "time"

// OrderSide indicates whether an order buys or sells shares.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus represents the lifecycle state of an order. Transitions are
// restricted to pending → {partially_filled, completed, cancelled};
// completed and cancelled are terminal.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// Order represents a limit order to buy or sell a company's shares.
// Quantity is the original size; RemainingQuantity tracks the unfilled
// amount as the matching engine consumes it.
type Order struct {
	OrderID           int64
	UserID            int64
	CompanyID         int64
	Side              OrderSide
	Quantity          int64
	RemainingQuantity int64
	FilledQuantity    int64
	PricePerShare     int64 // limit price in cents
	TotalAmount       int64 // quantity × price at submission, cents
	Status            OrderStatus
	CreatedAt         time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
}

// Open reports whether the order can still trade or be cancelled.
func (o *Order) Open() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPartiallyFilled
}

package domain

import "time"

// Holding represents a user's aggregate position in one company's shares
// with a quantity-weighted average cost basis. The invariant
// total_invested == quantity × average_buy_price holds within integer
// rounding after every mutation.
type Holding struct {
	Quantity         int64
	ReservedQuantity int64 // shares locked by pending sell orders
	AverageBuyPrice  int64 // cents
	TotalInvested    int64 // cents
	LastUpdated      time.Time
}

// AddShares records a purchase of qty shares at price cents each and
// recomputes the weighted-average cost basis:
// new_avg = (old_qty×old_avg + qty×price) / (old_qty+qty).
func (h *Holding) AddShares(qty, price int64, at time.Time) {
	h.TotalInvested += qty * price
	h.Quantity += qty
	h.AverageBuyPrice = h.TotalInvested / h.Quantity
	h.LastUpdated = at
}

// RemoveShares records a sale of qty shares, removing the proportional
// share of total_invested while leaving average_buy_price unchanged.
// Realized P&L is qty × (sale_price − average_buy_price), derivable by
// the caller; it is not stored here. When the position reaches zero the
// cost basis is zeroed out.
func (h *Holding) RemoveShares(qty int64, at time.Time) error {
	if h.Quantity < qty {
		return ErrInsufficientShares
	}
	costRemoved := h.TotalInvested * qty / h.Quantity
	h.TotalInvested -= costRemoved
	h.Quantity -= qty
	if h.Quantity == 0 {
		h.TotalInvested = 0
		h.AverageBuyPrice = 0
	}
	h.LastUpdated = at
	return nil
}

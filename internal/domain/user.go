package domain

import (
	"sync"
	"time"
)

// User represents a registered market participant with a wallet and a
// per-company holdings map. Bot accounts are ordinary users; nothing in
// the trading core distinguishes them.
type User struct {
	UserID        int64
	Username      string
	Email         string
	FullName      string
	WalletBalance int64              // total cash in cents
	ReservedCash  int64              // cash locked by pending buy orders
	Holdings      map[int64]*Holding // company_id → holding
	CreatedAt     time.Time
	Mu            sync.Mutex // guards wallet and holdings mutations
}

// AvailableCash returns the user's unreserved cash balance.
func (u *User) AvailableCash() int64 {
	return u.WalletBalance - u.ReservedCash
}

// AvailableShares returns the unreserved share quantity for the given
// company, or 0 if the user has no holding in that company.
func (u *User) AvailableShares(companyID int64) int64 {
	h, ok := u.Holdings[companyID]
	if !ok {
		return 0
	}
	return h.Quantity - h.ReservedQuantity
}

// HoldingFor returns the holding for the given company, creating an
// empty one if none exists. Caller must hold u.Mu.
func (u *User) HoldingFor(companyID int64) *Holding {
	h, ok := u.Holdings[companyID]
	if !ok {
		h = &Holding{}
		u.Holdings[companyID] = h
	}
	return h
}

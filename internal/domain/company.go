package domain

import (
	"sync"
	"time"
)

// Company represents a listed company with a treasury of unsold shares
// and its own wallet. SharePrice always reflects the most recent executed
// trade, or the listing price before any trade occurs.
//
// Invariants: 0 <= AvailableShares <= TotalShares.
type Company struct {
	CompanyID       int64
	OwnerID         int64
	Name            string
	Ticker          string
	SharePrice      int64 // cents, last trade price
	TotalShares     int64
	AvailableShares int64 // treasury shares not yet issued
	WalletBalance   int64 // company wallet in cents
	Description     string
	CreatedAt       time.Time
	Mu              sync.Mutex // guards price, treasury, and wallet mutations
}

// MarketCap returns share_price × total_shares in cents.
// Caller must hold c.Mu if concurrent mutation is possible.
func (c *Company) MarketCap() int64 {
	return c.SharePrice * c.TotalShares
}

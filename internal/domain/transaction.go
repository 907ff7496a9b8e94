package domain

import "time"

// TransactionType distinguishes primary issuance from secondary trades.
type TransactionType string

const (
	TransactionTypeIPO   TransactionType = "ipo"
	TransactionTypeTrade TransactionType = "trade"
)

// Transaction is an immutable record of one executed fill. A partially
// filled order produces one row per fill. SellerID is nil for issuance
// trades, where the company treasury is the counterparty.
type Transaction struct {
	TransactionID int64
	BuyerID       int64
	SellerID      *int64
	CompanyID     int64
	Quantity      int64
	PricePerShare int64 // cents
	TotalAmount   int64 // cents
	Type          TransactionType
	CreatedAt     time.Time
}

// PriceTick is an immutable price-history record, one per executed trade.
type PriceTick struct {
	CompanyID  int64
	Price      int64 // cents
	RecordedAt time.Time
}

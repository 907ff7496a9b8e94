package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

// Settler applies matched trades to wallets and holdings. Each settlement
// is atomic: all checks run under the account locks before the first
// mutation, so either every mutation applies or none does.
//
// Account locks are acquired in ascending user id order; the company
// lock, when needed, is acquired after user locks. This fixed order
// prevents deadlock between settlements touching the same accounts.
type Settler struct {
	users        *store.UserStore
	companies    *store.CompanyStore
	transactions *store.TransactionStore
	wallet       *store.WalletLedger
	oracle       *PriceOracle
}

// NewSettler creates a Settler with the given dependencies.
func NewSettler(
	users *store.UserStore,
	companies *store.CompanyStore,
	transactions *store.TransactionStore,
	wallet *store.WalletLedger,
	oracle *PriceOracle,
) *Settler {
	return &Settler{
		users:        users,
		companies:    companies,
		transactions: transactions,
		wallet:       wallet,
		oracle:       oracle,
	}
}

// lockAccounts locks one or two user accounts in ascending user id order
// and returns the matching unlock function.
func lockAccounts(a, b *domain.User) func() {
	if a.UserID == b.UserID {
		a.Mu.Lock()
		return a.Mu.Unlock
	}
	if a.UserID > b.UserID {
		a, b = b, a
	}
	a.Mu.Lock()
	b.Mu.Lock()
	return func() {
		b.Mu.Unlock()
		a.Mu.Unlock()
	}
}

// SettleTrade applies a matched secondary-market trade: buyer wallet
// debit, seller wallet credit, buyer holding upsert with weighted-average
// cost, seller holding decrement. Fails with ErrInsufficientFunds or
// ErrInsufficientShares before any mutation; on success it appends the
// transaction record, both wallet ledger entries, and the price tick.
//
// The buyer is charged qty × price but releases qty × buy.PricePerShare
// of reserved cash, so a fill below the buy limit returns the difference.
func (s *Settler) SettleTrade(buy, sell *domain.Order, qty, price int64, executedAt time.Time) (*domain.Transaction, error) {
	buyer, err := s.users.Get(buy.UserID)
	if err != nil {
		return nil, err
	}
	seller, err := s.users.Get(sell.UserID)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.Get(buy.CompanyID)
	if err != nil {
		return nil, err
	}

	total := qty * price

	unlock := lockAccounts(buyer, seller)

	if buyer.WalletBalance < total {
		unlock()
		return nil, domain.ErrInsufficientFunds
	}
	sellerHolding, ok := seller.Holdings[buy.CompanyID]
	if !ok || sellerHolding.Quantity < qty {
		unlock()
		return nil, domain.ErrInsufficientShares
	}

	// Checks passed: apply all four mutations together.
	buyer.WalletBalance -= total
	buyer.ReservedCash -= buy.PricePerShare * qty
	buyer.HoldingFor(buy.CompanyID).AddShares(qty, price, executedAt)

	seller.WalletBalance += total
	sellerHolding.ReservedQuantity -= qty
	if err := sellerHolding.RemoveShares(qty, executedAt); err != nil {
		// Unreachable: quantity checked above under the same lock.
		unlock()
		return nil, err
	}

	ref := uuid.New().String()
	s.wallet.Append(&domain.WalletEntry{
		UserID:       buyer.UserID,
		Type:         domain.WalletEntryTradeDebit,
		Amount:       total,
		BalanceAfter: buyer.WalletBalance,
		Reference:    ref,
		Description:  fmt.Sprintf("Bought %d shares of %s", qty, company.Ticker),
		CreatedAt:    executedAt,
	})
	s.wallet.Append(&domain.WalletEntry{
		UserID:       seller.UserID,
		Type:         domain.WalletEntryTradeCredit,
		Amount:       total,
		BalanceAfter: seller.WalletBalance,
		Reference:    ref,
		Description:  fmt.Sprintf("Sold %d shares of %s", qty, company.Ticker),
		CreatedAt:    executedAt,
	})

	unlock()

	sellerID := sell.UserID
	txn := &domain.Transaction{
		BuyerID:       buy.UserID,
		SellerID:      &sellerID,
		CompanyID:     buy.CompanyID,
		Quantity:      qty,
		PricePerShare: price,
		TotalAmount:   total,
		Type:          domain.TransactionTypeTrade,
		CreatedAt:     executedAt,
	}
	s.transactions.Append(txn)

	if err := s.oracle.RecordTrade(buy.CompanyID, price, executedAt); err != nil {
		return nil, err
	}
	return txn, nil
}

// SettleIssuance applies a primary-market fill out of the company
// treasury: buyer wallet debit, company wallet credit, buyer holding
// upsert, available_shares decrement. The company wallet credit equals
// the buyer debit exactly; no cash is created or destroyed.
func (s *Settler) SettleIssuance(buy *domain.Order, qty, price int64, executedAt time.Time) (*domain.Transaction, error) {
	buyer, err := s.users.Get(buy.UserID)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.Get(buy.CompanyID)
	if err != nil {
		return nil, err
	}

	total := qty * price

	buyer.Mu.Lock()
	if buyer.WalletBalance < total {
		buyer.Mu.Unlock()
		return nil, domain.ErrInsufficientFunds
	}

	company.Mu.Lock()
	if company.AvailableShares < qty {
		company.Mu.Unlock()
		buyer.Mu.Unlock()
		return nil, domain.ErrTreasuryExhausted
	}

	buyer.WalletBalance -= total
	buyer.ReservedCash -= buy.PricePerShare * qty
	buyer.HoldingFor(buy.CompanyID).AddShares(qty, price, executedAt)

	company.AvailableShares -= qty
	company.WalletBalance += total
	company.Mu.Unlock()

	s.wallet.Append(&domain.WalletEntry{
		UserID:       buyer.UserID,
		Type:         domain.WalletEntryTradeDebit,
		Amount:       total,
		BalanceAfter: buyer.WalletBalance,
		Reference:    uuid.New().String(),
		Description:  fmt.Sprintf("Bought %d shares of %s from treasury", qty, company.Ticker),
		CreatedAt:    executedAt,
	})
	buyer.Mu.Unlock()

	txn := &domain.Transaction{
		BuyerID:       buy.UserID,
		SellerID:      nil,
		CompanyID:     buy.CompanyID,
		Quantity:      qty,
		PricePerShare: price,
		TotalAmount:   total,
		Type:          domain.TransactionTypeIPO,
		CreatedAt:     executedAt,
	}
	s.transactions.Append(txn)

	if err := s.oracle.RecordTrade(buy.CompanyID, price, executedAt); err != nil {
		return nil, err
	}
	return txn, nil
}

package domain

import "time"

// WalletEntryType categorizes wallet ledger entries.
type WalletEntryType string

const (
	WalletEntryDeposit     WalletEntryType = "deposit"
	WalletEntryWithdrawal  WalletEntryType = "withdrawal"
	WalletEntryTransferIn  WalletEntryType = "transfer_in"
	WalletEntryTransferOut WalletEntryType = "transfer_out"
	WalletEntryTradeDebit  WalletEntryType = "trade_debit"
	WalletEntryTradeCredit WalletEntryType = "trade_credit"
	WalletEntryLoanCredit  WalletEntryType = "loan_credit"
	WalletEntryLoanPayment WalletEntryType = "loan_payment"
)

// WalletEntry is an immutable wallet ledger record. BalanceAfter captures
// the wallet balance at append time so statements can be rebuilt without
// replaying the full ledger.
type WalletEntry struct {
	EntryID      int64
	UserID       int64
	Type         WalletEntryType
	Amount       int64 // cents, always positive; Type carries the direction
	BalanceAfter int64 // cents
	Reference    string // opaque correlation id
	Description  string
	CreatedAt    time.Time
}

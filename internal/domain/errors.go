package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrUserAlreadyExists   = errors.New("user_already_exists")
	ErrUserNotFound        = errors.New("user_not_found")
	ErrCompanyNotFound     = errors.New("company_not_found")
	ErrTickerTaken         = errors.New("ticker_taken")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrOrderNotCancellable = errors.New("order_not_cancellable")
	ErrAlreadyFilled       = errors.New("already_filled")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientFunds   = errors.New("insufficient_funds")
	ErrInsufficientShares  = errors.New("insufficient_shares")
	ErrTreasuryExhausted   = errors.New("treasury_exhausted")
	ErrHoldingNotFound     = errors.New("holding_not_found")
	ErrLoanNotFound        = errors.New("loan_not_found")
	ErrLoanNotActive       = errors.New("loan_not_active")
	ErrInvalidPayment      = errors.New("invalid_payment")
	ErrLoanLimitReached    = errors.New("loan_limit_reached")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle state of a loan:
// active → paid when the balance reaches zero via payments,
// active → defaulted when the due date passes with a nonzero balance.
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusPaid      LoanStatus = "paid"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// Loan represents an amortized loan against a user's wallet.
type Loan struct {
	LoanID           int64
	UserID           int64
	Principal        int64           // cents
	InterestRate     decimal.Decimal // annual percent, e.g. 5.0
	RemainingBalance int64           // cents
	MonthlyPayment   int64           // cents
	TermMonths       int
	Status           LoanStatus
	IssuedAt         time.Time
	DueDate          time.Time
	Mu               sync.Mutex // guards balance and status mutations
}

// LoanPayment is an immutable record of one loan payment with its
// interest/principal split and the balance after the payment.
type LoanPayment struct {
	PaymentID        int64
	LoanID           int64
	PaymentAmount    int64 // cents
	PrincipalAmount  int64 // cents
	InterestAmount   int64 // cents
	RemainingBalance int64 // cents
	PaymentDate      time.Time
}

// PaymentBreakdown is the result of applying one payment to a loan.
type PaymentBreakdown struct {
	PaymentAmount    int64
	PrincipalAmount  int64
	InterestAmount   int64
	RemainingBalance int64
	Status           LoanStatus
}

// MonthlyPaymentCents computes the amortized monthly payment in cents:
// M = P·r(1+r)^n / ((1+r)^n − 1) with r the monthly rate. A zero rate
// degenerates to principal/months.
func MonthlyPaymentCents(principal int64, annualRate decimal.Decimal, months int) int64 {
	p := decimal.NewFromInt(principal)
	n := decimal.NewFromInt(int64(months))
	if annualRate.IsZero() {
		return p.DivRound(n, 0).IntPart()
	}
	r := annualRate.Div(decimal.NewFromInt(1200))
	growth := decimal.NewFromInt(1).Add(r).Pow(n)
	payment := p.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return payment.Round(0).IntPart()
}

// periodicRate returns the monthly interest rate as a decimal fraction.
func (l *Loan) periodicRate() decimal.Decimal {
	return l.InterestRate.Div(decimal.NewFromInt(1200))
}

// ApplyPayment applies a payment to the loan, splitting it into interest
// (remaining_balance × periodic_rate) and principal. Payments above the
// remaining balance are clamped to it; a payment equal to the remaining
// balance retires the loan in full and transitions it to paid.
//
// Returns ErrInvalidPayment for non-positive amounts and ErrLoanNotActive
// when the loan is paid or defaulted. Caller must hold l.Mu.
func (l *Loan) ApplyPayment(amount int64) (PaymentBreakdown, error) {
	if amount <= 0 {
		return PaymentBreakdown{}, ErrInvalidPayment
	}
	if l.Status != LoanStatusActive {
		return PaymentBreakdown{}, ErrLoanNotActive
	}

	if amount > l.RemainingBalance {
		amount = l.RemainingBalance
	}

	var interest, principal int64
	if amount == l.RemainingBalance {
		// Payoff: the whole amount goes to principal.
		principal = amount
	} else {
		interest = decimal.NewFromInt(l.RemainingBalance).Mul(l.periodicRate()).Round(0).IntPart()
		principal = amount - interest
		if principal < 0 {
			principal = 0
			interest = amount
		}
	}

	l.RemainingBalance -= principal
	if l.RemainingBalance <= 0 {
		l.RemainingBalance = 0
		l.Status = LoanStatusPaid
	}

	return PaymentBreakdown{
		PaymentAmount:    amount,
		PrincipalAmount:  principal,
		InterestAmount:   interest,
		RemainingBalance: l.RemainingBalance,
		Status:           l.Status,
	}, nil
}

// Overdue reports whether the loan is active past its due date with a
// nonzero balance. Caller must hold l.Mu.
func (l *Loan) Overdue(now time.Time) bool {
	return l.Status == LoanStatusActive && l.RemainingBalance > 0 && now.After(l.DueDate)
}

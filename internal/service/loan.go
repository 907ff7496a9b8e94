package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/metrics"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

// maxActiveLoans caps how many active loans one user may hold.
const maxActiveLoans = 3

// loanGracePeriod is how long after issuance a loan may remain unpaid
// before the default sweep marks it defaulted.
const loanGracePeriod = 30 * 24 * time.Hour

// LoanConfig holds loan policy limits, amounts in cents.
type LoanConfig struct {
	MinAmount     int64
	MaxAmount     int64
	DefaultRate   decimal.Decimal // annual percent
	MinTermMonths int
	MaxTermMonths int
	SweepInterval time.Duration
}

// ApplyLoanRequest represents a loan application.
type ApplyLoanRequest struct {
	UserID       int64
	Amount       float64
	TermMonths   int
	InterestRate *float64 // nil uses the configured default rate
}

// LoanSummary aggregates a user's loan position.
type LoanSummary struct {
	TotalLoans        int
	ActiveLoans       int
	PaidLoans         int
	DefaultedLoans    int
	TotalBorrowed     int64
	TotalDebt         int64
	MonthlyPaymentDue int64
}

// LoanService handles loan issuance, repayment, and the default sweep.
type LoanService struct {
	loans  *store.LoanStore
	users  *store.UserStore
	wallet *store.WalletLedger
	cfg    LoanConfig
}

// NewLoanService creates a new LoanService.
func NewLoanService(loans *store.LoanStore, users *store.UserStore, wallet *store.WalletLedger, cfg LoanConfig) *LoanService {
	return &LoanService{
		loans:  loans,
		users:  users,
		wallet: wallet,
		cfg:    cfg,
	}
}

// Apply validates eligibility and issues a loan, crediting the principal
// to the borrower's wallet. Eligibility: at most maxActiveLoans active
// loans, and outstanding debt plus the new principal within twice the
// maximum single-loan amount.
func (s *LoanService) Apply(req ApplyLoanRequest) (*domain.Loan, error) {
	amountCents, err := validAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if amountCents < s.cfg.MinAmount || amountCents > s.cfg.MaxAmount {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("amount must be between %.2f and %.2f",
				domain.CentsToRupees(s.cfg.MinAmount), domain.CentsToRupees(s.cfg.MaxAmount)),
		}
	}
	if req.TermMonths < s.cfg.MinTermMonths || req.TermMonths > s.cfg.MaxTermMonths {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("term_months must be between %d and %d",
				s.cfg.MinTermMonths, s.cfg.MaxTermMonths),
		}
	}

	rate := s.cfg.DefaultRate
	if req.InterestRate != nil {
		if *req.InterestRate < 0 || *req.InterestRate > 100 {
			return nil, &domain.ValidationError{
				Message: "interest_rate must be between 0 and 100",
			}
		}
		rate = decimal.NewFromFloat(*req.InterestRate)
	}

	user, err := s.users.Get(req.UserID)
	if err != nil {
		return nil, err
	}

	var active int
	var outstanding int64
	for _, l := range s.loans.ListByUser(req.UserID) {
		l.Mu.Lock()
		if l.Status == domain.LoanStatusActive {
			active++
			outstanding += l.RemainingBalance
		}
		l.Mu.Unlock()
	}
	if active >= maxActiveLoans {
		return nil, domain.ErrLoanLimitReached
	}
	if outstanding+amountCents > 2*s.cfg.MaxAmount {
		return nil, domain.ErrLoanLimitReached
	}

	now := time.Now()
	loan := &domain.Loan{
		UserID:           req.UserID,
		Principal:        amountCents,
		InterestRate:     rate,
		RemainingBalance: amountCents,
		MonthlyPayment:   domain.MonthlyPaymentCents(amountCents, rate, req.TermMonths),
		TermMonths:       req.TermMonths,
		Status:           domain.LoanStatusActive,
		IssuedAt:         now,
		DueDate:          now.Add(loanGracePeriod),
	}
	s.loans.Create(loan)

	user.Mu.Lock()
	user.WalletBalance += amountCents
	s.wallet.Append(&domain.WalletEntry{
		UserID:       user.UserID,
		Type:         domain.WalletEntryLoanCredit,
		Amount:       amountCents,
		BalanceAfter: user.WalletBalance,
		Reference:    uuid.New().String(),
		Description:  fmt.Sprintf("Loan #%d disbursement", loan.LoanID),
		CreatedAt:    now,
	})
	user.Mu.Unlock()

	metrics.ActiveLoans.Inc()
	slog.Info("loan issued",
		slog.Int64("loan_id", loan.LoanID),
		slog.Int64("user_id", loan.UserID),
		slog.Int64("principal_cents", loan.Principal),
		slog.Int("term_months", loan.TermMonths))

	return loan, nil
}

// Pay applies a repayment to an active loan. Overpayment is clamped to
// the remaining balance; paying the full balance settles the loan.
func (s *LoanService) Pay(loanID, userID int64, amount float64) (*domain.PaymentBreakdown, error) {
	amountCents, err := domain.RupeesToCents(amount)
	if err != nil || amountCents <= 0 {
		return nil, domain.ErrInvalidPayment
	}

	loan, err := s.loans.Get(loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}

	// Account lock first, loan lock second; no other path takes both.
	user.Mu.Lock()
	defer user.Mu.Unlock()
	loan.Mu.Lock()
	defer loan.Mu.Unlock()

	if loan.Status != domain.LoanStatusActive {
		return nil, domain.ErrLoanNotActive
	}

	pay := amountCents
	if pay > loan.RemainingBalance {
		pay = loan.RemainingBalance
	}
	if user.AvailableCash() < pay {
		return nil, domain.ErrInsufficientFunds
	}

	breakdown, err := loan.ApplyPayment(pay)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.WalletBalance -= pay
	s.wallet.Append(&domain.WalletEntry{
		UserID:       userID,
		Type:         domain.WalletEntryLoanPayment,
		Amount:       pay,
		BalanceAfter: user.WalletBalance,
		Reference:    uuid.New().String(),
		Description:  fmt.Sprintf("Loan #%d payment", loanID),
		CreatedAt:    now,
	})
	s.loans.AddPayment(&domain.LoanPayment{
		LoanID:           loanID,
		PaymentAmount:    breakdown.PaymentAmount,
		PrincipalAmount:  breakdown.PrincipalAmount,
		InterestAmount:   breakdown.InterestAmount,
		RemainingBalance: breakdown.RemainingBalance,
		PaymentDate:      now,
	})

	if breakdown.Status == domain.LoanStatusPaid {
		metrics.ActiveLoans.Dec()
		slog.Info("loan settled",
			slog.Int64("loan_id", loanID),
			slog.Int64("user_id", userID))
	}

	return &breakdown, nil
}

// Get retrieves a loan, enforcing ownership.
func (s *LoanService) Get(loanID, userID int64) (*domain.Loan, error) {
	loan, err := s.loans.Get(loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return loan, nil
}

// List returns all of a user's loans.
func (s *LoanService) List(userID int64) ([]*domain.Loan, error) {
	if !s.users.Exists(userID) {
		return nil, domain.ErrUserNotFound
	}
	return s.loans.ListByUser(userID), nil
}

// Payments returns a loan's payment history, newest first.
func (s *LoanService) Payments(loanID, userID int64) ([]*domain.LoanPayment, error) {
	if _, err := s.Get(loanID, userID); err != nil {
		return nil, err
	}
	return s.loans.PaymentsByLoan(loanID), nil
}

// Summary aggregates the user's loan position.
func (s *LoanService) Summary(userID int64) (*LoanSummary, error) {
	if !s.users.Exists(userID) {
		return nil, domain.ErrUserNotFound
	}

	sum := &LoanSummary{}
	for _, l := range s.loans.ListByUser(userID) {
		l.Mu.Lock()
		sum.TotalLoans++
		sum.TotalBorrowed += l.Principal
		switch l.Status {
		case domain.LoanStatusActive:
			sum.ActiveLoans++
			sum.TotalDebt += l.RemainingBalance
			sum.MonthlyPaymentDue += l.MonthlyPayment
		case domain.LoanStatusPaid:
			sum.PaidLoans++
		case domain.LoanStatusDefaulted:
			sum.DefaultedLoans++
		}
		l.Mu.Unlock()
	}
	return sum, nil
}

// Start launches the default sweep loop. It scans all loans at the
// configured interval and marks overdue active loans defaulted. The
// loop stops when ctx is cancelled.
func (s *LoanService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		slog.Info("loan default sweep started",
			slog.Duration("interval", s.cfg.SweepInterval))

		for {
			select {
			case <-ctx.Done():
				slog.Info("loan default sweep stopped")
				return
			case <-ticker.C:
				s.sweep(time.Now())
			}
		}
	}()
}

func (s *LoanService) sweep(now time.Time) {
	for _, loan := range s.loans.ListAll() {
		loan.Mu.Lock()
		if loan.Overdue(now) {
			loan.Status = domain.LoanStatusDefaulted
			metrics.ActiveLoans.Dec()
			slog.Warn("loan defaulted",
				slog.Int64("loan_id", loan.LoanID),
				slog.Int64("user_id", loan.UserID),
				slog.Int64("remaining_cents", loan.RemainingBalance))
		}
		loan.Mu.Unlock()
	}
}

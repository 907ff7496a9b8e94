package store

import (
	"sync"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// LoanStore is a thread-safe in-memory store for loans and their
// payment records, keyed by loan_id with a secondary index by user_id.
type LoanStore struct {
	mu            sync.RWMutex
	nextLoanID    int64
	nextPaymentID int64
	loans         map[int64]*domain.Loan
	userLoans     map[int64][]*domain.Loan      // user_id → loans (append-only)
	payments      map[int64][]*domain.LoanPayment // loan_id → chronological
}

// NewLoanStore creates an empty LoanStore.
func NewLoanStore() *LoanStore {
	return &LoanStore{
		loans:     make(map[int64]*domain.Loan),
		userLoans: make(map[int64][]*domain.Loan),
		payments:  make(map[int64][]*domain.LoanPayment),
	}
}

// Create assigns the next loan id and adds the loan to the store.
func (s *LoanStore) Create(l *domain.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLoanID++
	l.LoanID = s.nextLoanID
	s.loans[l.LoanID] = l
	s.userLoans[l.UserID] = append(s.userLoans[l.UserID], l)
}

// Get retrieves a loan by ID. It returns domain.ErrLoanNotFound if the
// loan does not exist.
func (s *LoanStore) Get(id int64) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return l, nil
}

// ListByUser returns all loans for a user in creation order.
func (s *LoanStore) ListByUser(userID int64) []*domain.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.userLoans[userID]
	result := make([]*domain.Loan, len(all))
	copy(result, all)
	return result
}

// ListAll returns every loan in the store. Used by the default sweeper.
func (s *LoanStore) ListAll() []*domain.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Loan, 0, len(s.loans))
	for _, l := range s.loans {
		result = append(result, l)
	}
	return result
}

// AddPayment assigns the next payment id and appends the record to the
// loan's chronological payment list.
func (s *LoanStore) AddPayment(p *domain.LoanPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPaymentID++
	p.PaymentID = s.nextPaymentID
	s.payments[p.LoanID] = append(s.payments[p.LoanID], p)
}

// PaymentsByLoan returns a loan's payments in reverse chronological
// order (newest first).
func (s *LoanStore) PaymentsByLoan(loanID int64) []*domain.LoanPayment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.payments[loanID]
	result := make([]*domain.LoanPayment, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}

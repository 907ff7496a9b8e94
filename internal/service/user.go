package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// RegisterUserRequest represents the input for user registration.
type RegisterUserRequest struct {
	Username string
	Email    string
	FullName string
}

// BalanceResponse represents the response for the wallet balance endpoint.
type BalanceResponse struct {
	UserID        int64
	WalletBalance int64
	ReservedCash  int64
	AvailableCash int64
}

// PortfolioHolding represents one position in a portfolio response,
// enriched with the company's current price and derived P&L.
type PortfolioHolding struct {
	CompanyID         int64
	Ticker            string
	CompanyName       string
	Quantity          int64
	ReservedQuantity  int64
	AverageBuyPrice   int64
	TotalInvested     int64
	CurrentPrice      int64
	CurrentValue      int64
	ProfitLoss        int64
	ProfitLossPercent float64
}

// UserService handles user registration, wallet operations, and
// portfolio queries.
type UserService struct {
	users          *store.UserStore
	companies      *store.CompanyStore
	wallet         *store.WalletLedger
	initialBalance int64 // cents credited at registration
}

// NewUserService creates a new UserService.
func NewUserService(users *store.UserStore, companies *store.CompanyStore, wallet *store.WalletLedger, initialBalance int64) *UserService {
	return &UserService{
		users:          users,
		companies:      companies,
		wallet:         wallet,
		initialBalance: initialBalance,
	}
}

// Register validates the request and creates a user with the configured
// starting wallet balance, recording the opening deposit in the ledger.
func (s *UserService) Register(req RegisterUserRequest) (*domain.User, error) {
	if !usernameRegex.MatchString(req.Username) {
		return nil, &domain.ValidationError{
			Message: "username must match ^[a-zA-Z0-9_]{3,32}$",
		}
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, &domain.ValidationError{
			Message: "email must be a valid address",
		}
	}
	if req.FullName == "" || len(req.FullName) > 100 {
		return nil, &domain.ValidationError{
			Message: "full_name must be 1-100 characters",
		}
	}

	user := &domain.User{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		WalletBalance: s.initialBalance,
		Holdings:      make(map[int64]*domain.Holding),
		CreatedAt:     time.Now(),
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	s.wallet.Append(&domain.WalletEntry{
		UserID:       user.UserID,
		Type:         domain.WalletEntryDeposit,
		Amount:       s.initialBalance,
		BalanceAfter: s.initialBalance,
		Reference:    uuid.New().String(),
		Description:  "Starting balance",
		CreatedAt:    user.CreatedAt,
	})

	return user, nil
}

// Deposit adds funds to a user's wallet and records a ledger entry.
func (s *UserService) Deposit(userID int64, amount float64, description string) (int64, error) {
	cents, err := validAmount(amount)
	if err != nil {
		return 0, err
	}

	user, err := s.users.Get(userID)
	if err != nil {
		return 0, err
	}

	if description == "" {
		description = "Deposit"
	}

	user.Mu.Lock()
	user.WalletBalance += cents
	balance := user.WalletBalance
	s.wallet.Append(&domain.WalletEntry{
		UserID:       userID,
		Type:         domain.WalletEntryDeposit,
		Amount:       cents,
		BalanceAfter: balance,
		Reference:    uuid.New().String(),
		Description:  description,
		CreatedAt:    time.Now(),
	})
	user.Mu.Unlock()

	return balance, nil
}

// Withdraw removes funds from a user's wallet. Fails with
// ErrInsufficientFunds if the unreserved balance cannot cover the amount.
func (s *UserService) Withdraw(userID int64, amount float64, description string) (int64, error) {
	cents, err := validAmount(amount)
	if err != nil {
		return 0, err
	}

	user, err := s.users.Get(userID)
	if err != nil {
		return 0, err
	}

	if description == "" {
		description = "Withdrawal"
	}

	user.Mu.Lock()
	if user.AvailableCash() < cents {
		user.Mu.Unlock()
		return 0, domain.ErrInsufficientFunds
	}
	user.WalletBalance -= cents
	balance := user.WalletBalance
	s.wallet.Append(&domain.WalletEntry{
		UserID:       userID,
		Type:         domain.WalletEntryWithdrawal,
		Amount:       cents,
		BalanceAfter: balance,
		Reference:    uuid.New().String(),
		Description:  description,
		CreatedAt:    time.Now(),
	})
	user.Mu.Unlock()

	return balance, nil
}

// Transfer moves funds between two users' wallets, locking both accounts
// in ascending user id order. Both ledger entries share one reference id.
func (s *UserService) Transfer(senderID int64, recipientUsername string, amount float64) error {
	cents, err := validAmount(amount)
	if err != nil {
		return err
	}

	sender, err := s.users.Get(senderID)
	if err != nil {
		return err
	}
	recipient, err := s.users.GetByUsername(recipientUsername)
	if err != nil {
		return err
	}
	if recipient.UserID == senderID {
		return &domain.ValidationError{
			Message: "cannot transfer to yourself",
		}
	}

	first, second := sender, recipient
	if first.UserID > second.UserID {
		first, second = second, first
	}
	first.Mu.Lock()
	second.Mu.Lock()
	defer func() {
		second.Mu.Unlock()
		first.Mu.Unlock()
	}()

	if sender.AvailableCash() < cents {
		return domain.ErrInsufficientFunds
	}

	now := time.Now()
	ref := uuid.New().String()

	sender.WalletBalance -= cents
	s.wallet.Append(&domain.WalletEntry{
		UserID:       sender.UserID,
		Type:         domain.WalletEntryTransferOut,
		Amount:       cents,
		BalanceAfter: sender.WalletBalance,
		Reference:    ref,
		Description:  fmt.Sprintf("Transfer to %s", recipient.Username),
		CreatedAt:    now,
	})

	recipient.WalletBalance += cents
	s.wallet.Append(&domain.WalletEntry{
		UserID:       recipient.UserID,
		Type:         domain.WalletEntryTransferIn,
		Amount:       cents,
		BalanceAfter: recipient.WalletBalance,
		Reference:    ref,
		Description:  fmt.Sprintf("Transfer from %s", sender.Username),
		CreatedAt:    now,
	})

	return nil
}

// GetBalance retrieves the user's current balance including reservations.
func (s *UserService) GetBalance(userID int64) (*BalanceResponse, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}

	user.Mu.Lock()
	defer user.Mu.Unlock()

	return &BalanceResponse{
		UserID:        user.UserID,
		WalletBalance: user.WalletBalance,
		ReservedCash:  user.ReservedCash,
		AvailableCash: user.AvailableCash(),
	}, nil
}

// GetPortfolio returns the user's nonzero holdings with current values
// and derived profit/loss against the weighted-average cost basis.
func (s *UserService) GetPortfolio(userID int64) ([]PortfolioHolding, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}

	user.Mu.Lock()
	type position struct {
		companyID int64
		holding   domain.Holding
	}
	positions := make([]position, 0, len(user.Holdings))
	for companyID, h := range user.Holdings {
		if h.Quantity == 0 {
			continue
		}
		positions = append(positions, position{companyID: companyID, holding: *h})
	}
	user.Mu.Unlock()

	result := make([]PortfolioHolding, 0, len(positions))
	for _, p := range positions {
		company, err := s.companies.Get(p.companyID)
		if err != nil {
			continue
		}
		company.Mu.Lock()
		currentPrice := company.SharePrice
		company.Mu.Unlock()

		currentValue := p.holding.Quantity * currentPrice
		profitLoss := currentValue - p.holding.TotalInvested
		var plPercent float64
		if p.holding.TotalInvested != 0 {
			plPercent = float64(profitLoss) / float64(p.holding.TotalInvested) * 100
		}

		result = append(result, PortfolioHolding{
			CompanyID:         p.companyID,
			Ticker:            company.Ticker,
			CompanyName:       company.Name,
			Quantity:          p.holding.Quantity,
			ReservedQuantity:  p.holding.ReservedQuantity,
			AverageBuyPrice:   p.holding.AverageBuyPrice,
			TotalInvested:     p.holding.TotalInvested,
			CurrentPrice:      currentPrice,
			CurrentValue:      currentValue,
			ProfitLoss:        profitLoss,
			ProfitLossPercent: plPercent,
		})
	}

	return result, nil
}

// GetWalletEntries returns the user's most recent wallet ledger entries.
func (s *UserService) GetWalletEntries(userID int64, limit int) ([]*domain.WalletEntry, error) {
	if !s.users.Exists(userID) {
		return nil, domain.ErrUserNotFound
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.wallet.ListByUser(userID, limit), nil
}

// validAmount converts a positive currency amount to cents, rejecting
// non-positive values and amounts with more than 2 decimal places.
func validAmount(amount float64) (int64, error) {
	if amount <= 0 {
		return 0, &domain.ValidationError{
			Message: "amount must be greater than 0",
		}
	}
	cents, err := domain.RupeesToCents(amount)
	if err != nil {
		return 0, &domain.ValidationError{
			Message: "amount must have at most 2 decimal places",
		}
	}
	return cents, nil
}

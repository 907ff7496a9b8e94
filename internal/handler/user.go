package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
)

// UserHandler handles HTTP requests for user and wallet endpoints.
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// registerRequest is the JSON request body for POST /users.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// userResponse is the JSON representation of a user.
type userResponse struct {
	UserID        int64   `json:"user_id"`
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	FullName      string  `json:"full_name"`
	WalletBalance float64 `json:"wallet_balance"`
	CreatedAt     string  `json:"created_at"`
}

// amountRequest is the JSON request body for deposits and withdrawals.
type amountRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// transferRequest is the JSON request body for POST /users/{user_id}/transfer.
type transferRequest struct {
	RecipientUsername string  `json:"recipient_username"`
	Amount            float64 `json:"amount"`
}

// balanceResponse is the JSON response for GET /users/{user_id}/balance.
type balanceResponse struct {
	UserID        int64   `json:"user_id"`
	WalletBalance float64 `json:"wallet_balance"`
	ReservedCash  float64 `json:"reserved_cash"`
	AvailableCash float64 `json:"available_cash"`
}

// holdingResponse is one portfolio position in the JSON response.
type holdingResponse struct {
	CompanyID         int64   `json:"company_id"`
	Ticker            string  `json:"ticker"`
	CompanyName       string  `json:"company_name"`
	Quantity          int64   `json:"quantity"`
	ReservedQuantity  int64   `json:"reserved_quantity"`
	AverageBuyPrice   float64 `json:"average_buy_price"`
	TotalInvested     float64 `json:"total_invested"`
	CurrentPrice      float64 `json:"current_price"`
	CurrentValue      float64 `json:"current_value"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`
}

// walletEntryResponse is one ledger entry in the JSON response.
type walletEntryResponse struct {
	EntryID      int64   `json:"entry_id"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	BalanceAfter float64 `json:"balance_after"`
	Reference    string  `json:"reference"`
	Description  string  `json:"description"`
	CreatedAt    string  `json:"created_at"`
}

// Register handles POST /users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, err := h.userSvc.Register(service.RegisterUserRequest{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		mapUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildUserResponse(user))
}

// GetBalance handles GET /users/{user_id}/balance.
func (h *UserHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	balance, err := h.userSvc.GetBalance(userID)
	if err != nil {
		mapUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, balanceResponse{
		UserID:        balance.UserID,
		WalletBalance: domain.CentsToRupees(balance.WalletBalance),
		ReservedCash:  domain.CentsToRupees(balance.ReservedCash),
		AvailableCash: domain.CentsToRupees(balance.AvailableCash),
	})
}

// Deposit handles POST /users/{user_id}/deposit.
func (h *UserHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	var req amountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := h.userSvc.Deposit(userID, req.Amount, req.Description)
	if err != nil {
		mapUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"wallet_balance": domain.CentsToRupees(balance),
	})
}

// Withdraw handles POST /users/{user_id}/withdraw.
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	var req amountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := h.userSvc.Withdraw(userID, req.Amount, req.Description)
	if err != nil {
		mapUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"wallet_balance": domain.CentsToRupees(balance),
	})
}

// Transfer handles POST /users/{user_id}/transfer.
func (h *UserHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	var req transferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.userSvc.Transfer(userID, req.RecipientUsername, req.Amount); err != nil {
		mapUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPortfolio handles GET /users/{user_id}/portfolio.
func (h *UserHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	holdings, err := h.userSvc.GetPortfolio(userID)
	if err != nil {
		mapUserError(w, err)
		return
	}

	resp := make([]holdingResponse, len(holdings))
	for i, hld := range holdings {
		resp[i] = holdingResponse{
			CompanyID:         hld.CompanyID,
			Ticker:            hld.Ticker,
			CompanyName:       hld.CompanyName,
			Quantity:          hld.Quantity,
			ReservedQuantity:  hld.ReservedQuantity,
			AverageBuyPrice:   domain.CentsToRupees(hld.AverageBuyPrice),
			TotalInvested:     domain.CentsToRupees(hld.TotalInvested),
			CurrentPrice:      domain.CentsToRupees(hld.CurrentPrice),
			CurrentValue:      domain.CentsToRupees(hld.CurrentValue),
			ProfitLoss:        domain.CentsToRupees(hld.ProfitLoss),
			ProfitLossPercent: hld.ProfitLossPercent,
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"holdings": resp,
	})
}

// GetWallet handles GET /users/{user_id}/wallet.
func (h *UserHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	entries, err := h.userSvc.GetWalletEntries(userID, queryInt(r, "limit", 50))
	if err != nil {
		mapUserError(w, err)
		return
	}

	resp := make([]walletEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = walletEntryResponse{
			EntryID:      e.EntryID,
			Type:         string(e.Type),
			Amount:       domain.CentsToRupees(e.Amount),
			BalanceAfter: domain.CentsToRupees(e.BalanceAfter),
			Reference:    e.Reference,
			Description:  e.Description,
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"entries": resp,
	})
}

func buildUserResponse(u *domain.User) userResponse {
	return userResponse{
		UserID:        u.UserID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		WalletBalance: domain.CentsToRupees(u.WalletBalance),
		CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// mapUserError maps domain errors to HTTP responses for user endpoints.
func mapUserError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		WriteError(w, http.StatusConflict, "user_already_exists", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

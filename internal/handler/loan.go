package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
)

// LoanHandler handles HTTP requests for loan endpoints.
type LoanHandler struct {
	loanSvc *service.LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanSvc *service.LoanService) *LoanHandler {
	return &LoanHandler{loanSvc: loanSvc}
}

// applyLoanRequest is the JSON request body for POST /loans.
type applyLoanRequest struct {
	UserID       int64    `json:"user_id"`
	Amount       float64  `json:"amount"`
	TermMonths   int      `json:"term_months"`
	InterestRate *float64 `json:"interest_rate"`
}

// payLoanRequest is the JSON request body for POST /loans/{loan_id}/payments.
type payLoanRequest struct {
	UserID int64   `json:"user_id"`
	Amount float64 `json:"amount"`
}

// loanResponse is the JSON representation of a loan.
type loanResponse struct {
	LoanID           int64   `json:"loan_id"`
	UserID           int64   `json:"user_id"`
	Principal        float64 `json:"principal"`
	InterestRate     float64 `json:"interest_rate"`
	RemainingBalance float64 `json:"remaining_balance"`
	MonthlyPayment   float64 `json:"monthly_payment"`
	TermMonths       int     `json:"term_months"`
	Status           string  `json:"status"`
	IssuedAt         string  `json:"issued_at"`
	DueDate          string  `json:"due_date"`
}

// paymentResponse is one repayment record in the JSON response.
type paymentResponse struct {
	PaymentID        int64   `json:"payment_id"`
	PaymentAmount    float64 `json:"payment_amount"`
	PrincipalAmount  float64 `json:"principal_amount"`
	InterestAmount   float64 `json:"interest_amount"`
	RemainingBalance float64 `json:"remaining_balance"`
	PaymentDate      string  `json:"payment_date"`
}

// Apply handles POST /loans.
func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyLoanRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	loan, err := h.loanSvc.Apply(service.ApplyLoanRequest{
		UserID:       req.UserID,
		Amount:       req.Amount,
		TermMonths:   req.TermMonths,
		InterestRate: req.InterestRate,
	})
	if err != nil {
		mapLoanError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildLoanResponse(loan))
}

// Pay handles POST /loans/{loan_id}/payments.
func (h *LoanHandler) Pay(w http.ResponseWriter, r *http.Request) {
	loanID, err := idParam(r, "loan_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	var req payLoanRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	breakdown, err := h.loanSvc.Pay(loanID, req.UserID, req.Amount)
	if err != nil {
		mapLoanError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"loan_id":           loanID,
		"payment_amount":    domain.CentsToRupees(breakdown.PaymentAmount),
		"principal_amount":  domain.CentsToRupees(breakdown.PrincipalAmount),
		"interest_amount":   domain.CentsToRupees(breakdown.InterestAmount),
		"remaining_balance": domain.CentsToRupees(breakdown.RemainingBalance),
		"status":            string(breakdown.Status),
	})
}

// Get handles GET /loans/{loan_id}.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loanID, err := idParam(r, "loan_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	userID := queryInt64(r, "user_id")
	if userID <= 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "user_id query parameter is required")
		return
	}

	loan, err := h.loanSvc.Get(loanID, userID)
	if err != nil {
		mapLoanError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildLoanResponse(loan))
}

// List handles GET /users/{user_id}/loans.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	loans, err := h.loanSvc.List(userID)
	if err != nil {
		mapLoanError(w, err)
		return
	}

	resp := make([]loanResponse, len(loans))
	for i, l := range loans {
		resp[i] = buildLoanResponse(l)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"loans":   resp,
	})
}

// Payments handles GET /loans/{loan_id}/payments.
func (h *LoanHandler) Payments(w http.ResponseWriter, r *http.Request) {
	loanID, err := idParam(r, "loan_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	userID := queryInt64(r, "user_id")
	if userID <= 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "user_id query parameter is required")
		return
	}

	payments, err := h.loanSvc.Payments(loanID, userID)
	if err != nil {
		mapLoanError(w, err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = paymentResponse{
			PaymentID:        p.PaymentID,
			PaymentAmount:    domain.CentsToRupees(p.PaymentAmount),
			PrincipalAmount:  domain.CentsToRupees(p.PrincipalAmount),
			InterestAmount:   domain.CentsToRupees(p.InterestAmount),
			RemainingBalance: domain.CentsToRupees(p.RemainingBalance),
			PaymentDate:      p.PaymentDate.UTC().Format(time.RFC3339),
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"loan_id":  loanID,
		"payments": resp,
	})
}

// Summary handles GET /users/{user_id}/loans/summary.
func (h *LoanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "user_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	sum, err := h.loanSvc.Summary(userID)
	if err != nil {
		mapLoanError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":             userID,
		"total_loans":         sum.TotalLoans,
		"active_loans":        sum.ActiveLoans,
		"paid_loans":          sum.PaidLoans,
		"defaulted_loans":     sum.DefaultedLoans,
		"total_borrowed":      domain.CentsToRupees(sum.TotalBorrowed),
		"total_debt":          domain.CentsToRupees(sum.TotalDebt),
		"monthly_payment_due": domain.CentsToRupees(sum.MonthlyPaymentDue),
	})
}

func buildLoanResponse(l *domain.Loan) loanResponse {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	rate, _ := l.InterestRate.Float64()
	return loanResponse{
		LoanID:           l.LoanID,
		UserID:           l.UserID,
		Principal:        domain.CentsToRupees(l.Principal),
		InterestRate:     rate,
		RemainingBalance: domain.CentsToRupees(l.RemainingBalance),
		MonthlyPayment:   domain.CentsToRupees(l.MonthlyPayment),
		TermMonths:       l.TermMonths,
		Status:           string(l.Status),
		IssuedAt:         l.IssuedAt.UTC().Format(time.RFC3339),
		DueDate:          l.DueDate.UTC().Format(time.RFC3339),
	}
}

// mapLoanError maps domain errors to HTTP responses for loan endpoints.
func mapLoanError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, domain.ErrLoanNotFound):
		WriteError(w, http.StatusNotFound, "loan_not_found", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrLoanLimitReached):
		WriteError(w, http.StatusConflict, "loan_limit_reached", err.Error())
	case errors.Is(err, domain.ErrLoanNotActive):
		WriteError(w, http.StatusConflict, "loan_not_active", err.Error())
	case errors.Is(err, domain.ErrInvalidPayment):
		WriteError(w, http.StatusBadRequest, "invalid_payment", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

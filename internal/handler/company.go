package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
)

// CompanyHandler handles HTTP requests for company endpoints.
type CompanyHandler struct {
	companySvc *service.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companySvc *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companySvc: companySvc}
}

// createCompanyRequest is the JSON request body for POST /companies.
type createCompanyRequest struct {
	OwnerID     int64   `json:"owner_id"`
	Name        string  `json:"name"`
	Ticker      string  `json:"ticker"`
	SharePrice  float64 `json:"share_price"`
	TotalShares int64   `json:"total_shares"`
	Description string  `json:"description"`
}

// companyResponse is the JSON representation of a company.
type companyResponse struct {
	CompanyID       int64   `json:"company_id"`
	OwnerID         int64   `json:"owner_id"`
	Name            string  `json:"name"`
	Ticker          string  `json:"ticker"`
	SharePrice      float64 `json:"share_price"`
	TotalShares     int64   `json:"total_shares"`
	AvailableShares int64   `json:"available_shares"`
	WalletBalance   float64 `json:"wallet_balance"`
	MarketCap       float64 `json:"market_cap"`
	Description     string  `json:"description"`
	CreatedAt       string  `json:"created_at"`
}

// Create handles POST /companies.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	company, err := h.companySvc.Create(service.CreateCompanyRequest{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Ticker:      req.Ticker,
		SharePrice:  req.SharePrice,
		TotalShares: req.TotalShares,
		Description: req.Description,
	})
	if err != nil {
		mapCompanyError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildCompanyResponse(company))
}

// Get handles GET /companies/{company_id}.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "company_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	company, err := h.companySvc.Get(companyID)
	if err != nil {
		mapCompanyError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildCompanyResponse(company))
}

// GetByTicker handles GET /companies/ticker/{ticker}.
func (h *CompanyHandler) GetByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	company, err := h.companySvc.GetByTicker(ticker)
	if err != nil {
		mapCompanyError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildCompanyResponse(company))
}

// List handles GET /companies.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies := h.companySvc.List()
	resp := make([]companyResponse, len(companies))
	for i, c := range companies {
		resp[i] = buildCompanyResponse(c)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"companies": resp})
}

func buildCompanyResponse(c *service.CompanyView) companyResponse {
	return companyResponse{
		CompanyID:       c.CompanyID,
		OwnerID:         c.OwnerID,
		Name:            c.Name,
		Ticker:          c.Ticker,
		SharePrice:      domain.CentsToRupees(c.SharePrice),
		TotalShares:     c.TotalShares,
		AvailableShares: c.AvailableShares,
		WalletBalance:   domain.CentsToRupees(c.WalletBalance),
		MarketCap:       domain.CentsToRupees(c.MarketCap),
		Description:     c.Description,
		CreatedAt:       c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// mapCompanyError maps domain errors to HTTP responses for company endpoints.
func mapCompanyError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrTickerTaken):
		WriteError(w, http.StatusConflict, "ticker_taken", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, domain.ErrCompanyNotFound):
		WriteError(w, http.StatusNotFound, "company_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

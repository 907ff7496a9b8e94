package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/engine"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
)

// MarketHandler handles HTTP requests for market data endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// priceResponse is the JSON response for GET /companies/{company_id}/price.
type priceResponse struct {
	CompanyID     int64   `json:"company_id"`
	Ticker        string  `json:"ticker"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	ChangeAmount  float64 `json:"change_amount"`
	ChangePercent float64 `json:"change_percent"`
	AsOf          string  `json:"as_of"`
}

// tickResponse is one price tick in the history response.
type tickResponse struct {
	Price      float64 `json:"price"`
	RecordedAt string  `json:"recorded_at"`
}

// levelResponse is one aggregated price level in the book response.
type levelResponse struct {
	Price         float64 `json:"price"`
	TotalQuantity int64   `json:"total_quantity"`
	OrderCount    int     `json:"order_count"`
}

// tradeResponse is one executed fill in trade listings.
type tradeResponse struct {
	TransactionID int64   `json:"transaction_id"`
	CompanyID     int64   `json:"company_id"`
	BuyerID       int64   `json:"buyer_id"`
	SellerID      *int64  `json:"seller_id"`
	Type          string  `json:"type"`
	Quantity      int64   `json:"quantity"`
	PricePerShare float64 `json:"price_per_share"`
	TotalAmount   float64 `json:"total_amount"`
	ExecutedAt    string  `json:"executed_at"`
}

// GetPrice handles GET /companies/{company_id}/price.
func (h *MarketHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "company_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	price, err := h.marketSvc.Price(companyID)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, priceResponse{
		CompanyID:     price.CompanyID,
		Ticker:        price.Ticker,
		CurrentPrice:  domain.CentsToRupees(price.CurrentPrice),
		PreviousPrice: domain.CentsToRupees(price.PreviousPrice),
		ChangeAmount:  domain.CentsToRupees(price.ChangeAmount),
		ChangePercent: price.ChangePercent,
		AsOf:          price.AsOf.UTC().Format(time.RFC3339),
	})
}

// GetHistory handles GET /companies/{company_id}/history.
func (h *MarketHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "company_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	ticks, err := h.marketSvc.History(companyID, queryInt(r, "limit", 100))
	if err != nil {
		mapMarketError(w, err)
		return
	}

	resp := make([]tickResponse, len(ticks))
	for i, t := range ticks {
		resp[i] = tickResponse{
			Price:      domain.CentsToRupees(t.Price),
			RecordedAt: t.RecordedAt.UTC().Format(time.RFC3339),
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"history":    resp,
	})
}

// GetBook handles GET /companies/{company_id}/book.
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "company_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	depth, err := h.marketSvc.Book(companyID, queryInt(r, "depth", 10))
	if err != nil {
		mapMarketError(w, err)
		return
	}

	var spread *float64
	if depth.Spread != nil {
		s := domain.CentsToRupees(*depth.Spread)
		spread = &s
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"buys":       buildLevels(depth.Buys),
		"sells":      buildLevels(depth.Sells),
		"spread":     spread,
	})
}

// GetTrades handles GET /companies/{company_id}/trades.
func (h *MarketHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "company_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	trades, err := h.marketSvc.Trades(companyID, queryInt(r, "limit", 50))
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"trades":     buildTradeResponses(trades),
	})
}

// GetRecentTrades handles GET /market/trades.
func (h *MarketHandler) GetRecentTrades(w http.ResponseWriter, r *http.Request) {
	trades := h.marketSvc.RecentTrades(queryInt(r, "limit", 50))
	WriteJSON(w, http.StatusOK, map[string]any{
		"trades": buildTradeResponses(trades),
	})
}

// GetOverview handles GET /market/overview.
func (h *MarketHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview := h.marketSvc.Overview()

	top := make([]companyResponse, len(overview.TopCompanies))
	for i, c := range overview.TopCompanies {
		top[i] = buildCompanyResponse(c)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"total_companies":     overview.TotalCompanies,
		"total_market_cap":    domain.CentsToRupees(overview.TotalMarketCap),
		"average_share_price": domain.CentsToRupees(overview.AverageSharePrice),
		"top_companies":       top,
	})
}

// GetVolume handles GET /companies/{company_id}/volume.
func (h *MarketHandler) GetVolume(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "company_id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "validation_error", "window must be a positive duration, e.g. 1h or 24h")
			return
		}
		window = parsed
	}

	volume, err := h.marketSvc.Volume(companyID, window)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"window":     window.String(),
		"volume":     volume,
	})
}

func buildLevels(levels []engine.PriceLevel) []levelResponse {
	resp := make([]levelResponse, len(levels))
	for i, l := range levels {
		resp[i] = levelResponse{
			Price:         domain.CentsToRupees(l.Price),
			TotalQuantity: l.TotalQuantity,
			OrderCount:    l.OrderCount,
		}
	}
	return resp
}

func buildTradeResponses(trades []*domain.Transaction) []tradeResponse {
	resp := make([]tradeResponse, len(trades))
	for i, t := range trades {
		resp[i] = tradeResponse{
			TransactionID: t.TransactionID,
			CompanyID:     t.CompanyID,
			BuyerID:       t.BuyerID,
			SellerID:      t.SellerID,
			Type:          string(t.Type),
			Quantity:      t.Quantity,
			PricePerShare: domain.CentsToRupees(t.PricePerShare),
			TotalAmount:   domain.CentsToRupees(t.TotalAmount),
			ExecutedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return resp
}

// mapMarketError maps domain errors to HTTP responses for market endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCompanyNotFound):
		WriteError(w, http.StatusNotFound, "company_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

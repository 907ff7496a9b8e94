package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rohitkumar-gith/share-market-simulation/internal/engine"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
	"github.com/rohitkumar-gith/share-market-simulation/internal/stream"
)

// newTestRouter wires a full router backed by fresh in-memory stores.
func newTestRouter() chi.Router {
	users := store.NewUserStore()
	companies := store.NewCompanyStore()
	orders := store.NewOrderStore()
	transactions := store.NewTransactionStore()
	history := store.NewPriceHistoryStore()
	wallet := store.NewWalletLedger()
	loans := store.NewLoanStore()

	books := engine.NewBookManager()
	oracle := engine.NewPriceOracle(companies, history)
	settler := engine.NewSettler(users, companies, transactions, wallet, oracle)
	matcher := engine.NewMatcher(books, users, companies, orders, settler)

	hub := stream.NewHub()
	go hub.Run()

	userSvc := service.NewUserService(users, companies, wallet, 10000000)
	companySvc := service.NewCompanyService(companies, users, history)
	orderSvc := service.NewOrderService(matcher, oracle, users, companies, orders, hub)
	marketSvc := service.NewMarketService(companies, transactions, history, books, 24*time.Hour)
	loanSvc := service.NewLoanService(loans, users, wallet, service.LoanConfig{
		MinAmount:     100000,
		MaxAmount:     100000000,
		DefaultRate:   decimal.NewFromFloat(5.0),
		MinTermMonths: 6,
		MaxTermMonths: 60,
		SweepInterval: time.Minute,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(userSvc, companySvc, orderSvc, marketSvc, loanSvc, hub, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("invalid JSON response: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, parsed
}

func TestHealthz(t *testing.T) {
	router := newTestRouter()
	rec, body := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestContentTypeRequiredOnPost(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without Content-Type, got %d", rec.Code)
	}
}

func TestEndToEnd_IPOFlow(t *testing.T) {
	router := newTestRouter()

	// Register a user.
	rec, user := doJSON(t, router, http.MethodPost, "/users", map[string]any{
		"username":  "alice",
		"email":     "alice@example.com",
		"full_name": "Alice Example",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %v", rec.Code, user)
	}
	userID := int64(user["user_id"].(float64))
	if user["wallet_balance"].(float64) != 100000.0 {
		t.Errorf("expected starting balance 100000, got %v", user["wallet_balance"])
	}

	// List a company.
	rec, company := doJSON(t, router, http.MethodPost, "/companies", map[string]any{
		"owner_id":     userID,
		"name":         "Acme Corp",
		"ticker":       "ACME",
		"share_price":  100.00,
		"total_shares": 1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create company: expected 201, got %d: %v", rec.Code, company)
	}
	companyID := int64(company["company_id"].(float64))
	if company["available_shares"].(float64) != 1000 {
		t.Errorf("expected full treasury, got %v", company["available_shares"])
	}

	// Buy 50 shares at the listing price: issues from the treasury.
	rec, order := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"user_id":    userID,
		"company_id": companyID,
		"side":       "buy",
		"quantity":   50,
		"price":      100.00,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit order: expected 201, got %d: %v", rec.Code, order)
	}
	if order["status"] != "completed" {
		t.Errorf("expected completed, got %v", order["status"])
	}
	fills := order["fills"].([]any)
	if len(fills) != 1 || fills[0].(map[string]any)["type"] != "ipo" {
		t.Errorf("expected one ipo fill, got %v", fills)
	}

	// Treasury shrank and the company wallet was credited.
	rec, company = doJSON(t, router, http.MethodGet, fmt.Sprintf("/companies/%d", companyID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get company: %d", rec.Code)
	}
	if company["available_shares"].(float64) != 950 {
		t.Errorf("expected 950 available, got %v", company["available_shares"])
	}
	if company["wallet_balance"].(float64) != 5000.0 {
		t.Errorf("expected company wallet 5000, got %v", company["wallet_balance"])
	}

	// Portfolio shows the position at cost.
	rec, portfolio := doJSON(t, router, http.MethodGet, fmt.Sprintf("/users/%d/portfolio", userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("portfolio: %d", rec.Code)
	}
	holdings := portfolio["holdings"].([]any)
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	h := holdings[0].(map[string]any)
	if h["quantity"].(float64) != 50 || h["average_buy_price"].(float64) != 100.0 {
		t.Errorf("unexpected holding: %v", h)
	}

	// Balance reflects the purchase.
	rec, balance := doJSON(t, router, http.MethodGet, fmt.Sprintf("/users/%d/balance", userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: %d", rec.Code)
	}
	if balance["wallet_balance"].(float64) != 95000.0 {
		t.Errorf("expected balance 95000, got %v", balance["wallet_balance"])
	}
}

func TestOrderCancel_Conflicts(t *testing.T) {
	router := newTestRouter()

	_, user := doJSON(t, router, http.MethodPost, "/users", map[string]any{
		"username": "bob", "email": "bob@example.com", "full_name": "Bob",
	})
	userID := int64(user["user_id"].(float64))
	_, company := doJSON(t, router, http.MethodPost, "/companies", map[string]any{
		"owner_id": userID, "name": "Acme", "ticker": "ACME",
		"share_price": 100.00, "total_shares": 1000,
	})
	companyID := int64(company["company_id"].(float64))

	// A buy below the share price rests on the book.
	rec, order := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"user_id": userID, "company_id": companyID,
		"side": "buy", "quantity": 5, "price": 90.00,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d", rec.Code)
	}
	orderID := int64(order["order_id"].(float64))

	// Cancel by a non-owner is forbidden.
	rec, _ = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/orders/%d?user_id=%d", orderID, userID+1), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	// Owner cancels; a second cancel conflicts.
	rec, _ = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/orders/%d?user_id=%d", orderID, userID), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	rec, body := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/orders/%d?user_id=%d", orderID, userID), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %v", rec.Code, body)
	}
	if body["error"] != "order_not_cancellable" {
		t.Errorf("unexpected error code: %v", body["error"])
	}
}

func TestNotFoundMappings(t *testing.T) {
	router := newTestRouter()

	rec, body := doJSON(t, router, http.MethodGet, "/users/99/balance", nil)
	if rec.Code != http.StatusNotFound || body["error"] != "user_not_found" {
		t.Errorf("expected 404 user_not_found, got %d %v", rec.Code, body)
	}
	rec, body = doJSON(t, router, http.MethodGet, "/companies/99", nil)
	if rec.Code != http.StatusNotFound || body["error"] != "company_not_found" {
		t.Errorf("expected 404 company_not_found, got %d %v", rec.Code, body)
	}
	rec, body = doJSON(t, router, http.MethodGet, "/orders/99", nil)
	if rec.Code != http.StatusNotFound || body["error"] != "order_not_found" {
		t.Errorf("expected 404 order_not_found, got %d %v", rec.Code, body)
	}
}

func TestLoanEndpoints(t *testing.T) {
	router := newTestRouter()

	_, user := doJSON(t, router, http.MethodPost, "/users", map[string]any{
		"username": "carol", "email": "carol@example.com", "full_name": "Carol",
	})
	userID := int64(user["user_id"].(float64))

	rec, loan := doJSON(t, router, http.MethodPost, "/loans", map[string]any{
		"user_id": userID, "amount": 10000.00, "term_months": 12,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("apply: expected 201, got %d: %v", rec.Code, loan)
	}
	loanID := int64(loan["loan_id"].(float64))
	if loan["status"] != "active" {
		t.Errorf("expected active, got %v", loan["status"])
	}
	if loan["monthly_payment"].(float64) != 856.07 {
		t.Errorf("expected monthly payment 856.07, got %v", loan["monthly_payment"])
	}

	// Full payoff.
	rec, payment := doJSON(t, router, http.MethodPost, fmt.Sprintf("/loans/%d/payments", loanID), map[string]any{
		"user_id": userID, "amount": 10000.00,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d: %v", rec.Code, payment)
	}
	if payment["status"] != "paid" || payment["remaining_balance"].(float64) != 0.0 {
		t.Errorf("expected settled loan, got %v", payment)
	}

	rec, summary := doJSON(t, router, http.MethodGet, fmt.Sprintf("/users/%d/loans/summary", userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: %d", rec.Code)
	}
	if summary["paid_loans"].(float64) != 1 || summary["active_loans"].(float64) != 0 {
		t.Errorf("unexpected summary: %v", summary)
	}
}

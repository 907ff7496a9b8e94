package handler

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rohitkumar-gith/share-market-simulation/internal/metrics"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
	"github.com/rohitkumar-gith/share-market-simulation/internal/stream"
)

// NewRouter creates a chi router with all routes registered, request
// logging, metrics, and Content-Type validation middleware.
func NewRouter(
	userSvc *service.UserService,
	companySvc *service.CompanyService,
	orderSvc *service.OrderService,
	marketSvc *service.MarketService,
	loanSvc *service.LoanService,
	hub *stream.Hub,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(metrics.Middleware)
	r.Use(contentTypeJSON)

	// Create handlers.
	userH := NewUserHandler(userSvc)
	companyH := NewCompanyHandler(companySvc)
	orderH := NewOrderHandler(orderSvc)
	marketH := NewMarketHandler(marketSvc)
	loanH := NewLoanHandler(loanSvc)

	// Health check and observability.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws/trades", hub.HandleWS)

	// User routes.
	r.Post("/users", userH.Register)
	r.Get("/users/{user_id}/balance", userH.GetBalance)
	r.Post("/users/{user_id}/deposit", userH.Deposit)
	r.Post("/users/{user_id}/withdraw", userH.Withdraw)
	r.Post("/users/{user_id}/transfer", userH.Transfer)
	r.Get("/users/{user_id}/portfolio", userH.GetPortfolio)
	r.Get("/users/{user_id}/wallet", userH.GetWallet)
	r.Get("/users/{user_id}/orders", orderH.ListOrders)
	r.Get("/users/{user_id}/loans", loanH.List)
	r.Get("/users/{user_id}/loans/summary", loanH.Summary)

	// Company routes.
	r.Post("/companies", companyH.Create)
	r.Get("/companies", companyH.List)
	r.Get("/companies/ticker/{ticker}", companyH.GetByTicker)
	r.Get("/companies/{company_id}", companyH.Get)
	r.Get("/companies/{company_id}/price", marketH.GetPrice)
	r.Get("/companies/{company_id}/history", marketH.GetHistory)
	r.Get("/companies/{company_id}/book", marketH.GetBook)
	r.Get("/companies/{company_id}/trades", marketH.GetTrades)
	r.Get("/companies/{company_id}/volume", marketH.GetVolume)

	// Order routes.
	r.Post("/orders", orderH.SubmitOrder)
	r.Get("/orders/{order_id}", orderH.GetOrder)
	r.Delete("/orders/{order_id}", orderH.CancelOrder)

	// Market routes.
	r.Get("/market/overview", marketH.GetOverview)
	r.Get("/market/trades", marketH.GetRecentTrades)

	// Loan routes.
	r.Post("/loans", loanH.Apply)
	r.Get("/loans/{loan_id}", loanH.Get)
	r.Post("/loans/{loan_id}/payments", loanH.Pay)
	r.Get("/loans/{loan_id}/payments", loanH.Payments)

	return r
}

// requestLogging returns middleware that logs each request's id, method,
// path, status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()
			w.Header().Set("X-Request-ID", requestID)
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so WebSocket upgrades
// work behind the middleware chain.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT,
// and PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

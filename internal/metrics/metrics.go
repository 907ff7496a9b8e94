// Package metrics provides Prometheus instrumentation for the trading core.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersTotal counts submitted orders, partitioned by side.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketsim_orders_total",
		Help: "Total number of orders accepted",
	}, []string{"side"})

	// TradesTotal counts executed fills, partitioned by type (ipo/trade).
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketsim_trades_total",
		Help: "Total number of fills executed",
	}, []string{"type"})

	// TradeVolume tracks cumulative traded share quantity per ticker.
	TradeVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketsim_trade_volume_total",
		Help: "Cumulative traded volume in shares",
	}, []string{"ticker"})

	// OrderRejections counts rejected submissions by reason.
	OrderRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketsim_order_rejections_total",
		Help: "Orders rejected before entering the book",
	}, []string{"reason"})

	// ActiveLoans tracks the number of loans currently active.
	ActiveLoans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketsim_active_loans",
		Help: "Number of currently active loans",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketsim_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketsim_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
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

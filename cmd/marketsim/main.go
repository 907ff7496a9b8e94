package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/rohitkumar-gith/share-market-simulation/internal/config"
	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/engine"
	"github.com/rohitkumar-gith/share-market-simulation/internal/handler"
	"github.com/rohitkumar-gith/share-market-simulation/internal/service"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
	"github.com/rohitkumar-gith/share-market-simulation/internal/stream"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	initialBalance, err := domain.RupeesToCents(cfg.InitialBalance)
	if err != nil {
		slog.Error("invalid INITIAL_BALANCE", slog.String("error", err.Error()))
		os.Exit(1)
	}
	minLoan, err := domain.RupeesToCents(cfg.MinLoanAmount)
	if err != nil {
		slog.Error("invalid MIN_LOAN_AMOUNT", slog.String("error", err.Error()))
		os.Exit(1)
	}
	maxLoan, err := domain.RupeesToCents(cfg.MaxLoanAmount)
	if err != nil {
		slog.Error("invalid MAX_LOAN_AMOUNT", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Instantiate stores.
	userStore := store.NewUserStore()
	companyStore := store.NewCompanyStore()
	orderStore := store.NewOrderStore()
	transactionStore := store.NewTransactionStore()
	historyStore := store.NewPriceHistoryStore()
	walletLedger := store.NewWalletLedger()
	loanStore := store.NewLoanStore()

	// Engine.
	books := engine.NewBookManager()
	oracle := engine.NewPriceOracle(companyStore, historyStore)
	settler := engine.NewSettler(userStore, companyStore, transactionStore, walletLedger, oracle)
	matcher := engine.NewMatcher(books, userStore, companyStore, orderStore, settler)

	// Trade tick hub.
	hub := stream.NewHub()
	go hub.Run()

	// Services.
	userSvc := service.NewUserService(userStore, companyStore, walletLedger, initialBalance)
	companySvc := service.NewCompanyService(companyStore, userStore, historyStore)
	orderSvc := service.NewOrderService(matcher, oracle, userStore, companyStore, orderStore, hub)
	marketSvc := service.NewMarketService(companyStore, transactionStore, historyStore, books, cfg.PriceChangeWindow)
	loanSvc := service.NewLoanService(loanStore, userStore, walletLedger, service.LoanConfig{
		MinAmount:     minLoan,
		MaxAmount:     maxLoan,
		DefaultRate:   decimal.NewFromFloat(cfg.DefaultLoanRate),
		MinTermMonths: cfg.MinLoanTermMonths,
		MaxTermMonths: cfg.MaxLoanTermMonths,
		SweepInterval: cfg.LoanSweepInterval,
	})

	// Router.
	router := handler.NewRouter(userSvc, companySvc, orderSvc, marketSvc, loanSvc, hub, logger)

	// Start the loan default sweep with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loanSvc.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the sweep).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}

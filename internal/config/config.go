package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the market simulation.
type Config struct {
	Port              int
	LogLevel          string
	InitialBalance    float64 // starting wallet balance for new users
	MinLoanAmount     float64
	MaxLoanAmount     float64
	DefaultLoanRate   float64 // annual percent
	MinLoanTermMonths int
	MaxLoanTermMonths int
	LoanSweepInterval time.Duration
	PriceChangeWindow time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	initialBalance, err := getFloat("INITIAL_BALANCE", 100000.0)
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_BALANCE: %w", err)
	}
	if initialBalance < 0 {
		return nil, fmt.Errorf("invalid INITIAL_BALANCE: must be >= 0")
	}

	minLoan, err := getFloat("MIN_LOAN_AMOUNT", 1000.0)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_LOAN_AMOUNT: %w", err)
	}

	maxLoan, err := getFloat("MAX_LOAN_AMOUNT", 1000000.0)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_LOAN_AMOUNT: %w", err)
	}
	if maxLoan < minLoan {
		return nil, fmt.Errorf("invalid MAX_LOAN_AMOUNT: must be >= MIN_LOAN_AMOUNT")
	}

	loanRate, err := getFloat("DEFAULT_LOAN_RATE", 5.0)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LOAN_RATE: %w", err)
	}
	if loanRate < 0 {
		return nil, fmt.Errorf("invalid DEFAULT_LOAN_RATE: must be >= 0")
	}

	minTerm, err := getInt("MIN_LOAN_TERM_MONTHS", 6)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_LOAN_TERM_MONTHS: %w", err)
	}

	maxTerm, err := getInt("MAX_LOAN_TERM_MONTHS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_LOAN_TERM_MONTHS: %w", err)
	}
	if minTerm < 1 || maxTerm < minTerm {
		return nil, fmt.Errorf("invalid loan term bounds: need 1 <= MIN_LOAN_TERM_MONTHS <= MAX_LOAN_TERM_MONTHS")
	}

	loanSweepInterval, err := getDuration("LOAN_SWEEP_INTERVAL", 1*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid LOAN_SWEEP_INTERVAL: %w", err)
	}

	priceChangeWindow, err := getDuration("PRICE_CHANGE_WINDOW", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_CHANGE_WINDOW: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:              port,
		LogLevel:          logLevel,
		InitialBalance:    initialBalance,
		MinLoanAmount:     minLoan,
		MaxLoanAmount:     maxLoan,
		DefaultLoanRate:   loanRate,
		MinLoanTermMonths: minTerm,
		MaxLoanTermMonths: maxTerm,
		LoanSweepInterval: loanSweepInterval,
		PriceChangeWindow: priceChangeWindow,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ShutdownTimeout:   shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

package service

import (
	"sort"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/engine"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

// PriceResponse reports a company's current price and its movement over
// the configured change window.
type PriceResponse struct {
	CompanyID     int64
	Ticker        string
	CurrentPrice  int64
	PreviousPrice int64
	ChangeAmount  int64
	ChangePercent float64
	AsOf          time.Time
}

// BookDepth is a snapshot of the top price levels on both sides of a
// company's order book.
type BookDepth struct {
	CompanyID int64
	Buys      []engine.PriceLevel
	Sells     []engine.PriceLevel
	Spread    *int64 // nil when either side is empty
}

// MarketOverview aggregates market-wide statistics.
type MarketOverview struct {
	TotalCompanies    int
	TotalMarketCap    int64
	AverageSharePrice int64
	TopCompanies      []*CompanyView
}

// MarketService serves market data: prices, history, depth, trades,
// and aggregate statistics.
type MarketService struct {
	companies    *store.CompanyStore
	transactions *store.TransactionStore
	history      *store.PriceHistoryStore
	books        *engine.BookManager
	changeWindow time.Duration
}

// NewMarketService creates a new MarketService. changeWindow is the
// lookback used for price change calculations.
func NewMarketService(
	companies *store.CompanyStore,
	transactions *store.TransactionStore,
	history *store.PriceHistoryStore,
	books *engine.BookManager,
	changeWindow time.Duration,
) *MarketService {
	return &MarketService{
		companies:    companies,
		transactions: transactions,
		history:      history,
		books:        books,
		changeWindow: changeWindow,
	}
}

// Price returns the current share price and its change over the lookback
// window. With no tick old enough, the earliest recorded tick anchors
// the comparison.
func (s *MarketService) Price(companyID int64) (*PriceResponse, error) {
	company, err := s.companies.Get(companyID)
	if err != nil {
		return nil, err
	}

	company.Mu.Lock()
	current := company.SharePrice
	ticker := company.Ticker
	company.Mu.Unlock()

	now := time.Now()
	previous := current
	if tick, ok := s.history.LatestAtOrBefore(companyID, now.Add(-s.changeWindow)); ok {
		previous = tick.Price
	}

	change := current - previous
	var changePct float64
	if previous != 0 {
		changePct = float64(change) / float64(previous) * 100
	}

	return &PriceResponse{
		CompanyID:     companyID,
		Ticker:        ticker,
		CurrentPrice:  current,
		PreviousPrice: previous,
		ChangeAmount:  change,
		ChangePercent: changePct,
		AsOf:          now,
	}, nil
}

// History returns a company's price ticks in chronological order.
func (s *MarketService) History(companyID int64, limit int) ([]domain.PriceTick, error) {
	if _, err := s.companies.Get(companyID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	return s.history.History(companyID, limit), nil
}

// Book returns the top price levels on each side of a company's book.
func (s *MarketService) Book(companyID int64, depth int) (*BookDepth, error) {
	if _, err := s.companies.Get(companyID); err != nil {
		return nil, err
	}
	if depth < 1 || depth > 50 {
		depth = 10
	}

	book := s.books.GetOrCreate(companyID)
	book.RLock()
	buys := book.TopBuys(depth)
	sells := book.TopSells(depth)
	book.RUnlock()

	var spread *int64
	if len(buys) > 0 && len(sells) > 0 {
		sp := sells[0].Price - buys[0].Price
		spread = &sp
	}

	return &BookDepth{
		CompanyID: companyID,
		Buys:      buys,
		Sells:     sells,
		Spread:    spread,
	}, nil
}

// Trades returns a company's executed fills, newest first.
func (s *MarketService) Trades(companyID int64, limit int) ([]*domain.Transaction, error) {
	if _, err := s.companies.Get(companyID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	txns := s.transactions.ListByCompany(companyID)
	// ListByCompany is chronological; serve newest first.
	for i, j := 0, len(txns)-1; i < j; i, j = i+1, j-1 {
		txns[i], txns[j] = txns[j], txns[i]
	}
	if len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}

// RecentTrades returns the most recent fills across all companies.
func (s *MarketService) RecentTrades(limit int) []*domain.Transaction {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.transactions.Recent(limit)
}

// Volume returns the share quantity traded in a company over the window.
func (s *MarketService) Volume(companyID int64, window time.Duration) (int64, error) {
	if _, err := s.companies.Get(companyID); err != nil {
		return 0, err
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.transactions.VolumeSince(companyID, time.Now().Add(-window)), nil
}

// Overview aggregates market-wide statistics and the top companies by
// market cap.
func (s *MarketService) Overview() *MarketOverview {
	companies := s.companies.List()

	views := make([]*CompanyView, 0, len(companies))
	var totalCap, totalPrice int64
	for _, c := range companies {
		v := viewOf(c)
		totalCap += v.MarketCap
		totalPrice += v.SharePrice
		views = append(views, v)
	}

	var avgPrice int64
	if len(views) > 0 {
		avgPrice = totalPrice / int64(len(views))
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].MarketCap > views[j].MarketCap
	})
	top := views
	if len(top) > 5 {
		top = top[:5]
	}

	return &MarketOverview{
		TotalCompanies:    len(views),
		TotalMarketCap:    totalCap,
		AverageSharePrice: avgPrice,
		TopCompanies:      top,
	}
}

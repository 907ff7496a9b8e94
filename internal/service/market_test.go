package service

import (
	"testing"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/engine"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

func newMarketSvc(window time.Duration) (*MarketService, *store.CompanyStore, *store.PriceHistoryStore, *store.TransactionStore) {
	companies := store.NewCompanyStore()
	transactions := store.NewTransactionStore()
	history := store.NewPriceHistoryStore()
	books := engine.NewBookManager()
	svc := NewMarketService(companies, transactions, history, books, window)
	return svc, companies, history, transactions
}

func listCompany(t *testing.T, companies *store.CompanyStore, ticker string, price int64) *domain.Company {
	t.Helper()
	c := &domain.Company{
		OwnerID:         1,
		Name:            ticker + " Corp",
		Ticker:          ticker,
		SharePrice:      price,
		TotalShares:     1000,
		AvailableShares: 1000,
		CreatedAt:       time.Now(),
	}
	if err := companies.Create(c); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMarketService_Price_ChangeOverWindow(t *testing.T) {
	svc, companies, history, _ := newMarketSvc(24 * time.Hour)
	c := listCompany(t, companies, "ACME", 11000)

	// Tick from two days ago at 100.00; current price is 110.00.
	history.Append(domain.PriceTick{
		CompanyID:  c.CompanyID,
		Price:      10000,
		RecordedAt: time.Now().Add(-48 * time.Hour),
	})

	p, err := svc.Price(c.CompanyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentPrice != 11000 || p.PreviousPrice != 10000 {
		t.Errorf("unexpected prices: current=%d previous=%d", p.CurrentPrice, p.PreviousPrice)
	}
	if p.ChangeAmount != 1000 {
		t.Errorf("expected change 1000, got %d", p.ChangeAmount)
	}
	if p.ChangePercent != 10.0 {
		t.Errorf("expected change 10%%, got %v", p.ChangePercent)
	}
}

func TestMarketService_Price_NoHistoryMeansNoChange(t *testing.T) {
	svc, companies, _, _ := newMarketSvc(24 * time.Hour)
	c := listCompany(t, companies, "ACME", 11000)

	p, err := svc.Price(c.CompanyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ChangeAmount != 0 || p.ChangePercent != 0 {
		t.Errorf("expected zero change, got %d / %v", p.ChangeAmount, p.ChangePercent)
	}
}

func TestMarketService_Overview(t *testing.T) {
	svc, companies, _, _ := newMarketSvc(24 * time.Hour)
	listCompany(t, companies, "AA", 10000)  // cap 10,000,000
	listCompany(t, companies, "BB", 30000)  // cap 30,000,000
	listCompany(t, companies, "CC", 20000)  // cap 20,000,000

	o := svc.Overview()
	if o.TotalCompanies != 3 {
		t.Errorf("expected 3 companies, got %d", o.TotalCompanies)
	}
	if o.TotalMarketCap != 60000000 {
		t.Errorf("expected total cap 60000000, got %d", o.TotalMarketCap)
	}
	if o.AverageSharePrice != 20000 {
		t.Errorf("expected avg price 20000, got %d", o.AverageSharePrice)
	}
	if len(o.TopCompanies) != 3 || o.TopCompanies[0].Ticker != "BB" {
		t.Errorf("expected BB first by market cap, got %+v", o.TopCompanies)
	}
}

func TestMarketService_Trades_NewestFirst(t *testing.T) {
	svc, companies, _, transactions := newMarketSvc(24 * time.Hour)
	c := listCompany(t, companies, "ACME", 10000)

	base := time.Now()
	for i := 0; i < 3; i++ {
		transactions.Append(&domain.Transaction{
			BuyerID:       1,
			CompanyID:     c.CompanyID,
			Quantity:      int64(i + 1),
			PricePerShare: 10000,
			Type:          domain.TransactionTypeIPO,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		})
	}

	trades, err := svc.Trades(c.CompanyID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 2 || trades[0].Quantity != 3 || trades[1].Quantity != 2 {
		t.Errorf("expected newest first [3 2], got %+v", trades)
	}
}

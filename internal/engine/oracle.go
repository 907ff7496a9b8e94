package engine

import (
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

// PriceOracle derives the authoritative share price from the most recent
// executed trade. No smoothing: the last trade price wins. Before any
// trade a company's price is its listing price.
type PriceOracle struct {
	companies *store.CompanyStore
	history   *store.PriceHistoryStore
}

// NewPriceOracle creates a PriceOracle over the given stores.
func NewPriceOracle(companies *store.CompanyStore, history *store.PriceHistoryStore) *PriceOracle {
	return &PriceOracle{
		companies: companies,
		history:   history,
	}
}

// RecordTrade sets the company's share price to the executed trade price
// and appends a price-history tick at the settlement timestamp.
func (o *PriceOracle) RecordTrade(companyID, price int64, at time.Time) error {
	company, err := o.companies.Get(companyID)
	if err != nil {
		return err
	}

	company.Mu.Lock()
	company.SharePrice = price
	company.Mu.Unlock()

	o.history.Append(domain.PriceTick{
		CompanyID:  companyID,
		Price:      price,
		RecordedAt: at,
	})
	return nil
}

// CurrentPrice returns the company's current share price in cents.
// Market-priced orders read this at submission time, not at match time.
func (o *PriceOracle) CurrentPrice(companyID int64) (int64, error) {
	company, err := o.companies.Get(companyID)
	if err != nil {
		return 0, err
	}

	company.Mu.Lock()
	defer company.Mu.Unlock()
	return company.SharePrice, nil
}

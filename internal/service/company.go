package service

import (
	"regexp"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
	"github.com/rohitkumar-gith/share-market-simulation/internal/store"
)

var tickerRegex = regexp.MustCompile(`^[A-Z]{2,6}$`)

// CreateCompanyRequest represents the input for listing a new company.
type CreateCompanyRequest struct {
	OwnerID     int64
	Name        string
	Ticker      string
	SharePrice  float64
	TotalShares int64
	Description string
}

// CompanyView is the company representation returned by read endpoints,
// with the derived market cap.
type CompanyView struct {
	CompanyID       int64
	OwnerID         int64
	Name            string
	Ticker          string
	SharePrice      int64
	TotalShares     int64
	AvailableShares int64
	WalletBalance   int64
	MarketCap       int64
	Description     string
	CreatedAt       time.Time
}

// CompanyService handles company listing and lookup.
type CompanyService struct {
	companies *store.CompanyStore
	users     *store.UserStore
	history   *store.PriceHistoryStore
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companies *store.CompanyStore, users *store.UserStore, history *store.PriceHistoryStore) *CompanyService {
	return &CompanyService{
		companies: companies,
		users:     users,
		history:   history,
	}
}

// Create validates the request and lists a new company. All shares start
// in the treasury (available_shares == total_shares) and the listing
// price becomes the first tick in the price history.
func (s *CompanyService) Create(req CreateCompanyRequest) (*CompanyView, error) {
	if req.Name == "" || len(req.Name) > 100 {
		return nil, &domain.ValidationError{
			Message: "name must be 1-100 characters",
		}
	}
	if !tickerRegex.MatchString(req.Ticker) {
		return nil, &domain.ValidationError{
			Message: "ticker must be 2-6 uppercase letters",
		}
	}
	if req.TotalShares <= 0 {
		return nil, &domain.ValidationError{
			Message: "total_shares must be greater than 0",
		}
	}
	priceCents, err := validAmount(req.SharePrice)
	if err != nil {
		return nil, &domain.ValidationError{
			Message: "share_price must be positive with at most 2 decimal places",
		}
	}
	if !s.users.Exists(req.OwnerID) {
		return nil, domain.ErrUserNotFound
	}

	company := &domain.Company{
		OwnerID:         req.OwnerID,
		Name:            req.Name,
		Ticker:          req.Ticker,
		SharePrice:      priceCents,
		TotalShares:     req.TotalShares,
		AvailableShares: req.TotalShares,
		Description:     req.Description,
		CreatedAt:       time.Now(),
	}

	if err := s.companies.Create(company); err != nil {
		return nil, err
	}

	s.history.Append(domain.PriceTick{
		CompanyID:  company.CompanyID,
		Price:      priceCents,
		RecordedAt: company.CreatedAt,
	})

	return viewOf(company), nil
}

// Get retrieves a company by id.
func (s *CompanyService) Get(companyID int64) (*CompanyView, error) {
	company, err := s.companies.Get(companyID)
	if err != nil {
		return nil, err
	}
	return viewOf(company), nil
}

// GetByTicker retrieves a company by its ticker symbol.
func (s *CompanyService) GetByTicker(ticker string) (*CompanyView, error) {
	company, err := s.companies.GetByTicker(ticker)
	if err != nil {
		return nil, err
	}
	return viewOf(company), nil
}

// List returns all listed companies ordered by id.
func (s *CompanyService) List() []*CompanyView {
	companies := s.companies.List()
	views := make([]*CompanyView, 0, len(companies))
	for _, c := range companies {
		views = append(views, viewOf(c))
	}
	return views
}

func viewOf(c *domain.Company) *CompanyView {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return &CompanyView{
		CompanyID:       c.CompanyID,
		OwnerID:         c.OwnerID,
		Name:            c.Name,
		Ticker:          c.Ticker,
		SharePrice:      c.SharePrice,
		TotalShares:     c.TotalShares,
		AvailableShares: c.AvailableShares,
		WalletBalance:   c.WalletBalance,
		MarketCap:       c.SharePrice * c.TotalShares,
		Description:     c.Description,
		CreatedAt:       c.CreatedAt,
	}
}

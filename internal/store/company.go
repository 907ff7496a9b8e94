package store

import (
	"sort"
	"sync"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// CompanyStore is a thread-safe in-memory store for companies, keyed by
// company_id with a unique-index lookup on ticker.
type CompanyStore struct {
	mu        sync.RWMutex
	nextID    int64
	companies map[int64]*domain.Company
	byTicker  map[string]*domain.Company
}

// NewCompanyStore creates an empty CompanyStore.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		companies: make(map[int64]*domain.Company),
		byTicker:  make(map[string]*domain.Company),
	}
}

// Create assigns the next company id and adds the company to the store.
// It returns domain.ErrTickerTaken if the ticker is already listed.
func (s *CompanyStore) Create(c *domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTicker[c.Ticker]; exists {
		return domain.ErrTickerTaken
	}

	s.nextID++
	c.CompanyID = s.nextID
	s.companies[c.CompanyID] = c
	s.byTicker[c.Ticker] = c
	return nil
}

// Get retrieves a company by ID. It returns domain.ErrCompanyNotFound
// if the company does not exist.
func (s *CompanyStore) Get(id int64) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return c, nil
}

// GetByTicker retrieves a company by its ticker symbol.
func (s *CompanyStore) GetByTicker(ticker string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byTicker[ticker]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return c, nil
}

// List returns all companies ordered by company id ascending.
func (s *CompanyStore) List() []*domain.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Company, 0, len(s.companies))
	for _, c := range s.companies {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CompanyID < result[j].CompanyID
	})
	return result
}

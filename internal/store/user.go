package store

import (
	"sync"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// UserStore is a thread-safe in-memory store for users, keyed by
// user_id with unique-index lookups on username and email.
type UserStore struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]*domain.User
	byUsername map[string]*domain.User
	byEmail    map[string]*domain.User
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		users:      make(map[int64]*domain.User),
		byUsername: make(map[string]*domain.User),
		byEmail:    make(map[string]*domain.User),
	}
}

// Create assigns the next user id and adds the user to the store. It
// returns domain.ErrUserAlreadyExists if the username or email is taken.
func (s *UserStore) Create(u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[u.Username]; exists {
		return domain.ErrUserAlreadyExists
	}
	if _, exists := s.byEmail[u.Email]; exists {
		return domain.ErrUserAlreadyExists
	}

	s.nextID++
	u.UserID = s.nextID
	s.users[u.UserID] = u
	s.byUsername[u.Username] = u
	s.byEmail[u.Email] = u
	return nil
}

// Get retrieves a user by ID. It returns domain.ErrUserNotFound if the
// user does not exist.
func (s *UserStore) Get(id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// GetByUsername retrieves a user by username. It returns
// domain.ErrUserNotFound if no user has that username.
func (s *UserStore) GetByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Exists returns true if a user with the given ID exists.
func (s *UserStore) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok
}

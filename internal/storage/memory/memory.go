// Package memory provides a simple in-memory implementation used for development and tests.
// It mirrors the relational store's unique constraints so conflict paths behave the same.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
)

// nameKey indexes accounts by (owner, name), the scope of the name unique constraint.
type nameKey struct {
	UserID int64
	Name   string
}

// Store is an in-memory implementation of the account and user stores.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu           sync.RWMutex
	nextUserID   int64
	nextAcctID   int64
	users        map[int64]banking.User
	accounts     map[int64]banking.Account
	accountNames map[nameKey]int64
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:        make(map[int64]banking.User),
		accounts:     make(map[int64]banking.Account),
		accountNames: make(map[nameKey]int64),
	}
}

// Reset drops all data. Ids keep increasing.
func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[int64]banking.User{}
	s.accounts = map[int64]banking.Account{}
	s.accountNames = map[nameKey]int64{}
	s.mu.Unlock()
}

// Ready always succeeds.
func (s *Store) Ready(context.Context) error { return nil }

// --- Users ---

// CreateUser assigns an id and stores u. Username and email are unique.
func (s *Store) CreateUser(_ context.Context, u banking.User) (banking.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Username == u.Username || strings.EqualFold(other.Email, u.Email) {
			return banking.User{}, errs.ErrConflict
		}
	}
	s.nextUserID++
	u.ID = s.nextUserID
	s.users[u.ID] = u
	return u, nil
}

// GetUserByUsername returns the user with the exact username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (banking.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return banking.User{}, errs.ErrNotFound
}

// GetUserByEmail matches email case-insensitively.
func (s *Store) GetUserByEmail(_ context.Context, email string) (banking.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return banking.User{}, errs.ErrNotFound
}

// --- Account reads ---

// GetAccount returns an account by id.
func (s *Store) GetAccount(_ context.Context, accountID int64) (banking.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return banking.Account{}, errs.ErrNotFound
	}
	return cloneAccount(a), nil
}

// GetAccountByName returns the user's account with the given name.
func (s *Store) GetAccountByName(_ context.Context, userID int64, name string) (banking.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.accountNames[nameKey{UserID: userID, Name: name}]
	if !ok {
		return banking.Account{}, errs.ErrNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

// GetUserAccount returns a user's account by ID.
func (s *Store) GetUserAccount(_ context.Context, userID, accountID int64) (banking.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return banking.Account{}, errs.ErrNotFound
	}
	return cloneAccount(a), nil
}

// ListAccounts returns a user's accounts ordered by id.
func (s *Store) ListAccounts(_ context.Context, userID int64) ([]banking.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]banking.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, cloneAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Account writes ---

// CreateAccount persists a new account and assigns its id.
func (s *Store) CreateAccount(_ context.Context, a banking.Account) (banking.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nameKey{UserID: a.UserID, Name: a.Name}
	if _, taken := s.accountNames[key]; taken {
		return banking.Account{}, errs.ErrConflict
	}
	s.nextAcctID++
	a.ID = s.nextAcctID
	a = cloneAccount(a)
	s.accounts[a.ID] = a
	s.accountNames[key] = a.ID
	return cloneAccount(a), nil
}

// UpdateAccount replaces the stored account. Owner is immutable.
func (s *Store) UpdateAccount(_ context.Context, a banking.Account) (banking.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[a.ID]
	if !ok {
		return banking.Account{}, errs.ErrNotFound
	}
	a.UserID = cur.UserID
	key := nameKey{UserID: a.UserID, Name: a.Name}
	if id, taken := s.accountNames[key]; taken && id != a.ID {
		return banking.Account{}, errs.ErrConflict
	}
	delete(s.accountNames, nameKey{UserID: cur.UserID, Name: cur.Name})
	a = cloneAccount(a)
	s.accounts[a.ID] = a
	s.accountNames[key] = a.ID
	return cloneAccount(a), nil
}

// DeleteAccount removes an account by id.
func (s *Store) DeleteAccount(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return errs.ErrNotFound
	}
	delete(s.accounts, accountID)
	delete(s.accountNames, nameKey{UserID: a.UserID, Name: a.Name})
	return nil
}

// cloneAccount copies the pointer fields so callers never alias stored state.
func cloneAccount(a banking.Account) banking.Account {
	if a.Balance != nil {
		b := *a.Balance
		a.Balance = &b
	}
	if a.CreditLimit != nil {
		l := *a.CreditLimit
		a.CreditLimit = &l
	}
	if a.DueDay != nil {
		d := *a.DueDay
		a.DueDay = &d
	}
	return a
}

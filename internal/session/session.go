package session

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// Persisted keys.
const (
	KeyToken    = "token"
	KeyUsername = "username"
	KeyBalance  = "balance"
)

// Session is the explicit session context. It wraps a Store and serializes
// balance read-modify-write so a debit can never interleave with another.
type Session struct {
	store Store
	mu    sync.Mutex
}

// New wraps store. A nil store gets a fresh MemoryStore.
func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store}
}

// Token returns the bearer credential, or "" when logged out.
func (s *Session) Token() string {
	v, _ := s.store.Get(KeyToken)
	return v
}

// Username returns the logged-in username, or "".
func (s *Session) Username() string {
	v, _ := s.store.Get(KeyUsername)
	return v
}

// LoggedIn reports whether login data is present.
func (s *Session) LoggedIn() bool {
	return s.Token() != "" && s.Username() != ""
}

// Balance returns the cached wallet balance. A missing value reads as 0.
func (s *Session) Balance() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance()
}

func (s *Session) balance() (int64, error) {
	v, ok := s.store.Get(KeyBalance)
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stored balance %q: %w", v, err)
	}
	return n, nil
}

// Begin records a successful login. When any key fails to store, the store
// is cleared so no partial session survives.
func (s *Session) Begin(token, username string, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(token, username, balance); err != nil {
		if clearErr := s.store.Clear(); clearErr != nil {
			return errors.Join(err, fmt.Errorf("clearing partial session: %w", clearErr))
		}
		return err
	}
	return nil
}

func (s *Session) begin(token, username string, balance int64) error {
	if err := s.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	if err := s.store.Set(KeyUsername, username); err != nil {
		return fmt.Errorf("storing username: %w", err)
	}
	if err := s.store.Set(KeyBalance, strconv.FormatInt(balance, 10)); err != nil {
		return fmt.Errorf("storing balance: %w", err)
	}
	return nil
}

// Debit subtracts amount from the cached balance and returns the new value.
// Only a confirmed checkout calls this.
func (s *Session) Debit(amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.balance()
	if err != nil {
		return 0, err
	}
	next := current - amount
	if err := s.store.Set(KeyBalance, strconv.FormatInt(next, 10)); err != nil {
		return current, fmt.Errorf("storing balance: %w", err)
	}
	return next, nil
}

// End clears everything (logout).
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clear()
}

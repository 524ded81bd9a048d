// Package memstore keeps links and accounts in process memory. It backs the
// STORE_DRIVER=memory mode and the service tests; every operation holds the
// store mutex for its whole duration so conditional updates are atomic.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

// Store implements the link, account and credential repositories.
type Store struct {
	mu       sync.RWMutex
	links    map[string]link.Link
	accounts map[string]account.Account
}

var (
	_ ports.LinkRepository       = (*Store)(nil)
	_ ports.AccountRepository    = (*Store)(nil)
	_ ports.CredentialRepository = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		links:    make(map[string]link.Link),
		accounts: make(map[string]account.Account),
	}
}

// PutAccount inserts or replaces an account keyed by its email.
func (s *Store) PutAccount(a account.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
		a.UpdatedAt = a.CreatedAt
	}
	s.accounts[key(a.Email)] = a
}

// Create stores a new link. Ids must be unique.
func (s *Store) Create(ctx context.Context, l *link.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[l.ID]; exists {
		return fmt.Errorf("failed to create link: duplicate id %s", l.ID)
	}
	s.links[l.ID] = *l
	return nil
}

// GetByID returns a copy of the link.
func (s *Store) GetByID(ctx context.Context, id string) (*link.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[id]
	if !ok {
		return nil, fmt.Errorf("link %s: %w", id, ports.ErrLinkNotFound)
	}
	return &l, nil
}

// Redeem increments the hit count of an unused link generated after cutoff.
func (s *Store) Redeem(ctx context.Context, id string, cutoff time.Time) (*link.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.redeemLocked(id, cutoff, nil)
}

// redeemLocked applies the conditional redemption. A non-nil email also
// refuses links bound to another address.
func (s *Store) redeemLocked(id string, cutoff time.Time, email *string) (*link.Link, error) {
	l, ok := s.links[id]
	if !ok || l.HitCount != 0 || !l.GenerationTime.After(cutoff) || (email != nil && !l.IssuedFor(*email)) {
		return nil, fmt.Errorf("link %s: %w", id, ports.ErrLinkNotRedeemable)
	}
	l.HitCount++
	s.links[id] = l
	return &l, nil
}

func (s *Store) Exists(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[key(email)]
	return ok, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[key(email)]
	if !ok {
		return nil, fmt.Errorf("account with email %s: %w", email, ports.ErrAccountNotFound)
	}
	return &a, nil
}

func (s *Store) GetFirstName(ctx context.Context, email string) (string, error) {
	a, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return a.FirstName, nil
}

func (s *Store) SetEncodedSecret(ctx context.Context, encodedSecret, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setSecretLocked(encodedSecret, email)
}

func (s *Store) setSecretLocked(encodedSecret, email string) error {
	a, ok := s.accounts[key(email)]
	if !ok || !a.IsActive {
		return fmt.Errorf("active account with email %s: %w", email, ports.ErrAccountNotFound)
	}
	a.PasswordHash = encodedSecret
	a.UpdatedAt = time.Now().UTC()
	s.accounts[key(email)] = a
	return nil
}

// CommitSecret applies the redemption and the secret update together or not at all.
func (s *Store) CommitSecret(ctx context.Context, linkID, email, encodedSecret string, cutoff time.Time) (*link.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := key(email)
	l, err := s.redeemLocked(linkID, cutoff, &normalized)
	if err != nil {
		return nil, err
	}
	if err := s.setSecretLocked(encodedSecret, email); err != nil {
		// roll back the redemption
		l.HitCount--
		s.links[linkID] = *l
		return nil, err
	}
	return l, nil
}

func key(email string) string {
	return account.NormalizeEmail(email)
}

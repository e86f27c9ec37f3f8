// Package memory is an in-process persistence collaborator with the same
// method sets as the MySQL repositories. It backs STORAGE=memory and the
// service tests. Every store hands out copies so callers never share state
// with the map.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/repository"
)

type UserStore struct {
	mu     sync.RWMutex
	nextID uint64
	rows   map[uint64]*model.User
}

func NewUserStore() *UserStore {
	return &UserStore{rows: make(map[uint64]*model.User)}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.ResetTokenHash != nil {
		h := *u.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if u.ResetTokenExpiry != nil {
		e := *u.ResetTokenExpiry
		c.ResetTokenExpiry = &e
	}
	return &c
}

// conflict reports whether another row already holds u's unique keys.
func (s *UserStore) conflict(u *model.User) bool {
	for id, r := range s.rows {
		if id == u.ID {
			continue
		}
		if r.Username == u.Username || r.Email == u.Email {
			return true
		}
		if u.ResetTokenHash != nil && r.ResetTokenHash != nil && *r.ResetTokenHash == *u.ResetTokenHash {
			return true
		}
	}
	return false
}

func (s *UserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = strings.ToLower(u.Email)
	u.ID = 0
	if s.conflict(u) {
		return repository.ErrDuplicate
	}
	s.nextID++
	now := time.Now().UTC()
	u.ID = s.nextID
	u.CreatedAt, u.UpdatedAt = now, now
	s.rows[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) Save(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.Email = strings.ToLower(u.Email)
	if s.conflict(u) {
		return repository.ErrDuplicate
	}
	u.UpdatedAt = time.Now().UTC()
	s.rows[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rows {
		if match(r) {
			return cloneUser(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r), nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Username == username })
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *UserStore) FindByResetToken(_ context.Context, tokenHash string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash })
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	return err == nil, nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *UserStore) FindAll(_ context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.User, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, cloneUser(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TokenStore keeps refresh tokens keyed by id with the same rules as the
// refresh_tokens table: one row per user (a second Create overwrites it) and
// a unique token hash.
type TokenStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.RefreshToken
}

func NewTokenStore() *TokenStore {
	return &TokenStore{rows: make(map[uint64]model.RefreshToken)}
}

func (s *TokenStore) Create(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing uint64
	for id, r := range s.rows {
		if r.TokenHash == t.TokenHash && r.UserID != t.UserID {
			return repository.ErrDuplicate
		}
		if r.UserID == t.UserID {
			existing = id
		}
	}
	if existing == 0 {
		s.nextID++
		existing = s.nextID
	}
	t.ID = existing
	t.CreatedAt = time.Now().UTC()
	row := *t
	row.Token = ""
	s.rows[t.ID] = row
	return nil
}

func (s *TokenStore) FindByTokenHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.TokenHash == tokenHash {
			t := r
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *TokenStore) FindByUserID(_ context.Context, userID uint64) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.UserID == userID {
			t := r
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *TokenStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *TokenStore) DeleteByUserID(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.rows {
		if r.UserID == userID {
			delete(s.rows, id)
		}
	}
	return nil
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

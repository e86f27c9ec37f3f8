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

type CustomerStore struct {
	mu     sync.RWMutex
	nextID uint64
	rows   map[uint64]model.Customer
}

func NewCustomerStore() *CustomerStore {
	return &CustomerStore{rows: make(map[uint64]model.Customer)}
}

func (s *CustomerStore) Create(_ context.Context, c *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.CustomerCode == c.CustomerCode || r.Email == c.Email {
			return repository.ErrDuplicate
		}
	}
	s.nextID++
	now := time.Now().UTC()
	c.ID = s.nextID
	c.CreatedAt, c.UpdatedAt = now, now
	s.rows[c.ID] = *c
	return nil
}

func (s *CustomerStore) GetByID(_ context.Context, id uint64) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

// Update keeps the stored customer code regardless of c.CustomerCode.
func (s *CustomerStore) Update(_ context.Context, c *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.rows[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, r := range s.rows {
		if id != c.ID && r.Email == c.Email {
			return repository.ErrDuplicate
		}
	}
	c.CustomerCode = old.CustomerCode
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.rows[c.ID] = *c
	return nil
}

func (s *CustomerStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *CustomerStore) ExistsByCode(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rows {
		if r.CustomerCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *CustomerStore) ExistsByEmail(_ context.Context, email string, excludeID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, r := range s.rows {
		if id != excludeID && r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *CustomerStore) List(_ context.Context, q repository.CustomerListQuery) (*model.CustomerPage, error) {
	all := s.filter(func(model.Customer) bool { return true })
	less := customerLess(q.SortBy)
	sort.SliceStable(all, func(i, j int) bool {
		if q.Desc {
			return less(all[j], all[i])
		}
		return less(all[i], all[j])
	})

	page := &model.CustomerPage{Items: []*model.Customer{}, Page: q.Page, Size: q.Size, TotalItems: int64(len(all))}
	start := q.Page * q.Size
	if start >= len(all) {
		return page, nil
	}
	end := start + q.Size
	if end > len(all) {
		end = len(all)
	}
	page.Items = all[start:end]
	return page, nil
}

func (s *CustomerStore) Search(_ context.Context, keyword string) ([]*model.Customer, error) {
	kw := strings.ToLower(keyword)
	return s.filter(func(c model.Customer) bool {
		for _, f := range []string{c.CustomerCode, c.FullName, c.Email, c.Phone} {
			if strings.Contains(strings.ToLower(f), kw) {
				return true
			}
		}
		return false
	}), nil
}

func (s *CustomerStore) ListByStatus(_ context.Context, status model.CustomerStatus) ([]*model.Customer, error) {
	return s.filter(func(c model.Customer) bool { return c.Status == status }), nil
}

// filter returns matching customers ordered by id.
func (s *CustomerStore) filter(keep func(model.Customer) bool) []*model.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.Customer{}
	for _, r := range s.rows {
		if keep(r) {
			c := r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func customerLess(sortBy string) func(a, b *model.Customer) bool {
	switch sortBy {
	case "customerCode":
		return func(a, b *model.Customer) bool { return a.CustomerCode < b.CustomerCode }
	case "fullName":
		return func(a, b *model.Customer) bool { return a.FullName < b.FullName }
	case "email":
		return func(a, b *model.Customer) bool { return a.Email < b.Email }
	case "status":
		return func(a, b *model.Customer) bool { return a.Status < b.Status }
	case "createdAt":
		return func(a, b *model.Customer) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	return func(a, b *model.Customer) bool { return a.ID < b.ID }
}

package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CustomerStore is the persistence collaborator for customers.
type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id uint64) (*model.Customer, error)
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, id uint64) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error)
	List(ctx context.Context, q repository.CustomerListQuery) (*model.CustomerPage, error)
	Search(ctx context.Context, keyword string) ([]*model.Customer, error)
	ListByStatus(ctx context.Context, status model.CustomerStatus) ([]*model.Customer, error)
}

// CustomerInput is a full customer representation used by create and update.
type CustomerInput struct {
	CustomerCode string
	FullName     string
	Email        string
	Phone        string
	Address      string
	Status       string
}

// CustomerPatch carries only the fields to change.
type CustomerPatch struct {
	FullName *string
	Email    *string
	Phone    *string
	Address  *string
	Status   *string
}

// ListParams are the raw paging inputs; Page is 0-based.
type ListParams struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

type CustomerService struct {
	store CustomerStore
}

func NewCustomerService(store CustomerStore) *CustomerService {
	return &CustomerService{store: store}
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }

func notFoundCustomer(id uint64) error { return apperr.NotFound("customer not found with id: %d", id) }

func (s *CustomerService) List(ctx context.Context, p ListParams) (*model.CustomerPage, error) {
	if p.Page < 0 {
		return nil, apperr.InvalidArgument("page must not be negative")
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	if p.SortBy == "" {
		p.SortBy = "id"
	}
	if _, ok := repository.CustomerSortColumns[p.SortBy]; !ok {
		return nil, apperr.InvalidArgument("unsupported sort field: %s", p.SortBy)
	}
	var desc bool
	switch strings.ToLower(p.SortDir) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return nil, apperr.InvalidArgument("sort direction must be asc or desc")
	}
	return s.store.List(ctx, repository.CustomerListQuery{Page: p.Page, Size: p.Size, SortBy: p.SortBy, Desc: desc})
}

func (s *CustomerService) Get(ctx context.Context, id uint64) (*model.Customer, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundCustomer(id)
		}
		return nil, err
	}
	return c, nil
}

func parseStatus(raw string, def model.CustomerStatus) (model.CustomerStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	st, err := model.ParseCustomerStatus(raw)
	if err != nil {
		return "", apperr.InvalidArgument("invalid customer status: %s", raw)
	}
	return st, nil
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*model.Customer, error) {
	code := strings.TrimSpace(in.CustomerCode)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	status, err := parseStatus(in.Status, model.CustomerActive)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Duplicate("customer code already exists: %s", code)
	}
	if taken, err = s.store.ExistsByEmail(ctx, email, 0); err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Duplicate("email already exists: %s", email)
	}

	c := &model.Customer{
		CustomerCode: code,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Status:       status,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, storeErr(err, "", "customer code or email already exists")
	}
	return c, nil
}

// Update replaces every mutable field. A customer code that differs from the
// stored one is rejected.
func (s *CustomerService) Update(ctx context.Context, id uint64, in CustomerInput) (*model.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if code := strings.TrimSpace(in.CustomerCode); code != "" && code != c.CustomerCode {
		return nil, apperr.InvalidArgument("customer code cannot be changed")
	}
	status, err := parseStatus(in.Status, c.Status)
	if err != nil {
		return nil, err
	}
	c.FullName = strings.TrimSpace(in.FullName)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = strings.TrimSpace(in.Address)
	c.Status = status
	if err := s.changeEmail(ctx, c, in.Email); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) Patch(ctx context.Context, id uint64, p CustomerPatch) (*model.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.FullName != nil {
		c.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Phone != nil {
		c.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		c.Address = strings.TrimSpace(*p.Address)
	}
	if p.Status != nil {
		if c.Status, err = parseStatus(*p.Status, c.Status); err != nil {
			return nil, err
		}
	}
	if p.Email != nil {
		if err := s.changeEmail(ctx, c, *p.Email); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) changeEmail(ctx context.Context, c *model.Customer, raw string) error {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == c.Email {
		return nil
	}
	taken, err := s.store.ExistsByEmail(ctx, email, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Duplicate("email already exists: %s", email)
	}
	c.Email = email
	return nil
}

func (s *CustomerService) save(ctx context.Context, c *model.Customer) error {
	if err := s.store.Update(ctx, c); err != nil {
		if isNotFound(err) {
			return notFoundCustomer(c.ID)
		}
		return storeErr(err, "", "email already exists")
	}
	return nil
}

func (s *CustomerService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return notFoundCustomer(id)
		}
		return err
	}
	return nil
}

func (s *CustomerService) Search(ctx context.Context, keyword string) ([]*model.Customer, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperr.InvalidArgument("keyword is required")
	}
	return s.store.Search(ctx, keyword)
}

func (s *CustomerService) ByStatus(ctx context.Context, raw string) ([]*model.Customer, error) {
	st, err := model.ParseCustomerStatus(raw)
	if err != nil {
		return nil, apperr.InvalidArgument("invalid customer status: %s", raw)
	}
	return s.store.ListByStatus(ctx, st)
}

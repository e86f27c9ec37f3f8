package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/repository/memory"
)

func newCustomers(t *testing.T, n int) *CustomerService {
	t.Helper()
	s := NewCustomerService(memory.NewCustomerStore())
	for i := 0; i < n; i++ {
		_, err := s.Create(context.Background(), CustomerInput{
			CustomerCode: fmt.Sprintf("C-%03d", i),
			FullName:     fmt.Sprintf("Customer %03d", i),
			Email:        fmt.Sprintf("c%d@example.com", i),
		})
		require.NoError(t, err)
	}
	return s
}

func TestCustomerListDefaults(t *testing.T) {
	s := newCustomers(t, 12)

	page, err := s.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, int64(12), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages())

	page, err = s.List(context.Background(), ListParams{Page: 0, Size: 5, SortBy: "customerCode", SortDir: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, "C-011", page.Items[0].CustomerCode)
}

func TestCustomerListRejectsBadParams(t *testing.T) {
	s := newCustomers(t, 1)
	ctx := context.Background()

	_, err := s.List(ctx, ListParams{SortBy: "password"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = s.List(ctx, ListParams{SortDir: "sideways"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = s.List(ctx, ListParams{Page: -1})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	page, err := s.List(ctx, ListParams{Size: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Size)
}

func TestCustomerCreateDefaultsAndDuplicates(t *testing.T) {
	s := newCustomers(t, 1)
	ctx := context.Background()

	c, err := s.Create(ctx, CustomerInput{CustomerCode: "X-1", FullName: "X", Email: "X@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.CustomerActive, c.Status)
	assert.Equal(t, "x@example.com", c.Email)

	_, err = s.Create(ctx, CustomerInput{CustomerCode: "C-000", FullName: "Dup", Email: "new@example.com"})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = s.Create(ctx, CustomerInput{CustomerCode: "Y-1", FullName: "Dup", Email: "c0@example.com"})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = s.Create(ctx, CustomerInput{CustomerCode: "Z-1", FullName: "Z", Email: "z@example.com", Status: "frozen"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestCustomerUpdateKeepsCode(t *testing.T) {
	s := newCustomers(t, 2)
	ctx := context.Background()

	_, err := s.Update(ctx, 1, CustomerInput{CustomerCode: "OTHER", FullName: "N", Email: "c0@example.com"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	c, err := s.Update(ctx, 1, CustomerInput{FullName: "Renamed", Email: "c0@example.com", Status: "suspended"})
	require.NoError(t, err)
	assert.Equal(t, "C-000", c.CustomerCode)
	assert.Equal(t, "Renamed", c.FullName)
	assert.Equal(t, model.CustomerSuspended, c.Status)

	_, err = s.Update(ctx, 1, CustomerInput{FullName: "Renamed", Email: "c1@example.com"})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = s.Update(ctx, 77, CustomerInput{FullName: "N"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCustomerPatch(t *testing.T) {
	s := newCustomers(t, 1)
	ctx := context.Background()

	phone := "+1 555 0100"
	status := "INACTIVE"
	c, err := s.Patch(ctx, 1, CustomerPatch{Phone: &phone, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, phone, c.Phone)
	assert.Equal(t, model.CustomerInactive, c.Status)
	assert.Equal(t, "Customer 000", c.FullName)

	bad := "gone"
	_, err = s.Patch(ctx, 1, CustomerPatch{Status: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestCustomerDeleteSearchStatus(t *testing.T) {
	s := newCustomers(t, 3)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, 2))
	assert.ErrorIs(t, s.Delete(ctx, 2), apperr.ErrNotFound)
	_, err := s.Get(ctx, 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	found, err := s.Search(ctx, "customer 002")
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = s.Search(ctx, "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	active, err := s.ByStatus(ctx, "active")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = s.ByStatus(ctx, "bogus")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/secure-customer-api/internal/model"
)

var customerCols = []string{"id", "customer_code", "full_name", "email", "phone", "address", "status", "created_at", "updated_at"}

func TestCustomerRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers")).
		WithArgs("C-001", "Ada", "ada@example.com", "555", "", "ACTIVE", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))

	c := &model.Customer{CustomerCode: "C-001", FullName: "Ada", Email: "ada@example.com", Phone: "555", Status: model.CustomerActive}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, uint64(3), c.ID)
}

func TestCustomerRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.Customer{CustomerCode: "C-001", Status: model.CustomerActive})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCustomerRepo_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE customers")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Customer{ID: 9, Status: model.CustomerActive})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerRepo_UpdateSkipsCode(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	mock.ExpectExec(`UPDATE customers\s+SET full_name = \?, email = \?, phone = \?, address = \?, status = \?, updated_at = \?\s+WHERE id = \?`).
		WithArgs("Ada L", "ada@example.com", "", "", "SUSPENDED", sqlmock.AnyArg(), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &model.Customer{ID: 3, CustomerCode: "CHANGED", FullName: "Ada L", Email: "ada@example.com", Status: model.CustomerSuspended}
	require.NoError(t, repo.Update(context.Background(), c))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepo_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = ?")).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 1), ErrNotFound)
}

func TestCustomerRepo_ListPagesAndSorts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers")).
		WillReturnRows(mock.NewRows([]string{"n"}).AddRow(25))
	mock.ExpectQuery(regexp.QuoteMeta("FROM customers ORDER BY full_name DESC LIMIT ? OFFSET ?")).
		WithArgs(10, 20).
		WillReturnRows(mock.NewRows(customerCols).
			AddRow(21, "C-21", "Zed", "z@example.com", nil, nil, "ACTIVE", now, now))

	page, err := repo.List(context.Background(), CustomerListQuery{Page: 2, Size: 10, SortBy: "fullName", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C-21", page.Items[0].CustomerCode)
	assert.Empty(t, page.Items[0].Phone)
}

func TestCustomerRepo_ListUnknownSortFallsBackToID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers")).
		WillReturnRows(mock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id ASC")).
		WillReturnRows(mock.NewRows(customerCols))

	page, err := repo.List(context.Background(), CustomerListQuery{Size: 10, SortBy: "password; DROP TABLE"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestCustomerRepo_Search(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(customer_code) LIKE ?")).
		WithArgs("%ada%", "%ada%", "%ada%", "%ada%").
		WillReturnRows(mock.NewRows(customerCols).
			AddRow(3, "C-001", "Ada", "ada@example.com", "555", "1 Main St", "ACTIVE", now, now))

	out, err := repo.Search(context.Background(), "ADA")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1 Main St", out[0].Address)
}

func TestCustomerRepo_ListByStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = ?")).
		WithArgs("INACTIVE").
		WillReturnRows(mock.NewRows(customerCols))

	out, err := repo.ListByStatus(context.Background(), model.CustomerInactive)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

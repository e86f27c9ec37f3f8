// This file holds the customer repository. Customers are the records the API
// manages on behalf of tenants; customer_code and email are both unique, and
// customer_code never changes after the row is inserted.
package repository

import (
	"context"      // context carries request deadlines into every query
	"database/sql" // sql provides the generic database handle
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/secure-customer-api/internal/model"
)

const customerColumns = "id, customer_code, full_name, email, phone, address, status, created_at, updated_at"

// CustomerSortColumns maps the sort keys accepted by the API to SQL columns.
// Anything not listed here is rejected before it can reach ORDER BY.
var CustomerSortColumns = map[string]string{
	"id":           "id",
	"customerCode": "customer_code",
	"fullName":     "full_name",
	"email":        "email",
	"status":       "status",
	"createdAt":    "created_at",
}

// CustomerListQuery describes one page of an ordered listing. Page is 0-based.
type CustomerListQuery struct {
	Page   int
	Size   int
	SortBy string // key of CustomerSortColumns
	Desc   bool
}

// CustomerRepo encapsulates all queries against the customers table.
type CustomerRepo struct {
	db *sql.DB // db is the shared connection pool
}

// NewCustomerRepo constructs a CustomerRepo with the provided DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// Create inserts c and populates its ID and timestamps. A clash on
// customer_code or email is reported as ErrDuplicate.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	now := time.Now().UTC()
	const q = `INSERT INTO customers (customer_code, full_name, email, phone, address, status, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.CustomerCode, c.FullName, c.Email, c.Phone, c.Address, string(c.Status), now, now)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

// GetByID fetches a customer or returns ErrNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Update writes the mutable columns. customer_code is never rewritten.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	now := time.Now().UTC()
	const q = `UPDATE customers
	           SET full_name = ?, email = ?, phone = ?, address = ?, status = ?, updated_at = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, c.FullName, c.Email, c.Phone, c.Address, string(c.Status), now, c.ID)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	c.UpdatedAt = now
	return nil
}

// Delete removes a customer by id. A missing row yields ErrNotFound.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM customers WHERE customer_code = ?)", code).Scan(&ok)
	return ok, err
}

// ExistsByEmail reports whether another customer already uses email.
// excludeID lets an update ignore the row being edited; pass 0 on create.
func (r *CustomerRepo) ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE email = ? AND id <> ?)", email, excludeID).Scan(&ok)
	return ok, err
}

// List returns one page ordered by q.SortBy along with the total row count.
func (r *CustomerRepo) List(ctx context.Context, q CustomerListQuery) (*model.CustomerPage, error) {
	col, ok := CustomerSortColumns[q.SortBy]
	if !ok {
		col = "id"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&total); err != nil {
		return nil, err
	}

	dataSQL := "SELECT " + customerColumns + " FROM customers ORDER BY " + col + " " + dir + " LIMIT ? OFFSET ?"
	items, err := r.query(ctx, dataSQL, q.Size, q.Page*q.Size)
	if err != nil {
		return nil, err
	}
	return &model.CustomerPage{Items: items, Page: q.Page, Size: q.Size, TotalItems: total}, nil
}

// Search matches keyword case-insensitively against code, name, email and phone.
func (r *CustomerRepo) Search(ctx context.Context, keyword string) ([]*model.Customer, error) {
	like := "%" + strings.ToLower(keyword) + "%"
	const q = `SELECT ` + customerColumns + ` FROM customers
	           WHERE LOWER(customer_code) LIKE ? OR LOWER(full_name) LIKE ?
	              OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?
	           ORDER BY id`
	return r.query(ctx, q, like, like, like, like)
}

func (r *CustomerRepo) ListByStatus(ctx context.Context, status model.CustomerStatus) ([]*model.Customer, error) {
	return r.query(ctx, "SELECT "+customerColumns+" FROM customers WHERE status = ? ORDER BY id", string(status))
}

func (r *CustomerRepo) query(ctx context.Context, q string, args ...any) ([]*model.Customer, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanCustomer(s scanner) (*model.Customer, error) {
	var (
		c       model.Customer
		status  string
		phone   sql.NullString
		address sql.NullString
	)
	if err := s.Scan(&c.ID, &c.CustomerCode, &c.FullName, &c.Email, &phone, &address, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Address = address.String
	c.Status = model.CustomerStatus(status)
	return &c, nil
}

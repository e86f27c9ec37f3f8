package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/secure-customer-api/internal/model"
)

const userColumns = "id,username,email,password_hash,full_name,role,is_active,reset_token_hash,reset_token_expiry,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u and fills in its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username,email,password_hash,full_name,role,is_active,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)",
		u.Username, strings.ToLower(u.Email), u.PasswordHash, u.FullName, string(u.Role), u.Active, now, now)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// Save writes every mutable column of u back to its row. A missing row is
// ErrNotFound.
func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	var (
		tokenHash sql.NullString
		expiry    sql.NullTime
	)
	if u.ResetTokenHash != nil {
		tokenHash = sql.NullString{String: *u.ResetTokenHash, Valid: true}
	}
	if u.ResetTokenExpiry != nil {
		expiry = sql.NullTime{Time: *u.ResetTokenExpiry, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET username=?, email=?, password_hash=?, full_name=?, role=?, is_active=?,
		 reset_token_hash=?, reset_token_expiry=?, updated_at=? WHERE id=?`,
		u.Username, strings.ToLower(u.Email), u.PasswordHash, u.FullName, string(u.Role), u.Active,
		tokenHash, expiry, now, u.ID)
	if err != nil {
		return translate(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	u.UpdatedAt = now
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// FindByResetToken uses the unique index on reset_token_hash.
func (r *UserRepo) FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE reset_token_hash=? LIMIT 1", tokenHash)
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username=?)", username)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email=?)", strings.ToLower(strings.TrimSpace(email)))
}

// FindAll returns every user ordered by id.
func (r *UserRepo) FindAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepo) findOne(ctx context.Context, q string, arg any) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) exists(ctx context.Context, q string, arg any) (bool, error) {
	var ok bool
	if err := r.DB.QueryRowContext(ctx, q, arg).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		role      string
		fullName  sql.NullString
		tokenHash sql.NullString
		expiry    sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &role, &u.Active,
		&tokenHash, &expiry, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	u.Role = model.Role(role)
	if tokenHash.Valid {
		h := tokenHash.String
		u.ResetTokenHash = &h
	}
	if expiry.Valid {
		e := expiry.Time
		u.ResetTokenExpiry = &e
	}
	return &u, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/secure-customer-api/internal/model"
)

// TokenRepo persists refresh tokens. refresh_tokens.user_id is unique, so a
// user can own at most one row; only the token hash is stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create stores t as the user's only token. A row the user already owns is
// overwritten, so concurrent rotations end with the last writer's token.
func (r *TokenRepo) Create(ctx context.Context, t *model.RefreshToken) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE id=LAST_INSERT_ID(id), token_hash=VALUES(token_hash),
		 expires_at=VALUES(expires_at), created_at=VALUES(created_at)`,
		t.UserID, t.TokenHash, t.ExpiresAt, now)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.CreatedAt = now
	return nil
}

func (r *TokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	return r.findOne(ctx,
		"SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash)
}

func (r *TokenRepo) FindByUserID(ctx context.Context, userID uint64) (*model.RefreshToken, error) {
	return r.findOne(ctx,
		"SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE user_id=? LIMIT 1",
		userID)
}

// Delete removes a single token by id. Deleting a missing row is not an error.
func (r *TokenRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", id)
	return err
}

// DeleteByUserID removes whatever token the user currently owns.
func (r *TokenRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

func (r *TokenRepo) findOne(ctx context.Context, q string, arg any) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

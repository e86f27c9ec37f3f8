// Package auth is the authentication and authorization core: password
// hashing, access token issuance and validation, refresh token rotation,
// password reset tokens and the role/ownership policy. It depends only on
// the store interfaces declared here; repository.ErrNotFound and
// repository.ErrDuplicate are the store error contract.
package auth

import (
	"context"

	"github.com/iliyamo/secure-customer-api/internal/model"
)

// UserStore is the credential store consumed by the core.
type UserStore interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	Save(ctx context.Context, u *model.User) error
	FindAll(ctx context.Context) ([]*model.User, error)
}

// RefreshTokenStore persists refresh tokens by their hash.
type RefreshTokenStore interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	FindByUserID(ctx context.Context, userID uint64) (*model.RefreshToken, error)
	Create(ctx context.Context, t *model.RefreshToken) error
	Delete(ctx context.Context, id uint64) error
	DeleteByUserID(ctx context.Context, userID uint64) error
}

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
)

// ErrInvalidToken is the only failure Validate reports. Malformed, tampered,
// expired and wrongly signed tokens are indistinguishable to the caller.
var ErrInvalidToken = apperr.AuthFailed("invalid or expired access token")

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// Claims is the identity carried by a valid access token.
type Claims struct {
	Subject   string
	Role      model.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal converts the claims into an authorization principal.
func (c Claims) Principal() Principal {
	return Principal{Subject: c.Subject, Role: c.Role}
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 access tokens with a single
// process-wide secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

type TokenOption func(*TokenIssuer)

// WithIssuer sets the "iss" claim. Validate then requires the same value.
func WithIssuer(iss string) TokenOption {
	return func(t *TokenIssuer) { t.issuer = iss }
}

func NewTokenIssuer(secret string, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: access token ttl must be positive")
	}
	t := &TokenIssuer{secret: []byte(secret), ttl: ttl}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for subject valid from now until now+TTL.
// JWT dates have second precision, so the returned expiry is truncated.
func (t *TokenIssuer) Issue(subject string, role model.Role, now time.Time) (AccessToken, error) {
	if subject == "" || !role.Valid() {
		return AccessToken{}, errors.New("auth: subject and a known role are required")
	}
	claims := tokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Validate checks signature, algorithm and that now is strictly before exp.
func (t *TokenIssuer) Validate(raw string, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) { return t.secret, nil }, opts...)
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	role := model.Role(tc.Role)
	if tc.Subject == "" || !role.Valid() {
		return Claims{}, ErrInvalidToken
	}

	c := Claims{Subject: tc.Subject, Role: role, ExpiresAt: tc.ExpiresAt.Time}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	return c, nil
}

// HashToken returns the hex sha256 of an opaque token. Refresh and reset
// tokens are only ever stored in this form.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

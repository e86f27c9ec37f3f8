package middleware // middleware holds the echo middleware shared by all routes

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-customer-api/internal/auth"
)

// JWTAuth validates the Bearer access token and stores the resulting
// principal in the context. Any problem with the header or the token is
// reported as auth.ErrInvalidToken and rendered by the error handler.
func JWTAuth(issuer *auth.TokenIssuer, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return auth.ErrUnauthenticated
			}
			claims, err := issuer.Validate(strings.TrimSpace(raw), now())
			if err != nil {
				return err
			}
			c.Set(principalKey, claims.Principal())
			return next(c)
		}
	}
}

// Require gates a route with the policy of op. Self-service routes carry no
// target id: the owner is the authenticated subject itself.
func Require(op auth.Operation) echo.MiddlewareFunc {
	policy := auth.PolicyFor(op)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if err := auth.Authorize(p, policy, p.Subject); err != nil {
				return err
			}
			return next(c)
		}
	}
}

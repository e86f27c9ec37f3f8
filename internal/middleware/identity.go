package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-customer-api/internal/auth"
)

const principalKey = "principal"

// PrincipalFrom returns the caller set by JWTAuth, or the anonymous
// principal when the route is not authenticated.
func PrincipalFrom(c echo.Context) auth.Principal {
	if p, ok := c.Get(principalKey).(auth.Principal); ok {
		return p
	}
	return auth.Principal{}
}

// callerKey identifies the caller for rate limiting and logs: the subject
// when authenticated, the client IP otherwise.
func callerKey(c echo.Context) string {
	if p := PrincipalFrom(c); !p.Anonymous() {
		return "user:" + p.Subject
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

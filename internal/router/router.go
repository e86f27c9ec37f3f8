package router // package router registers the HTTP routes and their access policies

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/secure-customer-api/internal/auth"
	"github.com/iliyamo/secure-customer-api/internal/handler"
	"github.com/iliyamo/secure-customer-api/internal/middleware"
)

// Guards are the shared middlewares applied per route group.
type Guards struct {
	// Authn validates the bearer token and sets the principal.
	Authn echo.MiddlewareFunc
	// RateLimit guards credential endpoints.
	RateLimit echo.MiddlewareFunc
	// Cache serves repeated customer reads.
	Cache echo.MiddlewareFunc
}

func (g Guards) orPass() Guards {
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if g.RateLimit == nil {
		g.RateLimit = pass
	}
	if g.Cache == nil {
		g.Cache = pass
	}
	return g
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, gatherer prometheus.Gatherer) {
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// RegisterAuth mounts /api/auth. Login and forgot-password sit behind the
// rate limiter; the session endpoints require a token and act on "self".
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	g = g.orPass()
	pub := e.Group("/api/auth")
	pub.POST("/register", a.Register, middleware.Require(auth.OpRegister))
	pub.POST("/login", a.Login, g.RateLimit, middleware.Require(auth.OpLogin))
	pub.POST("/refresh", a.Refresh, middleware.Require(auth.OpRefresh))
	pub.POST("/forgot-password", a.ForgotPassword, g.RateLimit, middleware.Require(auth.OpForgotPassword))
	pub.POST("/reset-password", a.ResetPassword, middleware.Require(auth.OpResetPassword))

	self := e.Group("/api/auth", g.Authn)
	self.GET("/me", a.Me, middleware.Require(auth.OpMe))
	self.POST("/logout", a.Logout, middleware.Require(auth.OpLogout))
	self.PUT("/change-password", a.ChangePassword, middleware.Require(auth.OpChangePassword))
}

// RegisterUsers mounts the self-service profile endpoints.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, g Guards) {
	grp := e.Group("/api/users", g.Authn)
	grp.GET("/profile", u.GetProfile, middleware.Require(auth.OpGetProfile))
	grp.PUT("/profile", u.UpdateProfile, middleware.Require(auth.OpUpdateProfile))
	grp.DELETE("/account", u.DeleteAccount, middleware.Require(auth.OpDeleteAccount))
}

// RegisterAdmin mounts user management; every route is ADMIN only.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, g Guards) {
	grp := e.Group("/api/admin", g.Authn)
	grp.GET("/users", a.ListUsers, middleware.Require(auth.OpListUsers))
	grp.PUT("/users/:id/role", a.UpdateUserRole, middleware.Require(auth.OpUpdateUserRole))
	grp.PATCH("/users/:id/status", a.ToggleUserStatus, middleware.Require(auth.OpToggleUserStatus))
}

// RegisterCustomers mounts /api/customers. Reads are open to any
// authenticated caller, writes are ADMIN only. The cache runs after the
// policy check so anonymous callers never see cached data.
func RegisterCustomers(e *echo.Echo, h *handler.CustomerHandler, g Guards) {
	g = g.orPass()
	grp := e.Group("/api/customers", g.Authn)
	grp.GET("", h.List, middleware.Require(auth.OpListCustomers), g.Cache)
	grp.GET("/search", h.Search, middleware.Require(auth.OpSearchCustomers))
	grp.GET("/status/:status", h.ByStatus, middleware.Require(auth.OpCustomersByStatus))
	grp.GET("/:id", h.Get, middleware.Require(auth.OpGetCustomer), g.Cache)
	grp.POST("", h.Create, middleware.Require(auth.OpCreateCustomer))
	grp.PUT("/:id", h.Update, middleware.Require(auth.OpUpdateCustomer))
	grp.PATCH("/:id", h.Patch, middleware.Require(auth.OpPatchCustomer))
	grp.DELETE("/:id", h.Delete, middleware.Require(auth.OpDeleteCustomer))
}

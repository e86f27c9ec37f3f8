package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/middleware"
	"github.com/iliyamo/secure-customer-api/internal/service"
)

// UserHandler serves the self-service /api/users endpoints. The target
// account is always the authenticated caller.
type UserHandler struct {
	users    *service.UserService
	sessions *service.SessionService
}

func NewUserHandler(u *service.UserService, s *service.SessionService) *UserHandler {
	return &UserHandler{users: u, sessions: s}
}

type updateProfileReq struct {
	FullName *string `json:"fullName" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	p, err := h.users.GetProfile(c.Request().Context(), middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.users.UpdateProfile(c.Request().Context(), middleware.PrincipalFrom(c).Subject,
		service.ProfileUpdate{FullName: req.FullName, Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteAccount deactivates the caller; the password comes as ?password=.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	password := c.QueryParam("password")
	if password == "" {
		return apperr.InvalidArgument("password is required")
	}
	res, err := h.sessions.DeleteAccount(c.Request().Context(), middleware.PrincipalFrom(c).Subject, password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/service"
)

// AdminHandler serves /api/admin. Routes are gated to ADMIN by the router.
type AdminHandler struct {
	users *service.UserService
}

func NewAdminHandler(u *service.UserService) *AdminHandler {
	return &AdminHandler{users: u}
}

type updateRoleReq struct {
	Role string `json:"role" validate:"required"`
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) UpdateUserRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateRoleReq
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return apperr.InvalidArgument("role must be USER or ADMIN")
	}
	p, err := h.users.UpdateUserRole(c.Request().Context(), id, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) ToggleUserStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.users.ToggleUserStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

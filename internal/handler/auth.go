package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-customer-api/internal/middleware"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/service"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	sessions *service.SessionService
}

func NewAuthHandler(s *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"fullName" validate:"max=100"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type forgotReq struct {
	Email string `json:"email" validate:"required,email"`
}

type resetReq struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type authResp struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	TokenType    string     `json:"tokenType"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         model.Role `json:"role"`
}

func toAuthResp(r *service.AuthResult) authResp {
	return authResp{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    r.AccessExpiresAt,
		Username:     r.Username,
		Email:        r.Email,
		Role:         r.Role,
	}
}

// Register creates a USER account. It does not log the caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.sessions.Register(c.Request().Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.sessions.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// ForgotPassword returns the reset token in the body only when the
// deployment exposes it; otherwise it travels by mail.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.sessions.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.sessions.ResetPassword(c.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Me(c echo.Context) error {
	p, err := h.sessions.Me(c.Request().Context(), middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	res, err := h.sessions.Logout(c.Request().Context(), middleware.PrincipalFrom(c).Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.sessions.ChangePassword(c.Request().Context(), middleware.PrincipalFrom(c).Subject,
		req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

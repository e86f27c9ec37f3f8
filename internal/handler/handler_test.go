package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.Duplicate("x"), http.StatusConflict},
		{apperr.InvalidArgument("x"), http.StatusBadRequest},
		{apperr.Forbidden("x"), http.StatusForbidden},
		{apperr.AuthFailed("x"), http.StatusUnauthorized},
		{apperr.Unavailable("x"), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("x")), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func render(err error) (*httptest.ResponseRecorder, errorBody) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(err, c)
	var body errorBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestErrorHandlerBody(t *testing.T) {
	rec, body := render(apperr.Duplicate("email is already in use: a@b.c"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errorBody{Error: "duplicate_resource", Message: "email is already in use: a@b.c"}, body)

	rec, body = render(errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, body.Message, "3306")

	rec, body = render(echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body.Error)

	rec, body = render(echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", body.Error)
}

func TestValidatorMessages(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&registerReq{Username: "al", Email: "not-an-email", Password: "123"})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	msg := err.Error()
	assert.Contains(t, msg, "username must be at least 3 characters")
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "password must be at least 6 characters")

	err = v.Validate(&customerReq{CustomerCode: "C1", FullName: "A", Email: "a@b.c", Status: "GONE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status must be one of")

	err = v.Validate(&loginReq{})
	require.Error(t, err)
	assert.Equal(t, "username is required; password is required", err.Error())

	assert.NoError(t, v.Validate(&registerReq{Username: "alice", Email: "alice@example.com", Password: "secret1"}))
}

func TestBindRejectsMalformedJSON(t *testing.T) {
	e := echo.New()
	e.Validator = NewRequestValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var r loginReq
	err := bind(c, &r)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.Equal(t, "invalid request body", err.Error())
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	require.NoError(t, Health(nil)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	checks := map[string]Check{"mysql": func(ctx context.Context) error { return errors.New("down") }}
	require.NoError(t, Health(checks)(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","failed":{"mysql":"down"}}`, rec.Body.String())
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorHandler is installed as echo's HTTPErrorHandler. Unknown errors are
// logged and reported with a generic message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := StatusOf(err)
	body := errorBody{Error: apperr.Slug(err), Message: err.Error()}

	var he *echo.HTTPError
	if status == http.StatusInternalServerError && errors.As(err, &he) {
		status = he.Code
		body.Error = strings.ToLower(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = http.StatusText(he.Code)
		}
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("route", c.Path()).Msg("unhandled error")
		body = errorBody{Error: "internal_error", Message: "an unexpected error occurred"}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Error().Err(err).Msg("write error response")
	}
}

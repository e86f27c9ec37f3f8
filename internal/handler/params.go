package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
)

// pathID reads a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidArgument("invalid %s", name)
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgument("%s must be an integer", name)
	}
	return n, nil
}

package util

import (
	"github.com/labstack/echo/v4"
)

// RequestPath returns the path of the request as it has been decoded by
// net/http. The path is never empty.
func RequestPath(c echo.Context) string {
	path := c.Request().URL.Path

	if len(path) == 0 {
		return "/"
	}

	return path
}

// DefaultQuery returns the decoded value of the query parameter or defValue if
// the parameter is missing or empty.
func DefaultQuery(c echo.Context, name, defValue string) string {
	param := c.QueryParam(name)

	if len(param) == 0 {
		return defValue
	}

	return param
}

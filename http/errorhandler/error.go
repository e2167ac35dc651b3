// Package errorhandler renders the errors returned by the handlers.
package errorhandler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/datarhei/jsondir/http/api"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler writes the error as api.Error JSON. Responses to HEAD
// requests don't have a body. Nothing is written if the response has already
// been committed.
func HTTPErrorHandler(err error, c echo.Context) {
	var code int = 0
	var details []string
	message := ""

	if he, ok := err.(api.Error); ok {
		code = he.Code
		message = he.Message
		details = he.Details
	} else if he, ok := err.(*echo.HTTPError); ok {
		if he.Internal != nil {
			if herr, ok := he.Internal.(*echo.HTTPError); ok {
				he = herr
			}
		}

		code = he.Code
		message = http.StatusText(he.Code)
		details = strings.Split(fmt.Sprintf("%v", he.Message), "\n")
	} else {
		code = http.StatusInternalServerError
		message = http.StatusText(http.StatusInternalServerError)
		details = strings.Split(err.Error(), "\n")
	}

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(code)
		return
	}

	c.JSON(code, api.Error{
		Code:    code,
		Message: message,
		Details: details,
	})
}

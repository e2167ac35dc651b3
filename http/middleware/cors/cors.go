// Package cors implements a middleware that adds a fixed set of CORS headers to
// every response and answers preflight requests.
package cors

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Config struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper

	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

var DefaultConfig = Config{
	Skipper:      middleware.DefaultSkipper,
	AllowOrigin:  "*",
	AllowMethods: []string{http.MethodGet, http.MethodOptions},
	AllowHeaders: []string{"Range"},
	MaxAge:       24 * time.Hour,
}

func New() echo.MiddlewareFunc {
	mw, _ := NewWithConfig(DefaultConfig)

	return mw
}

// NewWithConfig returns the middleware. Preflight requests are answered with 200
// and an empty body without calling the next handler. An error is returned if
// the origin is invalid.
func NewWithConfig(config Config) (echo.MiddlewareFunc, error) {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig.Skipper
	}

	if len(config.AllowOrigin) == 0 {
		config.AllowOrigin = DefaultConfig.AllowOrigin
	}

	if err := validate(config.AllowOrigin); err != nil {
		return nil, err
	}

	if len(config.AllowMethods) == 0 {
		config.AllowMethods = DefaultConfig.AllowMethods
	}

	if len(config.AllowHeaders) == 0 {
		config.AllowHeaders = DefaultConfig.AllowHeaders
	}

	if config.MaxAge <= 0 {
		config.MaxAge = DefaultConfig.MaxAge
	}

	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")
	maxAge := strconv.Itoa(int(config.MaxAge.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			header := c.Response().Header()
			header.Set(echo.HeaderAccessControlAllowOrigin, config.AllowOrigin)
			header.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
			header.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
			header.Set(echo.HeaderAccessControlMaxAge, maxAge)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}, nil
}

// validate checks that the origin is either a wildcard or an URL with the http or https schema.
func validate(origin string) error {
	if strings.Contains(origin, "*") {
		return nil
	}

	if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
		return nil
	}

	return errors.New("bad origin: origins must contain '*' or include http://, or https://")
}

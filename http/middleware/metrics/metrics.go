// Package metrics implements a middleware that records the requests in a
// prometheus.HTTPObserver.
package metrics

import (
	"time"

	"github.com/datarhei/jsondir/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Config struct {
	// Skipper defines a function to skip middleware.
	Skipper  middleware.Skipper
	Observer prometheus.HTTPObserver
}

var DefaultConfig = Config{
	Skipper:  middleware.DefaultSkipper,
	Observer: nil,
}

// NewWithConfig returns the middleware. Without an observer the middleware does nothing.
func NewWithConfig(config Config) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig.Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Observer == nil || config.Skipper(c) {
				return next(c)
			}

			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			config.Observer.ObserveRequest(c.Request().Method, c.Response().Status, time.Since(start))

			return nil
		}
	}
}

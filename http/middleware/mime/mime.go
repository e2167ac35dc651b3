// Package mime implements a middleware that looks up the content policy for
// the requested path.
package mime

import (
	"github.com/datarhei/jsondir/content"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ContextKey is the key for the content.Entry in the echo.Context.
const ContextKey = "content"

// Config defines the config for Mime middleware.
type Config struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper

	Policy content.Policy
}

// DefaultConfig is the default Mime middleware config.
var DefaultConfig = Config{
	Skipper: middleware.DefaultSkipper,
	Policy:  nil,
}

func New() echo.MiddlewareFunc {
	return NewWithConfig(DefaultConfig)
}

// NewWithConfig returns a middleware that stores the content.Entry for the path
// of the request in the context. The entry is applied by the handler if it serves
// a file.
func NewWithConfig(config Config) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig.Skipper
	}

	if config.Policy == nil {
		config.Policy, _ = content.New(content.Config{})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			c.Set(ContextKey, config.Policy.Lookup(c.Request().URL.Path))

			return next(c)
		}
	}
}

// FromContext returns the content.Entry that has been stored by the middleware.
func FromContext(c echo.Context) (content.Entry, bool) {
	entry, ok := c.Get(ContextKey).(content.Entry)

	return entry, ok
}

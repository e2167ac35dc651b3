package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// The PingHandler type provides a handler for a liveliness check
type PingHandler struct{}

// NewPing returns a new PingHandler.
func NewPing() *PingHandler {
	return &PingHandler{}
}

// Ping returns pong
func (p *PingHandler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

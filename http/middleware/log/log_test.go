package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datarhei/jsondir/http/api"
	"github.com/datarhei/jsondir/http/errorhandler"
	"github.com/datarhei/jsondir/log"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	buffer := log.NewBufferWriter(log.Ldebug)

	e := echo.New()
	e.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	e.Use(NewWithConfig(Config{
		Logger: log.New("HTTP").WithOutput(buffer),
	}))

	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/missing", func(c echo.Context) error {
		return api.Err(http.StatusNotFound, "File not found", "/missing")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	events := buffer.Events()
	require.Len(t, events, 2)

	require.Equal(t, log.Ldebug, events[0].Level)
	require.Equal(t, "/ok?x=1", events[0].Data["path"])
	require.Equal(t, http.StatusOK, events[0].Data["status"])
	require.Equal(t, int64(2), events[0].Data["size_bytes"])
	require.NotEmpty(t, events[0].Data["request_id"])

	require.Equal(t, log.Lwarn, events[1].Level)
	require.Equal(t, http.StatusNotFound, events[1].Data["status"])
	require.Equal(t, "Not Found", events[1].Data["status_text"])
	require.NotEqual(t, events[0].Data["request_id"], events[1].Data["request_id"])
}

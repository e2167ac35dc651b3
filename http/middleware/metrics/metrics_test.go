package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/datarhei/jsondir/http/api"
	"github.com/datarhei/jsondir/http/errorhandler"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	status int
}

type dummyObserver struct {
	lock         sync.Mutex
	observations []observation
	listings     int
}

func (d *dummyObserver) ObserveRequest(method string, status int, duration time.Duration) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.observations = append(d.observations, observation{method, status})
}

func (d *dummyObserver) ObserveListing(items int, ok bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.listings++
}

func TestMetrics(t *testing.T) {
	observer := &dummyObserver{}

	e := echo.New()
	e.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	e.Use(NewWithConfig(Config{
		Observer: observer,
	}))

	e.GET("/ok", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.GET("/missing", func(c echo.Context) error {
		return api.Err(http.StatusNotFound, "")
	})

	for _, path := range []string{"/ok", "/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, []observation{
		{http.MethodGet, http.StatusOK},
		{http.MethodGet, http.StatusNotFound},
	}, observer.observations)
}

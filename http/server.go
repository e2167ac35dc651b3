// Package http assembles the echo routers for the directory server and for the
// metrics listener.
package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/datarhei/jsondir/content"
	"github.com/datarhei/jsondir/http/errorhandler"
	"github.com/datarhei/jsondir/http/handler"
	"github.com/datarhei/jsondir/io/fs"
	"github.com/datarhei/jsondir/listing"
	"github.com/datarhei/jsondir/log"
	"github.com/datarhei/jsondir/prometheus"
	timesrc "github.com/datarhei/jsondir/time"

	httplog "github.com/datarhei/jsondir/http/log"
	mwcors "github.com/datarhei/jsondir/http/middleware/cors"
	mwlog "github.com/datarhei/jsondir/http/middleware/log"
	mwmetrics "github.com/datarhei/jsondir/http/middleware/metrics"
	mwmime "github.com/datarhei/jsondir/http/middleware/mime"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Config struct {
	Logger     log.Logger
	Filesystem fs.Filesystem
	Policy     content.Policy
	Clock      timesrc.Source
	Metrics    prometheus.HTTPObserver
}

type Server interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

type server struct {
	logger log.Logger

	handler struct {
		directory *handler.DirectoryHandler
	}

	middleware struct {
		log     echo.MiddlewareFunc
		metrics echo.MiddlewareFunc
		cors    echo.MiddlewareFunc
		mime    echo.MiddlewareFunc
	}

	router *echo.Echo
}

// NewServer returns the server for the directory listings and the files in the
// filesystem of the config.
func NewServer(config Config) (Server, error) {
	if config.Filesystem == nil {
		return nil, fmt.Errorf("no filesystem provided")
	}

	s := &server{
		logger: config.Logger,
	}

	if s.logger == nil {
		s.logger = log.New("HTTP")
	}

	if config.Policy == nil {
		config.Policy, _ = content.New(content.Config{})
	}

	builder, err := listing.NewBuilder(listing.Config{
		Filesystem: config.Filesystem,
		Clock:      config.Clock,
		Logger:     s.logger.WithComponent("Listing"),
	})
	if err != nil {
		return nil, err
	}

	s.handler.directory = handler.NewDirectory(handler.DirectoryConfig{
		Filesystem: config.Filesystem,
		Builder:    builder,
		Policy:     config.Policy,
		Metrics:    config.Metrics,
		Logger:     s.logger,
	})

	s.middleware.log = mwlog.NewWithConfig(mwlog.Config{
		Logger: s.logger,
	})

	s.middleware.metrics = mwmetrics.NewWithConfig(mwmetrics.Config{
		Observer: config.Metrics,
	})

	if middleware, err := mwcors.NewWithConfig(mwcors.DefaultConfig); err != nil {
		return nil, err
	} else {
		s.middleware.cors = middleware
	}

	s.middleware.mime = mwmime.NewWithConfig(mwmime.Config{
		Policy: config.Policy,
	})

	s.router = newRouter(s.logger)
	s.router.Use(s.middleware.log)
	s.router.Use(recoverMiddleware(s.logger))
	s.router.Use(s.middleware.metrics)
	s.router.Use(s.middleware.cors)
	s.router.Use(s.middleware.mime)

	s.setRoutes()

	return s, nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) setRoutes() {
	s.router.GET("/*", s.handler.directory.Get)
	s.router.HEAD("/*", s.handler.directory.Get)
	s.router.OPTIONS("/*", s.handler.directory.Options)
}

type MetricsConfig struct {
	Logger     log.Logger
	Prometheus prometheus.Reader
}

type metricsServer struct {
	router *echo.Echo
}

// NewMetricsServer returns the server for the /metrics and /ping endpoints.
func NewMetricsServer(config MetricsConfig) (Server, error) {
	if config.Prometheus == nil {
		return nil, fmt.Errorf("no metrics provided")
	}

	logger := config.Logger
	if logger == nil {
		logger = log.New("Metrics")
	}

	metrics := handler.NewPrometheus(config.Prometheus.HTTPHandler())
	ping := handler.NewPing()

	s := &metricsServer{
		router: newRouter(logger),
	}

	s.router.Use(recoverMiddleware(logger))

	s.router.GET("/metrics", metrics.Metrics)
	s.router.GET("/ping", ping.Ping)

	return s, nil
}

func (s *metricsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func newRouter(logger log.Logger) *echo.Echo {
	router := echo.New()
	router.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	router.HideBanner = true
	router.HidePort = true
	router.Logger.SetOutput(httplog.NewWrapper(logger.Debug()))

	return router
}

func recoverMiddleware(logger log.Logger) echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			rows := strings.Split(string(stack), "\n")
			logger.Error().WithError(err).WithField("stack", rows).Log("Recovered from a panic")
			return err
		},
	})
}

package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	golog "log"
	"net"
	gohttp "net/http"
	"strings"
	"sync"
	"time"

	"github.com/datarhei/jsondir/app"
	"github.com/datarhei/jsondir/config"
	configvars "github.com/datarhei/jsondir/config/vars"
	"github.com/datarhei/jsondir/content"
	"github.com/datarhei/jsondir/http"
	"github.com/datarhei/jsondir/io/fs"
	"github.com/datarhei/jsondir/log"
	"github.com/datarhei/jsondir/prometheus"
	"github.com/datarhei/jsondir/psutil"
	"github.com/datarhei/jsondir/readiness"
	timesrc "github.com/datarhei/jsondir/time"

	"github.com/google/gops/agent"
	"go.uber.org/automaxprocs/maxprocs"
)

// The API interface is the implementation for the directory server.
type API interface {
	// Start starts the API. This is blocking until the app has
	// been ended with Stop() or Destroy(). In this case a nil error
	// is returned.
	Start(ctx context.Context) error

	// Stop stops the API.
	Stop()

	// Destroy is the same as Stop() and closes the log files.
	Destroy()

	// Address returns the address the server is listening on. It is
	// empty if the server isn't running.
	Address() string
}

// ErrTLSConfiguration is returned if the certificate or the key can't be loaded.
var ErrTLSConfiguration = errors.New("invalid TLS configuration")

type api struct {
	mainserver    *gohttp.Server
	sidecarserver *gohttp.Server
	prom          prometheus.Metrics

	address string

	errorChan chan error
	cancel    context.CancelFunc

	log struct {
		writer io.Writer
		output log.Writer
		logger struct {
			core      log.Logger
			main      log.Logger
			sidecar   log.Logger
			readiness log.Logger
		}
	}

	config *config.Config
	clock  timesrc.Source

	lock   sync.Mutex
	wgStop sync.WaitGroup
	state  string

	undoMaxprocs func()
}

// New returns a new instance of the API interface for the given configuration.
// The configuration is validated and all messages are logged. Log messages are
// written to logwriter and to the daily log file.
func New(cfg *config.Config, logwriter io.Writer) (API, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration provided")
	}

	a := &api{
		state:  "idle",
		config: cfg,
		clock:  &timesrc.StdSource{},
	}

	a.log.writer = logwriter

	if a.log.writer == nil {
		a.log.writer = io.Discard
	}

	a.errorChan = make(chan error, 1)

	cfg.Validate(true)

	loglevel := cfg.LogLevel()

	writers := []log.Writer{
		log.NewConsoleWriter(a.log.writer, loglevel, true),
	}

	var fileErr error

	if len(cfg.Log.Dir) != 0 {
		w, err := log.NewFileWriter(cfg.Log.Dir, cfg.Log.FilePattern, loglevel)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, w)
		}
	}

	a.log.output = log.NewMultiWriter(writers...)

	logger := log.New("Core").WithOutput(a.log.output)

	if fileErr != nil {
		logger.Warn().WithError(fileErr).WithField("dir", cfg.Log.Dir).Log("Logging to file disabled")
	}

	logfields := log.Fields{
		"application": app.Name,
		"version":     app.Version.String(),
		"arch":        app.Arch,
		"compiler":    app.Compiler,
	}

	if len(app.Commit) != 0 && len(app.Branch) != 0 {
		logfields["commit"] = app.Commit
		logfields["branch"] = app.Branch
	}

	if len(app.Build) != 0 {
		logfields["build"] = app.Build
	}

	logger.Info().WithFields(logfields).Log("")

	configlogger := logger.WithComponent("Config")
	cfg.Messages(func(level string, v configvars.Variable, message string) {
		configlogger := configlogger.WithFields(log.Fields{
			"variable":    v.Name,
			"value":       v.Value,
			"env":         v.EnvName,
			"description": v.Description,
			"override":    v.Source,
		})

		switch level {
		case "warn":
			configlogger.Warn().Log(message)
		case "error":
			configlogger.Error().WithField("error", message).Log("")
		default:
			configlogger.Debug().Log(message)
		}
	})

	if cfg.HasErrors() {
		logger.Error().WithField("error", "Not all variables are set or are valid. Check the error messages above. Bailing out.").Log("")
		logger.Close()
		return nil, fmt.Errorf("not all variables are set or valid")
	}

	a.log.logger.core = logger
	a.log.logger.main = logger.WithComponent("HTTP")
	a.log.logger.sidecar = logger.WithComponent("Metrics").WithField("address", cfg.Metrics.Address)
	a.log.logger.readiness = logger.WithComponent("Readiness")

	return a, nil
}

func (a *api) waitReady(ctx context.Context) error {
	cfg := a.config

	if cfg.Readiness.Skip {
		a.log.logger.readiness.Info().Log("Check skipped")
		return nil
	}

	pattern, err := cfg.ReadinessPattern()
	if err != nil {
		return fmt.Errorf("invalid readiness pattern: %w", err)
	}

	gate, err := readiness.New(readiness.Config{
		Attempts: cfg.Readiness.Attempts,
		Interval: cfg.ReadinessInterval(),
		Check:    readiness.ProcessCheck(pattern, psutil.New()),
		Clock:    a.clock,
		Logger:   a.log.logger.readiness.WithField("pattern", pattern.String()),
	})
	if err != nil {
		return err
	}

	return gate.Wait(ctx)
}

func (a *api) listen() (net.Listener, error) {
	cfg := a.config

	var tlsConfig *tls.Config

	if len(cfg.TLS.CertFile) != 0 {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.KeyFile())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTLSConfiguration, err)
		}

		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("unable to listen on %s: %w", cfg.Address, err)
	}

	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	return ln, nil
}

func (a *api) start(ctx context.Context) error {
	a.lock.Lock()

	if a.errorChan == nil {
		a.errorChan = make(chan error, 1)
	}

	if a.state != "idle" {
		a.lock.Unlock()
		return fmt.Errorf("already running")
	}

	a.state = "starting"

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	cfg := a.config

	if cfg.Debug.AutoMaxProcs {
		undoMaxprocs, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			format = strings.TrimPrefix(format, "maxprocs: ")
			a.log.logger.core.Debug().Log(format, args...)
		}))
		if err != nil {
			a.log.logger.core.Warn().Log("%s", err.Error())
		}

		a.undoMaxprocs = undoMaxprocs
	}

	if len(cfg.Debug.AgentAddress) != 0 {
		if err := agent.Listen(agent.Options{
			Addr:                   cfg.Debug.AgentAddress,
			ReuseSocketAddrAndPort: true,
		}); err != nil {
			a.log.logger.core.Error().WithError(err).Log("")
		}
	}

	a.lock.Unlock()

	// The readiness check may take a long time. Stop() cancels it.
	if err := a.waitReady(ctx); err != nil {
		return fmt.Errorf("server not ready: %w", err)
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if a.state != "starting" {
		return fmt.Errorf("stopped while starting")
	}

	filesystem, err := fs.NewRootedDiskFilesystem(fs.RootedDiskConfig{
		Root: cfg.Root,
	})
	if err != nil {
		return fmt.Errorf("unable to serve directory: %w", err)
	}

	policy, err := content.New(content.Config{
		MimeTypesFile: cfg.Storage.MimeTypes,
	})
	if err != nil {
		a.log.logger.core.Warn().WithError(err).Log("Using built-in mime types only")
	}

	a.prom = prometheus.New()

	collector := prometheus.NewHTTPCollector(cfg.Name)
	a.prom.Register(collector)
	a.prom.Register(prometheus.NewUptimeCollector(cfg.Name, a.clock))

	mainserverhandler, err := http.NewServer(http.Config{
		Logger:     a.log.logger.main,
		Filesystem: filesystem,
		Policy:     policy,
		Clock:      a.clock,
		Metrics:    collector,
	})
	if err != nil {
		return fmt.Errorf("unable to create server: %w", err)
	}

	ln, err := a.listen()
	if err != nil {
		return err
	}

	a.address = ln.Addr().String()

	scheme := "http"
	if len(cfg.TLS.CertFile) != 0 {
		scheme = "https"
	}

	a.log.logger.main = a.log.logger.main.WithFields(log.Fields{
		"address": a.address,
		"scheme":  scheme,
		"root":    filesystem.Root(),
	})

	var wgStart sync.WaitGroup

	sendError := func(err error) {
		select {
		case a.errorChan <- err:
		default:
		}
	}

	a.mainserver = &gohttp.Server{
		Handler:           mainserverhandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          golog.New(a.log.logger.main.Debug(), "", 0),
	}

	if len(cfg.Metrics.Address) != 0 {
		sidecarserverhandler, err := http.NewMetricsServer(http.MetricsConfig{
			Logger:     a.log.logger.sidecar,
			Prometheus: a.prom,
		})
		if err != nil {
			ln.Close()
			return fmt.Errorf("unable to create metrics server: %w", err)
		}

		a.sidecarserver = &gohttp.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           sidecarserverhandler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
			ErrorLog:          golog.New(a.log.logger.sidecar.Debug(), "", 0),
		}

		wgStart.Add(1)
		a.wgStop.Add(1)

		go func() {
			logger := a.log.logger.sidecar
			defer func() {
				logger.Info().Log("Sidecar server exited")
				a.wgStop.Done()
			}()

			wgStart.Done()

			logger.Info().Log("Sidecar server started")

			err := a.sidecarserver.ListenAndServe()
			if err != nil && err != gohttp.ErrServerClosed {
				err = fmt.Errorf("metrics server: %w", err)
			} else {
				err = nil
			}

			sendError(err)
		}()
	}

	wgStart.Add(1)
	a.wgStop.Add(1)

	go func() {
		logger := a.log.logger.main

		defer func() {
			logger.Info().Log("Server exited")
			a.wgStop.Done()
		}()

		wgStart.Done()

		logger.Info().Log("Server started")

		err := a.mainserver.Serve(ln)
		if err != nil && err != gohttp.ErrServerClosed {
			err = fmt.Errorf("%s server: %w", strings.ToUpper(scheme), err)
		} else {
			err = nil
		}

		sendError(err)
	}()

	// Wait for all servers to be started
	wgStart.Wait()

	a.state = "running"

	return nil
}

func (a *api) Start(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.stop()
		return err
	}

	// Block until there's an error from the servers
	err := <-a.errorChan

	return err
}

func (a *api) Address() string {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.address
}

func (a *api) stop() {
	a.lock.Lock()
	defer a.lock.Unlock()

	logger := a.log.logger.core.WithField("action", "shutdown")

	if a.state == "idle" {
		logger.Info().Log("Complete")
		return
	}

	// Abort a pending readiness check
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	// Shutdown the HTTP/S mainserver
	if a.mainserver != nil {
		logger := a.log.logger.main
		logger.Info().Log("Stopping ...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mainserver.Shutdown(ctx); err != nil {
			logger.Error().WithError(err).Log("")
		}

		a.mainserver = nil
	}

	// Shutdown the metrics sidecar server
	if a.sidecarserver != nil {
		logger := a.log.logger.sidecar

		logger.Info().Log("Stopping ...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.sidecarserver.Shutdown(ctx); err != nil {
			logger.Error().WithError(err).Log("")
		}

		a.sidecarserver = nil
	}

	// Unregister all collectors
	if a.prom != nil {
		a.prom.UnregisterAll()
		a.prom = nil
	}

	// Stop gops agent
	agent.Close()

	// Wait for all server goroutines to exit
	logger.Info().Log("Waiting for all servers to stop ...")
	a.wgStop.Wait()

	// Drain error channel
	if a.errorChan != nil {
		close(a.errorChan)
		a.errorChan = nil
	}

	a.address = ""
	a.state = "idle"

	if a.undoMaxprocs != nil {
		a.undoMaxprocs()
		a.undoMaxprocs = nil
	}

	logger.Info().Log("Complete")
}

func (a *api) Stop() {
	a.log.logger.core.Info().Log("Shutdown requested ...")
	a.stop()
}

func (a *api) Destroy() {
	a.Stop()

	a.log.logger.core.Close()
}

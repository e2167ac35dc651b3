// Package readiness delays the start of the server until an external
// precondition is met, e.g. until the process that syncs the served directory
// is running.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/datarhei/jsondir/log"
	"github.com/datarhei/jsondir/psutil"
	timesrc "github.com/datarhei/jsondir/time"
)

// ErrExhausted is returned if the precondition hasn't been met within the configured attempts.
var ErrExhausted = errors.New("readiness check exhausted")

// Check reports whether the precondition is met. The returned string describes
// what has been found. An error counts as not ready.
type Check func(ctx context.Context) (bool, string, error)

// Config is the configuration for a Gate.
type Config struct {
	Attempts int           // Number of checks, at least 1
	Interval time.Duration // Time between two checks
	Check    Check
	Clock    timesrc.Source
	Logger   log.Logger
}

// Gate blocks until a check succeeds.
type Gate interface {
	// Wait runs the check until it succeeds, the attempts are exhausted, or the
	// context is canceled.
	Wait(ctx context.Context) error
}

type gate struct {
	attempts int
	interval time.Duration
	check    Check
	clock    timesrc.Source
	logger   log.Logger
}

// New returns a new Gate.
func New(config Config) (Gate, error) {
	if config.Check == nil {
		return nil, fmt.Errorf("no check provided")
	}

	if config.Attempts < 1 {
		return nil, fmt.Errorf("the number of attempts must be at least 1")
	}

	if config.Interval < 0 {
		return nil, fmt.Errorf("the interval must not be negative")
	}

	g := &gate{
		attempts: config.Attempts,
		interval: config.Interval,
		check:    config.Check,
		clock:    config.Clock,
		logger:   config.Logger,
	}

	if g.clock == nil {
		g.clock = &timesrc.StdSource{}
	}

	if g.logger == nil {
		g.logger = log.New("")
	}

	return g, nil
}

func (g *gate) Wait(ctx context.Context) error {
	for attempt := 1; attempt <= g.attempts; attempt++ {
		logger := g.logger.WithFields(log.Fields{
			"attempt":  attempt,
			"attempts": g.attempts,
		})

		ok, found, err := g.check(ctx)
		if err != nil {
			logger.Warn().WithError(err).Log("Check failed")
		} else if ok {
			logger.Info().WithField("found", found).Log("Ready")
			return nil
		} else {
			logger.Warn().Log("Not ready")
		}

		if attempt == g.attempts {
			break
		}

		logger.Info().WithField("wait_sec", g.interval.Seconds()).Log("Waiting before next check")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.clock.After(g.interval):
		}
	}

	g.logger.Error().WithField("attempts", g.attempts).Log("Not ready after all attempts")

	return ErrExhausted
}

// ProcessCheck returns a Check that succeeds if the name or the command line of any
// running process matches the pattern.
func ProcessCheck(pattern *regexp.Regexp, lister psutil.Lister) Check {
	return func(ctx context.Context) (bool, string, error) {
		procs, err := lister.Processes(ctx)
		if err != nil {
			return false, "", fmt.Errorf("listing processes failed: %w", err)
		}

		for _, p := range procs {
			if pattern.MatchString(p.Name) {
				return true, p.Name, nil
			}

			if pattern.MatchString(p.Cmdline) {
				if len(p.Name) != 0 {
					return true, p.Name, nil
				}

				return true, p.Cmdline, nil
			}
		}

		return false, "", nil
	}
}

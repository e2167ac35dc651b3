package time

import (
	"sync"
	"time"
)

// Source is a clock. Now returns the current time and After returns a channel
// that fires once the given duration has passed.
type Source interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type StdSource struct{}

func (s *StdSource) Now() time.Time {
	return time.Now()
}

func (s *StdSource) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// TestSource is a manual clock. After advances the clock by the requested
// duration and fires immediately.
type TestSource struct {
	N time.Time

	lock  sync.Mutex
	waits []time.Duration
}

func (t *TestSource) Now() time.Time {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.N
}

func (t *TestSource) Set(sec int64, nsec int64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.N = time.Unix(sec, nsec)
}

func (t *TestSource) After(d time.Duration) <-chan time.Time {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.N = t.N.Add(d)
	t.waits = append(t.waits, d)

	c := make(chan time.Time, 1)
	c <- t.N

	return c
}

// Waits returns the durations that have been waited for with After.
func (t *TestSource) Waits() []time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	waits := make([]time.Duration, len(t.waits))
	copy(waits, t.waits)

	return waits
}

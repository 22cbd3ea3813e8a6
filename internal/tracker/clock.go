// Package tracker implements the stateful session timer: a per-session
// stopwatch, rehydration of in-progress sessions after a restart, and the
// store that orchestrates start/stop against the persistence layer.
package tracker

import (
	"context"
	"sync"
	"time"

	"cribtrack/backend/internal/session/domain"
)

var tickInterval = time.Second

// Elapsed is a wall-clock reading decomposed for display. Total may shrink if
// the device clock is adjusted backward; that is accepted, not corrected.
type Elapsed struct {
	Hours   int           `json:"hours"`
	Minutes int           `json:"minutes"`
	Seconds int           `json:"seconds"`
	Total   time.Duration `json:"-"`
}

// ElapsedBetween decomposes now minus start into display units. Negative
// spans decompose to zero so the display never counts backwards past zero.
func ElapsedBetween(start, now time.Time) Elapsed {
	total := now.Sub(start)
	d := total
	if d < 0 {
		d = 0
	}
	return Elapsed{
		Hours:   int(d / time.Hour),
		Minutes: int(d/time.Minute) % 60,
		Seconds: int(d/time.Second) % 60,
		Total:   total,
	}
}

// Clock tracks elapsed wall-clock time for exactly one active session.
// Callers must have confirmed no other session is active before Run.
type Clock struct {
	start time.Time
	now   func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	onTick  func(Elapsed)
}

// NewClock returns a stopped clock primed at startTime. now may be nil for
// time.Now; tests inject a fake to pin elapsed readings.
func NewClock(startTime time.Time, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{start: startTime, now: now}
}

// StartTime returns the origin instant the clock was primed with.
func (c *Clock) StartTime() time.Time {
	return c.start
}

// OnTick registers the callback invoked on each ticker cadence while the
// clock runs. Must be set before Run.
func (c *Clock) OnTick(fn func(Elapsed)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTick = fn
}

// Elapsed returns the current reading without waiting for a tick, so a
// rehydrated session shows its true elapsed time immediately, not zero.
func (c *Clock) Elapsed() Elapsed {
	return ElapsedBetween(c.start, c.now())
}

// Run begins ticking on a one-second cadence until Stop is called or ctx is
// cancelled, whichever comes first. No tick fires after either; a dangling
// ticker updating torn-down state is the defect class this guards against.
func (c *Clock) Run(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				fn := c.onTick
				c.mu.Unlock()
				if fn != nil {
					fn(c.Elapsed())
				}
			}
		}
	}()
}

// Minutes returns the finalized duration in whole minutes at now, or
// ErrInvalidDuration past the 24-hour ceiling. It does not stop the ticker;
// the caller stops only after the close has been durably written, so a failed
// write leaves the session visibly running.
func (c *Clock) Minutes(now time.Time) (int, error) {
	return domain.DurationBetween(c.start, now)
}

// Stop cancels the ticker and waits for the loop to exit. Idempotent.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the ticker loop is live.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

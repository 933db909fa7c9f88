// Package countdown derives locally ticking countdowns from server-provided
// anchor timestamps, so per-second UI updates never wait on a round-trip.
package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Coordinator owns at most one running countdown. A new Start always
// replaces the previous one: server anchors win over accumulated local
// drift. Expiry never advances any phase; it only fires the configured
// callback and leaves the next move to the server.
type Coordinator struct {
	clock clockwork.Clock

	mu        sync.Mutex
	remaining int
	running   bool
	epoch     int

	ticks    chan int
	onExpire func()
	stopCh   chan struct{}
}

// New creates a coordinator. In production pass clockwork.NewRealClock();
// tests inject a FakeClock.
func New(clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		clock: clock,
		ticks: make(chan int, 8),
	}
}

// OnExpire registers a callback invoked once when the countdown reaches
// zero. Must be set before Start.
func (c *Coordinator) OnExpire(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpire = fn
}

// Ticks delivers the remaining whole seconds once per second. Slow
// consumers lose ticks rather than stalling the coordinator.
func (c *Coordinator) Ticks() <-chan int {
	return c.ticks
}

// Remaining reports the current remaining whole seconds.
func (c *Coordinator) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Start anchors a fresh countdown: remaining = duration - (now - startedAt),
// computed once, then decremented locally every second. Any countdown
// already running is replaced.
func (c *Coordinator) Start(startedAt time.Time, duration time.Duration) {
	c.mu.Lock()

	c.stopLocked()

	elapsed := c.clock.Since(startedAt)
	remaining := int((duration - elapsed).Round(time.Second) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	c.remaining = remaining
	c.epoch++
	epoch := c.epoch

	if remaining == 0 {
		fn := c.onExpire
		c.mu.Unlock()
		log.Debug().Time("anchor", startedAt).Msg("countdown anchor already elapsed")
		if fn != nil {
			fn()
		}
		return
	}

	c.running = true
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	c.mu.Unlock()

	c.emit(remaining)

	ticker := c.clock.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.Chan():
				c.mu.Lock()
				if c.epoch != epoch {
					c.mu.Unlock()
					return
				}
				c.remaining--
				remaining := c.remaining
				fn := c.onExpire
				if remaining <= 0 {
					c.running = false
					c.mu.Unlock()
					c.emit(0)
					if fn != nil {
						fn()
					}
					return
				}
				c.mu.Unlock()
				c.emit(remaining)
			}
		}
	}()
}

// Stop cancels any running countdown. Safe to call repeatedly.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = 0
}

func (c *Coordinator) stopLocked() {
	if c.running {
		close(c.stopCh)
		c.running = false
	}
	c.epoch++
}

func (c *Coordinator) emit(remaining int) {
	select {
	case c.ticks <- remaining:
	default:
	}
}

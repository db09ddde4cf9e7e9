package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/instaaid/ride-tracker/internal/models"
	"github.com/instaaid/ride-tracker/internal/observability"
)

// Countdown tracks the fixed no-driver window for a searching ride.
// Remaining time is always derived from the ride's server-recorded
// creation timestamp, never from a local start instant, so process
// restarts and backgrounding cannot stretch the window. Expiry is
// edge-triggered: it fires exactly once per searching episode.
type Countdown struct {
	timeout time.Duration
	tick    time.Duration
	now     func() time.Time

	// OnExpire is invoked once when the window elapses. Set it before
	// the countdown first observes a searching ride.
	OnExpire func()

	mu        sync.Mutex
	active    bool
	expired   bool
	createdAt time.Time
	cancel    context.CancelFunc
}

func NewCountdown(timeout, tick time.Duration) *Countdown {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if tick <= 0 {
		tick = time.Second
	}
	return &Countdown{timeout: timeout, tick: tick, now: time.Now}
}

// Observe feeds the countdown the latest ride state. Searching with a
// valid creation timestamp arms the window; anything else resets it
// to the full window, ready for a different ride on the same screen.
func (c *Countdown) Observe(status models.RideStatus, createdAt time.Time) {
	if status == models.StatusSearching && !createdAt.IsZero() {
		c.arm(createdAt)
		return
	}
	c.Deactivate()
}

// Active reports whether the window is currently counting down.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Expired reports whether the current searching episode has elapsed.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Remaining is the time left in the window. It is never negative,
// reads as the full window while the countdown is disarmed, and is
// pinned at zero after expiry.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return 0
	}
	if !c.active {
		return c.timeout
	}
	return c.remainingLocked()
}

func (c *Countdown) remainingLocked() time.Duration {
	r := c.timeout - c.now().Sub(c.createdAt)
	if r < 0 {
		return 0
	}
	return r
}

func (c *Countdown) arm(createdAt time.Time) {
	c.mu.Lock()
	if (c.active || c.expired) && c.createdAt.Equal(createdAt) {
		// already armed (or already fired) for this episode
		c.mu.Unlock()
		return
	}
	// a different searching ride: restart cleanly
	c.resetLocked()
	c.createdAt = createdAt

	if c.timeout-c.now().Sub(createdAt) <= 0 {
		// window already elapsed (e.g. app reopened late): skip the
		// countdown and signal immediately
		c.expired = true
		c.mu.Unlock()
		c.fire()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.active = true
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
}

func (c *Countdown) run(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.active {
				c.mu.Unlock()
				return
			}
			if c.remainingLocked() > 0 {
				c.mu.Unlock()
				continue
			}
			c.active = false
			c.expired = true
			cancel := c.cancel
			c.cancel = nil
			c.mu.Unlock()
			if cancel != nil {
				cancel()
			}
			c.fire()
			return
		}
	}
}

// Deactivate stops the countdown and restores the full window. Called
// when a driver is found, the ride terminates, or tracking stops.
func (c *Countdown) Deactivate() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Countdown) resetLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.active = false
	c.expired = false
	c.createdAt = time.Time{}
}

func (c *Countdown) fire() {
	observability.NoDriverExpiries.Inc()
	if c.OnExpire != nil {
		c.OnExpire()
	}
}

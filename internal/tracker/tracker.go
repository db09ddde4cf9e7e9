// Package tracker polls a ride resource and derives the state the
// tracking screen renders: current status, the driver marker, and an
// error overlay. Polling is an explicit state machine (idle, polling,
// stopped) instead of ad hoc timer wiring.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/instaaid/ride-tracker/internal/backend"
	"github.com/instaaid/ride-tracker/internal/models"
	"github.com/instaaid/ride-tracker/internal/observability"
)

// Fetcher is the single backend operation the tracker needs.
type Fetcher interface {
	FetchRide(ctx context.Context, rideID string) (*models.Ride, error)
}

// State of the polling machine.
type State int

const (
	// Idle: constructed, not yet started.
	Idle State = iota
	// Polling: fetching on the configured interval.
	Polling
	// Stopped: terminal; either the ride completed or Stop was called.
	// A stopped tracker never issues another fetch.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Update is delivered to the subscriber whenever the derived view
// state meaningfully changes. Err is an overlay, not a terminal
// condition: the poller keeps retrying on the next tick.
type Update struct {
	Ride           *models.Ride
	Status         models.RideStatus
	DriverLocation *models.LatLng
	Err            string
}

// Config tunes the tracker. Zero values pick the production defaults.
type Config struct {
	PollInterval    time.Duration // default 15s
	NoDriverTimeout time.Duration // default 10m
	CountdownTick   time.Duration // default 1s
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.NoDriverTimeout <= 0 {
		c.NoDriverTimeout = 10 * time.Minute
	}
	if c.CountdownTick <= 0 {
		c.CountdownTick = time.Second
	}
	return c
}

// Tracker owns the poll loop and the no-driver countdown for one ride.
type Tracker struct {
	fetcher Fetcher
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time

	// OnUpdate receives derived state changes. OnTransition receives
	// observed status transitions (fed to the telemetry publisher).
	// Both may be nil and must be set before Start.
	OnUpdate     func(Update)
	OnTransition func(models.StatusEvent)

	countdown *Countdown

	mu      sync.Mutex
	state   State
	rideID  string
	ride    *models.Ride
	status  models.RideStatus
	drvLoc  *models.LatLng
	errMsg  string
	cancel  context.CancelFunc
	stopped chan struct{}
}

func New(fetcher Fetcher, cfg Config, logger *slog.Logger) *Tracker {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		state:   Idle,
		status:  models.StatusSearching,
	}
	t.countdown = NewCountdown(cfg.NoDriverTimeout, cfg.CountdownTick)
	return t
}

// Countdown exposes the no-driver countdown for the ride.
func (t *Tracker) NoDriver() *Countdown { return t.countdown }

// State returns the polling machine state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Current returns the latest derived view state.
func (t *Tracker) Current() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Update{Ride: t.ride, Status: t.status, DriverLocation: t.drvLoc, Err: t.errMsg}
}

// Start begins tracking a ride: one immediate fetch, then a fetch per
// interval while the status is non-terminal. Calling Start on a
// non-idle tracker is a no-op.
func (t *Tracker) Start(ctx context.Context, rideID string) error {
	if rideID == "" {
		return errors.New("no ride id provided")
	}
	t.mu.Lock()
	if t.state != Idle {
		t.mu.Unlock()
		return errors.New("tracker already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	t.state = Polling
	t.rideID = rideID
	t.cancel = cancel
	t.stopped = make(chan struct{})
	t.mu.Unlock()

	go t.loop(ctx)
	return nil
}

// Stop cancels the poll loop and the countdown. It does not block on
// an in-flight fetch; a late result is discarded because the state
// check under the lock sees Stopped.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.state == Stopped {
		t.mu.Unlock()
		return
	}
	t.state = Stopped
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.countdown.Deactivate()
}

// Done is closed when the poll loop has fully exited.
func (t *Tracker) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *Tracker) loop(ctx context.Context) {
	defer close(t.stopped)
	defer t.countdown.Deactivate()

	t.poll(ctx)

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			state, status := t.state, t.status
			t.mu.Unlock()
			if state == Stopped {
				return
			}
			if !status.Active() {
				continue
			}
			t.poll(ctx)
			if t.State() == Stopped {
				return
			}
		}
	}
}

func (t *Tracker) poll(ctx context.Context) {
	observability.RidePollsTotal.Inc()
	ride, err := t.fetcher.FetchRide(ctx, t.rideID)
	if err != nil {
		observability.RidePollErrors.Inc()
		t.applyError(err)
		return
	}
	t.applyRide(ride)
}

// applyError surfaces a user-visible message without stopping the
// machine; the next tick retries. A 401 is called out so the screen
// can offer re-authentication, but nothing is done automatically.
func (t *Tracker) applyError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	msg := "failed to fetch ride details: " + err.Error()
	if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrNoToken) {
		msg = err.Error()
	}
	t.logger.Warn("ride poll failed", "ride_id", t.rideID, "error", err)

	t.mu.Lock()
	if t.state == Stopped {
		t.mu.Unlock()
		return
	}
	changed := t.errMsg != msg
	t.errMsg = msg
	update := Update{Ride: t.ride, Status: t.status, DriverLocation: t.drvLoc, Err: t.errMsg}
	t.mu.Unlock()

	if changed {
		t.notify(update)
	}
}

func (t *Tracker) applyRide(fetched *models.Ride) {
	status := fetched.Status
	if !models.KnownStatus(status) {
		t.logger.Warn("invalid ride status received", "ride_id", t.rideID, "status", string(status))
		status = models.StatusSearching
	}
	drvLoc := resolveDriverLocation(fetched, status)

	t.mu.Lock()
	if t.state == Stopped {
		// unmounted while the fetch was in flight; drop the result
		t.mu.Unlock()
		return
	}
	prev := t.ride
	prevStatus := t.status
	changed := rideChanged(fetched, prev) || t.errMsg != ""
	if changed {
		t.ride = fetched
	}
	t.status = status
	t.drvLoc = drvLoc
	t.errMsg = ""
	if status.Terminal() {
		t.state = Stopped
	}
	update := Update{Ride: t.ride, Status: t.status, DriverLocation: t.drvLoc}
	cancel := t.cancel
	t.mu.Unlock()

	t.countdown.Observe(status, fetched.CreatedAt)

	if prevStatus != status {
		observability.StatusChanges.WithLabelValues(string(status)).Inc()
		t.transition(models.StatusEvent{
			RideID:     t.rideID,
			From:       prevStatus,
			To:         status,
			DriverID:   driverID(fetched),
			ObservedAt: t.now(),
		})
	}
	if changed || prevStatus != status {
		t.notify(update)
	}
	if status.Terminal() && cancel != nil {
		t.logger.Info("ride completed, stopping tracking updates", "ride_id", t.rideID)
		cancel()
	}
}

func (t *Tracker) notify(u Update) {
	if t.OnUpdate != nil {
		t.OnUpdate(u)
	}
}

func (t *Tracker) transition(e models.StatusEvent) {
	if t.OnTransition != nil {
		t.OnTransition(e)
	}
}

func driverID(r *models.Ride) string {
	if r == nil || r.Driver == nil {
		return ""
	}
	return r.Driver.ID
}

// resolveDriverLocation applies the documented fallback chain:
// explicit driver live location, then the ride's pickup coordinates
// as a static proxy, then nothing. The backend does not stream real
// driver GPS yet, so the pickup proxy is a known approximation to
// preserve, not a gap to fill.
func resolveDriverLocation(r *models.Ride, status models.RideStatus) *models.LatLng {
	if r.Driver == nil || r.Driver.ID == "" {
		return nil
	}
	if status != models.StatusStart && status != models.StatusArrived {
		return nil
	}
	candidates := []*models.LatLng{
		r.Driver.Location,
		{Latitude: r.Pickup.Latitude, Longitude: r.Pickup.Longitude},
	}
	for _, c := range candidates {
		if c != nil && c.Valid() {
			loc := *c
			return &loc
		}
	}
	return nil
}

// rideChanged compares only the fields the screen cares about, so an
// unrelated server-side touch (updatedAt and friends) does not force
// a re-render.
func rideChanged(fetched, prev *models.Ride) bool {
	if prev == nil {
		return true
	}
	if fetched.Status != prev.Status {
		return true
	}
	if !fetched.CreatedAt.Equal(prev.CreatedAt) {
		return true
	}
	if driverID(fetched) != driverID(prev) {
		return true
	}
	if proxyLat(fetched) != proxyLat(prev) || proxyLng(fetched) != proxyLng(prev) {
		return true
	}
	if fetched.Drop.Latitude != prev.Drop.Latitude || fetched.Drop.Longitude != prev.Drop.Longitude {
		return true
	}
	return false
}

func proxyLat(r *models.Ride) float64 {
	if r.Driver != nil && r.Driver.Location != nil {
		return r.Driver.Location.Latitude
	}
	return r.Pickup.Latitude
}

func proxyLng(r *models.Ride) float64 {
	if r.Driver != nil && r.Driver.Location != nil {
		return r.Driver.Location.Longitude
	}
	return r.Pickup.Longitude
}

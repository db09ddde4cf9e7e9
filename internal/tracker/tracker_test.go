package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/instaaid/ride-tracker/internal/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	rides []*models.Ride // served in order; last one repeats
	calls int
}

func (f *fakeFetcher) FetchRide(ctx context.Context, rideID string) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := f.calls - 1
	if i >= len(f.rides) {
		i = len(f.rides) - 1
	}
	return f.rides[i], nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ride(status models.RideStatus) *models.Ride {
	return &models.Ride{
		ID:        "r1",
		Status:    status,
		Pickup:    models.Location{Latitude: 12.90, Longitude: 77.59},
		Drop:      models.Location{Latitude: 12.95, Longitude: 77.60},
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPollingStopsOnCompleted(t *testing.T) {
	f := &fakeFetcher{rides: []*models.Ride{ride(models.StatusSearching), ride(models.StatusCompleted)}}
	tr := New(f, Config{PollInterval: 10 * time.Millisecond}, nil)
	if err := tr.Start(context.Background(), "r1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop after completed status")
	}
	calls := f.callCount()
	if calls != 2 {
		t.Fatalf("expected 2 fetches (initial + completed), got %d", calls)
	}
	// several interval periods later, still no further fetches
	time.Sleep(50 * time.Millisecond)
	if got := f.callCount(); got != calls {
		t.Fatalf("fetches continued after terminal status: %d -> %d", calls, got)
	}
	if tr.State() != Stopped {
		t.Fatalf("state = %s, want stopped", tr.State())
	}
}

func TestChangeDetectionIgnoresUnrelatedFields(t *testing.T) {
	tr := New(nil, Config{}, nil)
	tr.state = Polling
	tr.rideID = "r1"
	defer tr.countdown.Deactivate()

	var updates int
	tr.OnUpdate = func(Update) { updates++ }

	first := ride(models.StatusSearching)
	tr.applyRide(first)
	if updates != 1 {
		t.Fatalf("expected initial update, got %d", updates)
	}

	// identical except for a server-side touch
	second := *first
	second.UpdatedAt = first.UpdatedAt.Add(time.Minute)
	tr.applyRide(&second)
	if updates != 1 {
		t.Fatalf("unrelated field change triggered an update: %d", updates)
	}

	third := *first
	third.Drop.Latitude += 0.01
	tr.applyRide(&third)
	if updates != 2 {
		t.Fatalf("drop coordinate change should update, got %d", updates)
	}
}

func TestStatusTransitionEvent(t *testing.T) {
	tr := New(nil, Config{}, nil)
	tr.state = Polling
	tr.rideID = "r1"
	defer tr.countdown.Deactivate()

	var events []models.StatusEvent
	tr.OnTransition = func(e models.StatusEvent) { events = append(events, e) }

	tr.applyRide(ride(models.StatusSearching))
	started := ride(models.StatusStart)
	started.Driver = &models.Driver{ID: "d9"}
	tr.applyRide(started)

	if len(events) != 1 {
		t.Fatalf("expected 1 transition event, got %d", len(events))
	}
	e := events[0]
	if e.From != models.StatusSearching || e.To != models.StatusStart || e.DriverID != "d9" {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestDriverLocationResolutionChain(t *testing.T) {
	live := &models.LatLng{Latitude: 12.91, Longitude: 77.58}

	withLive := ride(models.StatusStart)
	withLive.Driver = &models.Driver{ID: "d1", Location: live}
	if got := resolveDriverLocation(withLive, models.StatusStart); got == nil || *got != *live {
		t.Fatalf("expected live location, got %+v", got)
	}

	// no live fix: pickup is the documented static proxy
	proxy := ride(models.StatusArrived)
	proxy.Driver = &models.Driver{ID: "d1"}
	got := resolveDriverLocation(proxy, models.StatusArrived)
	if got == nil || got.Latitude != proxy.Pickup.Latitude || got.Longitude != proxy.Pickup.Longitude {
		t.Fatalf("expected pickup proxy, got %+v", got)
	}

	// searching or driverless rides resolve to nothing
	searching := ride(models.StatusSearching)
	searching.Driver = &models.Driver{ID: "d1"}
	if got := resolveDriverLocation(searching, models.StatusSearching); got != nil {
		t.Fatalf("expected nil while searching, got %+v", got)
	}
	if got := resolveDriverLocation(ride(models.StatusStart), models.StatusStart); got != nil {
		t.Fatalf("expected nil without driver, got %+v", got)
	}
}

func TestUnknownStatusDefaultsToSearching(t *testing.T) {
	tr := New(nil, Config{}, nil)
	tr.state = Polling
	tr.rideID = "r1"
	defer tr.countdown.Deactivate()

	weird := ride(models.RideStatus("HALF_WAY"))
	tr.applyRide(weird)
	if tr.Current().Status != models.StatusSearching {
		t.Fatalf("status = %s, want searching fallback", tr.Current().Status)
	}
}

func TestLateResultDroppedAfterStop(t *testing.T) {
	tr := New(nil, Config{}, nil)
	tr.state = Polling
	tr.rideID = "r1"

	var updates int
	tr.OnUpdate = func(Update) { updates++ }
	tr.Stop()
	tr.applyRide(ride(models.StatusSearching))
	if updates != 0 {
		t.Fatalf("stopped tracker applied a late result: %d updates", updates)
	}
}

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/instaaid/ride-tracker/internal/models"
)

// fakeSink implements StatusSink for tests
type fakeSink struct {
	fail  int // number of times to fail before succeeding
	calls int
	last  map[string]interface{}
	key   string
}

func (f *fakeSink) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("hset fail")
	}
	f.key = key
	f.last = values
	return nil
}

func event() models.StatusEvent {
	return models.StatusEvent{
		RideID:     "r1",
		From:       models.StatusSearching,
		To:         models.StatusStart,
		DriverID:   "d7",
		ObservedAt: time.Now(),
	}
}

func TestMirrorStatusSucceedsAfterRetries(t *testing.T) {
	f := &fakeSink{fail: 2}
	start := time.Now()
	if err := mirrorStatusWithRetry(context.Background(), f, event(), 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected retries, got %d calls", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.key != "ride:status:r1" || f.last["status"] != "START" || f.last["driver_id"] != "d7" {
		t.Fatalf("unexpected write key=%s values=%v", f.key, f.last)
	}
}

func TestMirrorStatusFailsWhenExhausted(t *testing.T) {
	f := &fakeSink{fail: 5}
	if err := mirrorStatusWithRetry(context.Background(), f, event(), 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

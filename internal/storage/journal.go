// Package storage records the status history of tracked rides.
package storage

import (
	"context"
	"sync"

	"github.com/instaaid/ride-tracker/internal/models"
)

// Journal persists status transitions for later inspection.
type Journal interface {
	Record(ctx context.Context, e models.StatusEvent) error
	History(ctx context.Context, rideID string) ([]models.StatusEvent, error)
}

// MemoryJournal is the default when no database is configured.
type MemoryJournal struct {
	mu     sync.RWMutex
	events map[string][]models.StatusEvent
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{events: make(map[string][]models.StatusEvent)}
}

func (m *MemoryJournal) Record(ctx context.Context, e models.StatusEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.RideID] = append(m.events[e.RideID], e)
	return nil
}

func (m *MemoryJournal) History(ctx context.Context, rideID string) ([]models.StatusEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evs := m.events[rideID]
	out := make([]models.StatusEvent, len(evs))
	copy(out, evs)
	return out, nil
}

package httpapi

import (
	"errors"
	"log/slog"
	"sync"
)

// StatusFrame is what subscribers receive on every tracker update.
type StatusFrame struct {
	RideID           string   `json:"ride_id"`
	Status           string   `json:"status"`
	DriverID         string   `json:"driver_id,omitempty"`
	DriverLat        *float64 `json:"driver_lat,omitempty"`
	DriverLng        *float64 `json:"driver_lng,omitempty"`
	CountdownSeconds int64    `json:"countdown_seconds"`
	Error            string   `json:"error,omitempty"`
}

type wsConn interface {
	WriteJSON(v any) error
	Close() error
}

// WSSession wraps a subscriber connection; writes are serialized.
type WSSession struct {
	conn wsConn
	mu   sync.Mutex
}

func (s *WSSession) Send(f StatusFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(f)
}

// WSRegistry holds subscriber sessions keyed by ride id. A ride can
// have several watchers (the patient plus family members).
type WSRegistry struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	sessions map[string][]*WSSession
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{logger: logger, sessions: make(map[string][]*WSSession)}
}

func (r *WSRegistry) Add(rideID string, conn wsConn) *WSSession {
	s := &WSSession{conn: conn}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[rideID] = append(r.sessions[rideID], s)
	return s
}

var ErrNoSession = errors.New("no ws session")

// Broadcast sends the frame to every watcher of the ride, dropping
// sessions whose connection has gone away.
func (r *WSRegistry) Broadcast(rideID string, f StatusFrame) error {
	r.mu.RLock()
	subs := r.sessions[rideID]
	r.mu.RUnlock()
	if len(subs) == 0 {
		return ErrNoSession
	}

	var dead []*WSSession
	for _, s := range subs {
		if err := s.Send(f); err != nil {
			r.logger.Warn("ws send error", "ride_id", rideID, "error", err)
			dead = append(dead, s)
		}
	}
	if len(dead) > 0 {
		r.remove(rideID, dead)
	}
	return nil
}

func (r *WSRegistry) remove(rideID string, dead []*WSSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.sessions[rideID][:0]
	for _, s := range r.sessions[rideID] {
		drop := false
		for _, d := range dead {
			if s == d {
				drop = true
				break
			}
		}
		if drop {
			_ = s.conn.Close()
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		delete(r.sessions, rideID)
	} else {
		r.sessions[rideID] = kept
	}
}

// CloseRide drops every watcher of a ride, used when tracking ends.
func (r *WSRegistry) CloseRide(rideID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions[rideID] {
		_ = s.conn.Close()
	}
	delete(r.sessions, rideID)
}

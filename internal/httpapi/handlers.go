package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/instaaid/ride-tracker/internal/assistant"
	"github.com/instaaid/ride-tracker/internal/emergency"
	"github.com/instaaid/ride-tracker/internal/geo"
	"github.com/instaaid/ride-tracker/internal/models"
	"github.com/instaaid/ride-tracker/internal/notify"
	"github.com/instaaid/ride-tracker/internal/rebook"
	"github.com/instaaid/ride-tracker/internal/tracker"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

type bookRequest struct {
	Hospital      models.Hospital `json:"hospital"`
	AmbulanceType string          `json:"ambulance_type"`
	Pickup        models.LatLng   `json:"pickup"`
	EmergencyID   string          `json:"emergency_id"`
	EmergencyName string          `json:"emergency_name"`
	Priority      string          `json:"priority"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	if s.Rebook == nil {
		http.Error(w, "booking is not configured", http.StatusServiceUnavailable)
		return
	}
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ride, err := s.Rebook.Book(r.Context(), rebook.BookingParams{
		Hospital:      req.Hospital,
		AmbulanceType: models.AmbulanceType(req.AmbulanceType),
		Pickup:        req.Pickup,
		EmergencyID:   req.EmergencyID,
		EmergencyName: req.EmergencyName,
		Priority:      req.Priority,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"ride": ride})
}

func (s *Server) handleRecreate(w http.ResponseWriter, r *http.Request) {
	if s.Rebook == nil {
		http.Error(w, "booking is not configured", http.StatusServiceUnavailable)
		return
	}
	ride, err := s.Rebook.Recreate(r.Context())
	switch {
	case errors.Is(err, rebook.ErrNoSnapshot):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, rebook.ErrInvalidSnapshot):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"ride": ride})
}

// handleStartTracking spins up a poll loop for the ride. Tracking
// outlives the request, so the loop runs on a background context and
// stops itself when the ride completes.
func (s *Server) handleStartTracking(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]

	s.trackMu.Lock()
	if tr, ok := s.trackers[rideID]; ok && tr.State() != tracker.Stopped {
		s.trackMu.Unlock()
		s.writeJSON(w, http.StatusOK, map[string]any{"ride_id": rideID, "state": tr.State().String()})
		return
	}
	tr := tracker.New(s.Fetcher, s.trackerCfg, s.logger)
	tr.OnUpdate = func(u tracker.Update) { s.fanOutUpdate(rideID, tr, u) }
	tr.OnTransition = func(e models.StatusEvent) { s.fanOutTransition(e) }
	tr.NoDriver().OnExpire = func() { s.onNoDriverExpiry(rideID, tr) }
	s.trackers[rideID] = tr
	s.trackMu.Unlock()

	if err := tr.Start(context.Background(), rideID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	go func() {
		<-tr.Done()
		s.WSReg.CloseRide(rideID)
		s.trackMu.Lock()
		// a new tracker may have replaced this one already
		if s.trackers[rideID] == tr {
			delete(s.trackers, rideID)
		}
		s.trackMu.Unlock()
	}()
	s.writeJSON(w, http.StatusAccepted, map[string]any{"ride_id": rideID, "state": tr.State().String()})
}

func (s *Server) handleStopTracking(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	s.trackMu.Lock()
	tr, ok := s.trackers[rideID]
	s.trackMu.Unlock()
	if !ok {
		http.Error(w, "ride is not being tracked", http.StatusNotFound)
		return
	}
	tr.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	s.trackMu.Lock()
	tr, ok := s.trackers[rideID]
	s.trackMu.Unlock()
	if !ok {
		http.Error(w, "ride is not being tracked", http.StatusNotFound)
		return
	}
	u := tr.Current()
	resp := map[string]any{
		"ride_id":           rideID,
		"state":             tr.State().String(),
		"status":            string(u.Status),
		"countdown_seconds": int64(tr.NoDriver().Remaining().Seconds()),
		"countdown_expired": tr.NoDriver().Expired(),
	}
	if u.Ride != nil {
		resp["ride"] = u.Ride
	}
	if u.DriverLocation != nil {
		resp["driver_location"] = u.DriverLocation
	}
	if u.Err != "" {
		resp["error"] = u.Err
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	events, err := s.Journal.History(r.Context(), rideID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ride_id": rideID, "events": events})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if s.Routes == nil {
		http.Error(w, "route lookups are not configured", http.StatusServiceUnavailable)
		return
	}
	origin, err1 := parsePoint(r, "from_lat", "from_lng")
	dest, err2 := parsePoint(r, "to_lat", "to_lng")
	if err1 != nil || err2 != nil {
		http.Error(w, "from_lat, from_lng, to_lat and to_lng are required", http.StatusBadRequest)
		return
	}
	route := s.Routes.GetRoute(r.Context(), origin, dest)
	resp := map[string]any{
		"points":           route.Points,
		"duration_minutes": route.DurationMinutes,
		"distance_km":      route.DistanceKm,
	}
	if region, ok := geo.Viewport(route.Points...); ok {
		resp["region"] = region
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHospitals(w http.ResponseWriter, r *http.Request) {
	if s.Hospitals == nil {
		http.Error(w, "hospital search is not configured", http.StatusServiceUnavailable)
		return
	}
	near, err := parsePoint(r, "lat", "lng")
	if err != nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}
	radius := 10000
	if v := r.URL.Query().Get("radius"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			radius = n
		}
	}
	emergencyID := r.URL.Query().Get("emergency")

	hospitals, err := s.Hospitals.SearchHospitals(r.Context(), near, radius, emergencyID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	hospitals = emergency.FilterHospitals(hospitals, emergencyID)
	s.writeJSON(w, http.StatusOK, map[string]any{"hospitals": hospitals, "count": len(hospitals)})
}

type chatRequest struct {
	History []struct {
		Role string `json:"role"`
		Text string `json:"text"`
	} `json:"history"`
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.Assistant == nil {
		http.Error(w, "assistant is not configured", http.StatusServiceUnavailable)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	history := make([]assistant.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, assistant.Message{Role: m.Role, Text: m.Text})
	}
	reply, err := s.Assistant.Chat(r.Context(), history, req.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"reply": reply})
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(rideID, conn)

	// push the current state so a late joiner is not blank until the
	// next poll
	s.trackMu.Lock()
	tr, ok := s.trackers[rideID]
	s.trackMu.Unlock()
	if ok {
		_ = s.WSReg.Broadcast(rideID, frameFor(rideID, tr, tr.Current()))
	}
}

func frameFor(rideID string, tr *tracker.Tracker, u tracker.Update) StatusFrame {
	f := StatusFrame{
		RideID:           rideID,
		Status:           string(u.Status),
		CountdownSeconds: int64(tr.NoDriver().Remaining().Seconds()),
		Error:            u.Err,
	}
	if u.Ride != nil && u.Ride.Driver != nil {
		f.DriverID = u.Ride.Driver.ID
	}
	if u.DriverLocation != nil {
		f.DriverLat = &u.DriverLocation.Latitude
		f.DriverLng = &u.DriverLocation.Longitude
	}
	return f
}

func (s *Server) fanOutUpdate(rideID string, tr *tracker.Tracker, u tracker.Update) {
	if err := s.WSReg.Broadcast(rideID, frameFor(rideID, tr, u)); err != nil && !errors.Is(err, ErrNoSession) {
		s.logger.Warn("status broadcast failed", "ride_id", rideID, "error", err)
	}
}

func (s *Server) fanOutTransition(e models.StatusEvent) {
	ctx := context.Background()
	if err := s.Journal.Record(ctx, e); err != nil {
		s.logger.Warn("journal record failed", "ride_id", e.RideID, "error", err)
	}
	if s.Events != nil {
		if err := s.Events.PublishTransition(e); err != nil {
			s.logger.Warn("transition publish failed", "ride_id", e.RideID, "error", err)
		}
	}
	if s.Rebook != nil {
		s.Rebook.HandleStatus(ctx, e.RideID, e.To)
	}
	if e.From == models.StatusSearching && e.To == models.StatusStart {
		driverName := ""
		s.trackMu.Lock()
		if tr, ok := s.trackers[e.RideID]; ok {
			if u := tr.Current(); u.Ride != nil && u.Ride.Driver != nil {
				driverName = u.Ride.Driver.Name
			}
		}
		s.trackMu.Unlock()
		if err := s.Notify.Notify(ctx, notify.DriverAssignedNotice(e.RideID, driverName)); err != nil {
			s.logger.Warn("driver-assigned notice failed", "ride_id", e.RideID, "error", err)
		}
	}
}

func (s *Server) onNoDriverExpiry(rideID string, tr *tracker.Tracker) {
	ctx := context.Background()
	if s.Rebook != nil {
		s.Rebook.HandleExpiry(ctx, rideID)
	}
	if err := s.Notify.Notify(ctx, notify.NoDriverNotice(rideID)); err != nil {
		s.logger.Warn("no-driver notice failed", "ride_id", rideID, "error", err)
	}
	f := frameFor(rideID, tr, tr.Current())
	f.CountdownSeconds = 0
	_ = s.WSReg.Broadcast(rideID, f)
}

func parsePoint(r *http.Request, latKey, lngKey string) (models.LatLng, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get(latKey), 64)
	if err != nil {
		return models.LatLng{}, err
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get(lngKey), 64)
	if err != nil {
		return models.LatLng{}, err
	}
	return models.LatLng{Latitude: lat, Longitude: lng}, nil
}

package models

import (
	"math"
	"time"
)

// LatLng is a WGS84 coordinate pair. The zero value is a valid point
// (0,0) in the Gulf of Guinea, so callers that need "unset" semantics
// should use *LatLng.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite and inside the
// usual coordinate ranges. Invalid points short-circuit dependent
// computations (route fetch, viewport) instead of producing NaN maps.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) {
		return false
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Location is a coordinate with the human-readable address the
// backend attaches to pickups and drops.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

func (l Location) Point() LatLng { return LatLng{Latitude: l.Latitude, Longitude: l.Longitude} }

// RideStatus values mirror the dispatch backend's ride lifecycle.
type RideStatus string

const (
	StatusSearching RideStatus = "SEARCHING_FOR_RIDER"
	StatusStart     RideStatus = "START"
	StatusArrived   RideStatus = "ARRIVED"
	StatusCompleted RideStatus = "COMPLETED"
)

// KnownStatus reports whether s is one of the lifecycle values the
// backend documents. Unknown statuses are treated as searching.
func KnownStatus(s RideStatus) bool {
	switch s {
	case StatusSearching, StatusStart, StatusArrived, StatusCompleted:
		return true
	}
	return false
}

// Active reports whether the ride still warrants polling.
func (s RideStatus) Active() bool {
	return s == StatusSearching || s == StatusStart || s == StatusArrived
}

// Terminal reports whether the ride is finished; polling stops for good.
func (s RideStatus) Terminal() bool { return s == StatusCompleted }

// AmbulanceType enumerates the vehicle classes a patient can request.
type AmbulanceType string

const (
	AmbulanceBLS  AmbulanceType = "bls"
	AmbulanceALS  AmbulanceType = "als"
	AmbulanceCCS  AmbulanceType = "ccs"
	AmbulanceAuto AmbulanceType = "auto"
	AmbulanceBike AmbulanceType = "bike"
)

func KnownAmbulanceType(t AmbulanceType) bool {
	switch t {
	case AmbulanceBLS, AmbulanceALS, AmbulanceCCS, AmbulanceAuto, AmbulanceBike:
		return true
	}
	return false
}

// Driver is the crew member assigned to a ride. Location is only
// populated when the backend has a live fix; most deployments do not
// stream one yet.
type Driver struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Location *LatLng `json:"location,omitempty"`
}

// EmergencyContext is the optional triage metadata attached to a
// booking. Type carries the backend-normalized category, not the
// catalogue id the patient picked.
type EmergencyContext struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Ride is the server-owned ride resource. The client never mutates it;
// it holds a read-only copy refreshed by the tracker.
type Ride struct {
	ID        string            `json:"_id"`
	Vehicle   AmbulanceType     `json:"vehicle"`
	Distance  float64           `json:"distance"`
	Fare      float64           `json:"fare"`
	Pickup    Location          `json:"pickup"`
	Drop      Location          `json:"drop"`
	Driver    *Driver           `json:"rider"`
	Status    RideStatus        `json:"status"`
	OTP       string            `json:"otp"`
	Rating    *float64          `json:"rating"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Emergency *EmergencyContext `json:"emergency,omitempty"`
	Hospital  string            `json:"hospital,omitempty"`
}

// BookingRequest is the POST /ride/create payload.
type BookingRequest struct {
	Vehicle   AmbulanceType     `json:"vehicle"`
	Pickup    Location          `json:"pickup"`
	Drop      Location          `json:"drop"`
	Emergency *EmergencyContext `json:"emergency,omitempty"`
}

// RideResponse is the envelope the backend wraps ride endpoints in.
type RideResponse struct {
	Message string `json:"message"`
	Ride    *Ride  `json:"ride,omitempty"`
	Rides   []Ride `json:"rides,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Hospital is a search result from the hospital endpoint.
type Hospital struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	DistanceKm        float64  `json:"distance"`
	Rating            float64  `json:"rating"`
	Address           string   `json:"address,omitempty"`
	EmergencyServices []string `json:"emergencyServices,omitempty"`
	Specialties       []string `json:"specialties,omitempty"`
	IsOpen            bool     `json:"isOpen"`
}

func (h Hospital) Point() LatLng { return LatLng{Latitude: h.Latitude, Longitude: h.Longitude} }

// Snapshot is the locally persisted record of the most recent
// booking, kept only so a no-driver expiry can offer to rebook with
// the same parameters. Cleared once the ride terminates.
type Snapshot struct {
	RideID          string        `json:"ride_id"`
	Vehicle         AmbulanceType `json:"vehicle"`
	Pickup          *Location     `json:"pickup,omitempty"`
	Drop            *Location     `json:"drop,omitempty"`
	EmergencyID     string        `json:"emergency_id,omitempty"`
	EmergencyType   string        `json:"emergency_type,omitempty"` // backend-normalized category
	EmergencyName   string        `json:"emergency_name,omitempty"`
	Priority        string        `json:"priority,omitempty"`
	HospitalName    string        `json:"hospital_name,omitempty"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// StatusEvent is published whenever the tracker observes a ride
// status transition; the telemetry consumer mirrors these into redis.
type StatusEvent struct {
	RideID     string     `json:"ride_id"`
	From       RideStatus `json:"from"`
	To         RideStatus `json:"to"`
	DriverID   string     `json:"driver_id,omitempty"`
	ObservedAt time.Time  `json:"observed_at"`
}

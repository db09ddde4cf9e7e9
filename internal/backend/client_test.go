package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/instaaid/ride-tracker/internal/models"
)

func TestFetchRide(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/ride/rides" || r.URL.Query().Get("id") != "r1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		json.NewEncoder(w).Encode(models.RideResponse{Rides: []models.Ride{{ID: "r1", Status: models.StatusSearching}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	ride, err := c.FetchRide(context.Background(), "r1")
	if err != nil {
		t.Fatalf("FetchRide: %v", err)
	}
	if ride.ID != "r1" || ride.Status != models.StatusSearching {
		t.Fatalf("unexpected ride %+v", ride)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
}

func TestFetchRideUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("expired"))
	if _, err := c.FetchRide(context.Background(), "r1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMissingTokenShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken(""))
	if _, err := c.FetchRide(context.Background(), "r1"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if called {
		t.Fatal("no request should be sent without a token")
	}
}

func TestFetchRideEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.RideResponse{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	if _, err := c.FetchRide(context.Background(), "missing"); !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}

// Booking with no emergency context must omit the emergency key
// entirely instead of sending null.
func TestCreateRidePayload(t *testing.T) {
	var rawBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rawBody = string(b)
		json.NewEncoder(w).Encode(models.RideResponse{Ride: &models.Ride{ID: "new", Fare: 450, OTP: "1234"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	ride, err := c.CreateRide(context.Background(), models.BookingRequest{
		Vehicle: models.AmbulanceALS,
		Pickup:  models.Location{Latitude: 12.90, Longitude: 77.59, Address: "Current Location"},
		Drop:    models.Location{Latitude: 12.95, Longitude: 77.60, Address: "City Hospital"},
	})
	if err != nil {
		t.Fatalf("CreateRide: %v", err)
	}
	if ride.ID != "new" || ride.Fare != 450 || ride.OTP != "1234" {
		t.Fatalf("unexpected ride %+v", ride)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawBody), &payload); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if string(payload["vehicle"]) != `"als"` {
		t.Fatalf("vehicle = %s", payload["vehicle"])
	}
	if _, ok := payload["emergency"]; ok {
		t.Fatalf("emergency key should be omitted, body: %s", rawBody)
	}
	if !strings.Contains(rawBody, `"address":"City Hospital"`) {
		t.Fatalf("drop address missing: %s", rawBody)
	}
}

func TestServerErrorIncludesBodySnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom detail", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	_, err := c.FetchRide(context.Background(), "r1")
	if err == nil || !strings.Contains(err.Error(), "boom detail") {
		t.Fatalf("expected body snippet in error, got %v", err)
	}
}

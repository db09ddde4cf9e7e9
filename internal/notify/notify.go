// Package notify delivers user-facing notices (driver found, no-driver
// expiry) through a pluggable push channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notice is a single user-facing message tied to a ride.
type Notice struct {
	RideID string `json:"ride_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Notifier is a capability interface; platforms without a push channel
// wire Noop.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Noop drops every notice.
type Noop struct{}

func (Noop) Notify(ctx context.Context, n Notice) error { return nil }

// HTTPNotifier posts notices as JSON to a push gateway.
type HTTPNotifier struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewHTTPNotifier(endpoint, key string) *HTTPNotifier {
	return &HTTPNotifier{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (h *HTTPNotifier) Notify(ctx context.Context, n Notice) error {
	b, err := json.Marshal(map[string]any{"message": map[string]any{"data": n}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Key != "" {
		req.Header.Set("Authorization", "Bearer "+h.Key)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}
	return nil
}

// NoDriverNotice is the message shown when the search window lapses
// without an assignment.
func NoDriverNotice(rideID string) Notice {
	return Notice{
		RideID: rideID,
		Title:  "Still searching",
		Body:   "No ambulance driver accepted your request yet. You can retry the booking.",
	}
}

// DriverAssignedNotice announces the assigned driver.
func DriverAssignedNotice(rideID, driverName string) Notice {
	if driverName == "" {
		driverName = "A driver"
	}
	return Notice{
		RideID: rideID,
		Title:  "Driver on the way",
		Body:   driverName + " accepted your request.",
	}
}

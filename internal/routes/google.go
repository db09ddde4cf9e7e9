package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/instaaid/ride-tracker/internal/models"
)

// DefaultEndpoint is the Google Routes computeRoutes endpoint.
const DefaultEndpoint = "https://routes.googleapis.com/directions/v2:computeRoutes"

const fieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline"

// ProviderRoute is the raw answer from a directions provider before
// the client decodes and normalizes it.
type ProviderRoute struct {
	EncodedPolyline string
	DurationSeconds float64
	DistanceMeters  float64
}

// Provider fetches a driving route from an external directions API.
type Provider interface {
	ComputeRoute(ctx context.Context, origin, destination models.LatLng) (ProviderRoute, error)
}

// GoogleClient calls the Routes API computeRoutes endpoint.
type GoogleClient struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewGoogleClient(apiKey string) *GoogleClient {
	return &GoogleClient{
		Endpoint: DefaultEndpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type latLngBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type waypointBody struct {
	Location struct {
		LatLng latLngBody `json:"latLng"`
	} `json:"location"`
}

func waypoint(p models.LatLng) waypointBody {
	var w waypointBody
	w.Location.LatLng = latLngBody{Latitude: p.Latitude, Longitude: p.Longitude}
	return w
}

type computeRoutesRequest struct {
	Origin            waypointBody `json:"origin"`
	Destination       waypointBody `json:"destination"`
	TravelMode        string       `json:"travelMode"`
	RoutingPreference string       `json:"routingPreference"`
	PolylineQuality   string       `json:"polylineQuality"`
	PolylineEncoding  string       `json:"polylineEncoding"`
}

type computeRoutesResponse struct {
	Routes []struct {
		Duration       string  `json:"duration"` // seconds with an "s" suffix, e.g. "1650s"
		DistanceMeters float64 `json:"distanceMeters"`
		Polyline       struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
	} `json:"routes"`
}

// ComputeRoute fetches the driving route between two points. Errors
// returned here are swallowed by Client.GetRoute, which degrades to
// the straight-line fallback.
func (g *GoogleClient) ComputeRoute(ctx context.Context, origin, destination models.LatLng) (ProviderRoute, error) {
	body, err := json.Marshal(computeRoutesRequest{
		Origin:            waypoint(origin),
		Destination:       waypoint(destination),
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE",
		PolylineQuality:   "HIGH_QUALITY",
		PolylineEncoding:  "ENCODED_POLYLINE",
	})
	if err != nil {
		return ProviderRoute{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return ProviderRoute{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.APIKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := g.Client.Do(req)
	if err != nil {
		return ProviderRoute{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return ProviderRoute{}, fmt.Errorf("routes api status %d: %s", resp.StatusCode, snippet)
	}

	var out computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ProviderRoute{}, fmt.Errorf("decode routes response: %w", err)
	}
	if len(out.Routes) == 0 {
		return ProviderRoute{}, fmt.Errorf("routes api returned no routes")
	}

	r := out.Routes[0]
	seconds, err := parseDurationSeconds(r.Duration)
	if err != nil {
		return ProviderRoute{}, err
	}
	return ProviderRoute{
		EncodedPolyline: r.Polyline.EncodedPolyline,
		DurationSeconds: seconds,
		DistanceMeters:  r.DistanceMeters,
	}, nil
}

// Package routes resolves driving routes between coordinates, either
// from an external directions provider or from a straight-line
// fallback when no provider is configured or the call fails.
package routes

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/instaaid/ride-tracker/internal/geo"
	"github.com/instaaid/ride-tracker/internal/models"
	"github.com/instaaid/ride-tracker/internal/observability"
	"github.com/instaaid/ride-tracker/internal/polyline"
)

// Route is what the map layer renders: an ordered point sequence
// plus the headline duration and distance.
type Route struct {
	Points          []models.LatLng
	DurationMinutes int
	DistanceKm      float64
}

// FallbackSpeedKmh is the assumed average city speed used to derive a
// duration when the provider is unavailable.
const FallbackSpeedKmh = 40.0

// Client resolves routes. A nil Provider means no API key was
// configured and every lookup uses the fallback. GetRoute never
// returns an error: every failure path degrades to a straight-line
// route so the caller always has something renderable.
type Client struct {
	Provider Provider
	Cache    *Cache
	Logger   *slog.Logger
}

func NewClient(provider Provider, cache *Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Provider: provider, Cache: cache, Logger: logger}
}

// GetRoute returns the route between origin and destination. Cache
// hits bypass the network entirely. Invalid coordinates short-circuit
// to an empty route rather than producing NaN distances.
func (c *Client) GetRoute(ctx context.Context, origin, destination models.LatLng) Route {
	if !origin.Valid() || !destination.Valid() {
		return Route{}
	}

	if c.Cache != nil {
		if r, ok := c.Cache.Get(origin, destination); ok {
			observability.RouteCacheHits.Inc()
			return r
		}
		observability.RouteCacheMisses.Inc()
	}

	route, ok := c.fetch(ctx, origin, destination)
	if !ok {
		observability.RouteFallbacks.Inc()
		route = straightLine(origin, destination)
	}
	if c.Cache != nil {
		c.Cache.Set(origin, destination, route)
	}
	return route
}

func (c *Client) fetch(ctx context.Context, origin, destination models.LatLng) (Route, bool) {
	if c.Provider == nil {
		return Route{}, false
	}
	pr, err := c.Provider.ComputeRoute(ctx, origin, destination)
	if err != nil {
		c.Logger.Warn("route provider failed, using straight-line fallback", "error", err)
		return Route{}, false
	}

	points := polyline.Decode(pr.EncodedPolyline)
	if len(points) < 2 {
		// degenerate decode (empty or single point); keep the provider's
		// duration/distance but render a straight line
		points = []models.LatLng{origin, destination}
	}
	return Route{
		Points:          points,
		DurationMinutes: int(math.Ceil(pr.DurationSeconds / 60)),
		DistanceKm:      math.Round(pr.DistanceMeters/1000*10) / 10,
	}, true
}

// straightLine is the two-point fallback: haversine distance and a
// duration assuming FallbackSpeedKmh, rounded up to whole minutes.
func straightLine(origin, destination models.LatLng) Route {
	meters := geo.Haversine(origin, destination)
	km := meters / 1000
	return Route{
		Points:          []models.LatLng{origin, destination},
		DurationMinutes: int(math.Ceil(km / (FallbackSpeedKmh / 60))),
		DistanceKm:      math.Round(km*10) / 10,
	}
}

// parseDurationSeconds parses the provider's "<N>s" duration string.
func parseDurationSeconds(s string) (float64, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "s")
	return strconv.ParseFloat(trimmed, 64)
}

// Package geo holds the spherical-distance and map-viewport math the
// tracker derives locally from server data.
package geo

import (
	"math"

	"github.com/instaaid/ride-tracker/internal/models"
)

// Haversine distance in meters over the mean Earth radius.
func Haversine(a, b models.LatLng) float64 {
	const R = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}

// DistanceKm is the haversine distance rounded half-up to one decimal
// place, matching what the UI renders next to hospitals and routes.
func DistanceKm(a, b models.LatLng) float64 {
	return math.Round(Haversine(a, b)/1000*10) / 10
}

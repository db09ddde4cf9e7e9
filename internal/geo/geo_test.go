package geo

import (
	"math"
	"testing"

	"github.com/instaaid/ride-tracker/internal/models"
)

func TestHaversineZero(t *testing.T) {
	p := models.LatLng{Latitude: 12.9, Longitude: 77.59}
	if d := Haversine(p, p); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// one degree of latitude at the equator is ~111.19 km
	a := models.LatLng{Latitude: 0, Longitude: 0}
	b := models.LatLng{Latitude: 1, Longitude: 0}
	d := Haversine(a, b)
	if math.Abs(d-111195) > 100 {
		t.Fatalf("expected ~111195m, got %f", d)
	}
}

func TestDistanceKmRounding(t *testing.T) {
	a := models.LatLng{Latitude: 12.90, Longitude: 77.59}
	b := models.LatLng{Latitude: 12.95, Longitude: 77.60}
	km := DistanceKm(a, b)
	if math.Abs(km-5.7) > 0.1 {
		t.Fatalf("expected ~5.7km, got %f", km)
	}
	if km != math.Round(Haversine(a, b)/1000*10)/10 {
		t.Fatalf("rounding mismatch: %f", km)
	}
}

func TestViewportCoversAllPoints(t *testing.T) {
	user := models.LatLng{Latitude: 12.90, Longitude: 77.59}
	dest := models.LatLng{Latitude: 12.95, Longitude: 77.60}
	driver := models.LatLng{Latitude: 12.92, Longitude: 77.65}

	region, ok := Viewport(user, dest, driver)
	if !ok {
		t.Fatal("expected a region")
	}
	for _, p := range []models.LatLng{user, dest, driver} {
		if math.Abs(p.Latitude-region.Center.Latitude) > region.LatSpan/2 {
			t.Fatalf("latitude %f outside region %+v", p.Latitude, region)
		}
		if math.Abs(p.Longitude-region.Center.Longitude) > region.LngSpan/2 {
			t.Fatalf("longitude %f outside region %+v", p.Longitude, region)
		}
	}
}

func TestViewportMinimumSpan(t *testing.T) {
	p := models.LatLng{Latitude: 12.9, Longitude: 77.59}
	region, ok := Viewport(p, p)
	if !ok {
		t.Fatal("expected a region")
	}
	if region.LatSpan != 0.05 || region.LngSpan != 0.05 {
		t.Fatalf("expected minimum span 0.05, got %+v", region)
	}
}

func TestViewportSkipsInvalidPoints(t *testing.T) {
	valid := models.LatLng{Latitude: 12.9, Longitude: 77.59}
	invalid := models.LatLng{Latitude: math.NaN(), Longitude: 77.59}
	region, ok := Viewport(valid, invalid)
	if !ok {
		t.Fatal("expected a region from the remaining valid point")
	}
	if region.Center != valid {
		t.Fatalf("center = %+v, want %+v", region.Center, valid)
	}
	if _, ok := Viewport(invalid); ok {
		t.Fatal("expected no region from only invalid points")
	}
}

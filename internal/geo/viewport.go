package geo

import "github.com/instaaid/ride-tracker/internal/models"

// Region is a map viewport: a center plus the span of the visible
// area on each axis, in degrees.
type Region struct {
	Center  models.LatLng `json:"center"`
	LatSpan float64       `json:"lat_span"`
	LngSpan float64       `json:"lng_span"`
}

const (
	viewportPadding = 0.3  // expand the bounding box by 30% per axis
	minSpanDegrees  = 0.05 // never zoom tighter than this
)

// Viewport computes the smallest axis-aligned region covering all
// supplied points, padded so markers are not pinned to the frame
// edge. Invalid points are skipped; with no valid points it returns
// false.
func Viewport(points ...models.LatLng) (Region, bool) {
	var (
		minLat, maxLat float64
		minLng, maxLng float64
		seen           bool
	)
	for _, p := range points {
		if !p.Valid() {
			continue
		}
		if !seen {
			minLat, maxLat = p.Latitude, p.Latitude
			minLng, maxLng = p.Longitude, p.Longitude
			seen = true
			continue
		}
		if p.Latitude < minLat {
			minLat = p.Latitude
		}
		if p.Latitude > maxLat {
			maxLat = p.Latitude
		}
		if p.Longitude < minLng {
			minLng = p.Longitude
		}
		if p.Longitude > maxLng {
			maxLng = p.Longitude
		}
	}
	if !seen {
		return Region{}, false
	}

	latSpan := (maxLat - minLat) * (1 + viewportPadding)
	lngSpan := (maxLng - minLng) * (1 + viewportPadding)
	if latSpan < minSpanDegrees {
		latSpan = minSpanDegrees
	}
	if lngSpan < minSpanDegrees {
		lngSpan = minSpanDegrees
	}
	return Region{
		Center:  models.LatLng{Latitude: (minLat + maxLat) / 2, Longitude: (minLng + maxLng) / 2},
		LatSpan: latSpan,
		LngSpan: lngSpan,
	}, true
}

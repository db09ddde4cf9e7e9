// Package polyline decodes Google-style encoded polylines.
package polyline

import "github.com/instaaid/ride-tracker/internal/models"

const precision = 1e-5

// Decode converts an encoded polyline string into the ordered points
// it represents. Each point is a cumulative zig-zag delta over the
// previous one, scaled by 1e-5 (the Google Maps standard).
//
// Decoding is best effort: a truncated byte sequence yields the
// points recovered so far rather than an error, so callers must not
// assume a length-matched result. An empty input yields nil.
func Decode(encoded string) []models.LatLng {
	var points []models.LatLng
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		dlat, next, ok := varint(encoded, index)
		if !ok {
			return points
		}
		lat += dlat
		dlng, next, ok := varint(encoded, next)
		if !ok {
			return points
		}
		lng += dlng
		index = next

		points = append(points, models.LatLng{
			Latitude:  float64(lat) * precision,
			Longitude: float64(lng) * precision,
		})
	}
	return points
}

// varint reads one variable-length zig-zag value starting at index.
// Each byte carries 5 payload bits offset by 63; the 0x20 bit marks
// continuation.
func varint(encoded string, index int) (value, next int, ok bool) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, false
		}
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index, true
	}
	return result >> 1, index, true
}

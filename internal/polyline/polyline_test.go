package polyline

import (
	"math"
	"testing"
)

// Reference vector from the Google encoded polyline documentation.
func TestDecodeReferenceVector(t *testing.T) {
	points := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	want := [][2]float64{
		{38.5, -120.2},
		{40.7, -120.95},
		{43.252, -126.453},
	}
	for i, w := range want {
		if !close(points[i].Latitude, w[0]) || !close(points[i].Longitude, w[1]) {
			t.Fatalf("point %d = (%f,%f), want (%f,%f)", i, points[i].Latitude, points[i].Longitude, w[0], w[1])
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	if points := Decode(""); len(points) != 0 {
		t.Fatalf("expected empty result, got %d points", len(points))
	}
}

func TestDecodeTruncatedKeepsPrefix(t *testing.T) {
	full := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	// chop the encoding mid-point: the decoder should return only the
	// points it fully recovered
	truncated := Decode("_p~iF~ps|U_ulL")
	if len(truncated) >= len(full) {
		t.Fatalf("truncated decode returned %d points, full decode %d", len(truncated), len(full))
	}
	if len(truncated) < 1 {
		t.Fatalf("expected at least the first point")
	}
	if !close(truncated[0].Latitude, 38.5) || !close(truncated[0].Longitude, -120.2) {
		t.Fatalf("first point = %+v", truncated[0])
	}
}

func close(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

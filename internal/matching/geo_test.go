package matching

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLatLng(t *testing.T) {
	lat, lng, ok := ParseLatLng("40.7128,-74.0060")
	assert.True(t, ok)
	assert.InDelta(t, 40.7128, lat, 0.0001)
	assert.InDelta(t, -74.0060, lng, 0.0001)
}

func TestParseLatLngWithSpaces(t *testing.T) {
	lat, lng, ok := ParseLatLng(" 34.05 , -118.24 ")
	assert.True(t, ok)
	assert.InDelta(t, 34.05, lat, 0.0001)
	assert.InDelta(t, -118.24, lng, 0.0001)
}

func TestParseLatLngInvalid(t *testing.T) {
	cases := []string{"", "Brooklyn, NY-ish", "40.7128", "40.7,-74.0,12", "abc,def"}
	for _, c := range cases {
		_, _, ok := ParseLatLng(c)
		assert.False(t, ok, "expected %q to fail", c)
	}
}

func TestRadiusOverridesNationwideDefault(t *testing.T) {
	// A handler starts from the nationwide sentinel and overwrites it with
	// the parsed query value; both must carry the same float type.
	radius := RadiusNationwide
	if parsed, err := strconv.ParseFloat("25", 64); err == nil && parsed > 0 {
		radius = parsed
	}
	assert.Equal(t, 25.0, radius)
	assert.Greater(t, radius, RadiusNationwide)
}

func TestHaversineKnownDistance(t *testing.T) {
	// New York to Los Angeles is roughly 2,445 miles.
	d := HaversineMiles(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 2445, d, 20)
}

func TestHaversineZeroDistance(t *testing.T) {
	d := HaversineMiles(51.5, -0.12, 51.5, -0.12)
	assert.InDelta(t, 0, d, 0.001)
}

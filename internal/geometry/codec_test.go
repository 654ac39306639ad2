package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-planner/internal/models"
)

// Reference example from the encoded polyline algorithm documentation
const referencePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var referencePairs = [][2]float64{
	{38.5, -120.2},
	{40.7, -120.95},
	{43.252, -126.453},
}

func TestDecode_Reference(t *testing.T) {
	pairs, err := Decode(referencePolyline, DefaultPrecision)
	require.NoError(t, err)
	require.Len(t, pairs, len(referencePairs))

	for i, want := range referencePairs {
		assert.InDelta(t, want[0], pairs[i][0], 1e-5, "pair %d axis 0", i)
		assert.InDelta(t, want[1], pairs[i][1], 1e-5, "pair %d axis 1", i)
	}
}

func TestEncode_Reference(t *testing.T) {
	assert.Equal(t, referencePolyline, Encode(referencePairs, DefaultPrecision))
}

func TestRoundTrip(t *testing.T) {
	cases := [][][2]float64{
		{{30.0, -88.0}},
		{{30.0, -88.0}, {30.1, -88.0}, {30.2, -88.05}},
		{{-33.86785, 151.20732}, {-33.85662, 151.21529}, {51.50722, -0.1275}},
		{{89.99999, 179.99999}, {-89.99999, -179.99999}, {0, 0}},
	}

	for _, pairs := range cases {
		decoded, err := Decode(Encode(pairs, DefaultPrecision), DefaultPrecision)
		require.NoError(t, err)
		require.Len(t, decoded, len(pairs))
		for i := range pairs {
			assert.InDelta(t, pairs[i][0], decoded[i][0], 1e-5)
			assert.InDelta(t, pairs[i][1], decoded[i][1], 1e-5)
		}
	}

	decoded, err := Decode(referencePolyline, DefaultPrecision)
	require.NoError(t, err)
	assert.Equal(t, referencePolyline, Encode(decoded, DefaultPrecision))
}

func TestDecode_Empty(t *testing.T) {
	pairs, err := Decode("", DefaultPrecision)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDecode_Truncated(t *testing.T) {
	// Drop the final byte so the last 5-bit group never terminates
	truncated := referencePolyline[:len(referencePolyline)-1]

	pairs, err := Decode(truncated, DefaultPrecision)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Nil(t, pairs)
}

func TestDecode_UnpairedValue(t *testing.T) {
	// "_p~iF" is a single latitude value with no longitude
	_, err := Decode("_p~iF", DefaultPrecision)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestDecode_WrongPrecisionCorruptsCoordinates(t *testing.T) {
	pairs, err := Decode(referencePolyline, 1e3)
	require.NoError(t, err)

	// 1e3 instead of 1e5 scales every value up by a factor of 100
	assert.InDelta(t, 3850.0, pairs[0][0], 1e-3)

	err = Plausible(ToGeoPoints(pairs, LatLng))
	assert.True(t, errors.Is(err, ErrImplausible))
}

func TestAxisOrderConversion(t *testing.T) {
	pairs := [][2]float64{{-88.0, 30.0}, {-88.1, 30.1}}

	points := ToGeoPoints(pairs, LngLat)
	assert.Equal(t, models.GeoPoint{Lat: 30.0, Lng: -88.0}, points[0])
	assert.Equal(t, pairs, FromGeoPoints(points, LngLat))

	points = ToGeoPoints(pairs, LatLng)
	assert.Equal(t, models.GeoPoint{Lat: -88.0, Lng: 30.0}, points[0])
	assert.Equal(t, pairs, FromGeoPoints(points, LatLng))
}

func TestDecodePoints(t *testing.T) {
	points, err := DecodePoints(referencePolyline, DefaultPrecision, LatLng)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.InDelta(t, 38.5, points[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, points[0].Lng, 1e-5)
}

func TestPlausible(t *testing.T) {
	good := models.PathGeometry{{Lat: 30, Lng: -88}, {Lat: 30.1, Lng: -88}}
	assert.NoError(t, Plausible(good))

	tests := []struct {
		name   string
		points models.PathGeometry
	}{
		{"empty", nil},
		{"single point", models.PathGeometry{{Lat: 30, Lng: -88}}},
		{"first coordinate below magnitude one", models.PathGeometry{{Lat: 0.3, Lng: -0.88}, {Lat: 0.301, Lng: -0.88}}},
		{"out of range", models.PathGeometry{{Lat: 30, Lng: -88}, {Lat: 3000, Lng: -8800}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Plausible(tt.points)
			assert.True(t, errors.Is(err, ErrImplausible))
		})
	}
}

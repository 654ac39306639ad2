// Package geometry encodes and decodes compact polylines and converts between
// the latitude-first and longitude-first axis orders used by remote services.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"route-planner/internal/models"
)

// DefaultPrecision is the standard encoded-polyline precision factor (5 decimals)
const DefaultPrecision = 1e5

// AxisOrder identifies which axis comes first in a coordinate pair
type AxisOrder int

const (
	LatLng AxisOrder = iota
	LngLat
)

// ErrDecode is wrapped by every decoding failure
var ErrDecode = errors.New("polyline decode failed")

// ErrImplausible is wrapped by every plausibility failure
var ErrImplausible = errors.New("implausible geometry")

func codec(precision float64) polyline.Codec {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return polyline.Codec{Dim: 2, Scale: precision}
}

// Decode reconstructs coordinate pairs from an encoded polyline. Pairs come back
// in the axis order the encoder used; callers reorder with ToGeoPoints.
func Decode(encoded string, precision float64) ([][2]float64, error) {
	if encoded == "" {
		return [][2]float64{}, nil
	}

	coords, rest, err := codec(precision).DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(rest))
	}

	pairs := make([][2]float64, len(coords))
	for i, c := range coords {
		if len(c) != 2 {
			return nil, fmt.Errorf("%w: coordinate %d has %d axes", ErrDecode, i, len(c))
		}
		pairs[i] = [2]float64{c[0], c[1]}
	}
	return pairs, nil
}

// Encode is the inverse of Decode
func Encode(pairs [][2]float64, precision float64) string {
	coords := make([][]float64, len(pairs))
	for i, p := range pairs {
		coords[i] = []float64{p[0], p[1]}
	}
	return string(codec(precision).EncodeCoords(nil, coords))
}

// ToGeoPoints converts pairs in the given axis order into latitude-first points
func ToGeoPoints(pairs [][2]float64, order AxisOrder) models.PathGeometry {
	points := make(models.PathGeometry, len(pairs))
	for i, p := range pairs {
		if order == LngLat {
			points[i] = models.GeoPoint{Lat: p[1], Lng: p[0]}
		} else {
			points[i] = models.GeoPoint{Lat: p[0], Lng: p[1]}
		}
	}
	return points
}

// FromGeoPoints converts points into pairs in the given axis order
func FromGeoPoints(points []models.GeoPoint, order AxisOrder) [][2]float64 {
	pairs := make([][2]float64, len(points))
	for i, p := range points {
		if order == LngLat {
			pairs[i] = [2]float64{p.Lng, p.Lat}
		} else {
			pairs[i] = [2]float64{p.Lat, p.Lng}
		}
	}
	return pairs
}

// DecodePoints decodes an encoded polyline straight into latitude-first points
func DecodePoints(encoded string, precision float64, order AxisOrder) (models.PathGeometry, error) {
	pairs, err := Decode(encoded, precision)
	if err != nil {
		return nil, err
	}
	return ToGeoPoints(pairs, order), nil
}

// Plausible rejects geometry that cannot describe a real path. A first
// coordinate below magnitude 1 on both axes is the usual symptom of decoding
// with the wrong precision factor; out-of-range values are the opposite one.
func Plausible(points models.PathGeometry) error {
	if len(points) < 2 {
		return fmt.Errorf("%w: %d points", ErrImplausible, len(points))
	}

	first := points[0]
	if math.Abs(first.Lat) < 1 && math.Abs(first.Lng) < 1 {
		return fmt.Errorf("%w: first coordinate (%.6f,%.6f) too small for precision", ErrImplausible, first.Lat, first.Lng)
	}

	for i, p := range points {
		if !p.Valid() {
			return fmt.Errorf("%w: coordinate %d (%.6f,%.6f) out of range", ErrImplausible, i, p.Lat, p.Lng)
		}
	}
	return nil
}

// Package geo provides great-circle distance math for treasure search and collection.
package geo

import (
	"math"

	"github.com/mmynk/treasurehunt/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by every distance computation.
const EarthRadiusKm = 6371.0

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm returns the haversine great-circle distance in kilometers between two
// points given in degrees. It is symmetric and returns 0 for identical points.
// Range validation is the caller's job; any real input is accepted.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	radLat1 := toRad(lat1)
	radLat2 := toRad(lat2)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(radLat1)*math.Cos(radLat2)*sinLon*sinLon
	// Rounding can push a just past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Distance returns the distance in kilometers between two points.
func Distance(a, b models.Point) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// DistanceMeters returns the distance in meters between two points.
func DistanceMeters(a, b models.Point) float64 {
	return Distance(a, b) * 1000
}

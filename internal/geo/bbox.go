package geo

import (
	"math"

	"github.com/mmynk/treasurehunt/internal/models"
)

// Box is a latitude/longitude rectangle in degrees.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p models.Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// BoundingBox returns a box containing every point within radiusKm of center.
// It is a prefilter for indexed lookups only; callers must still apply DistanceKm.
// Near the poles or across the antimeridian the longitude range is widened to the
// full [-180, 180].
func BoundingBox(center models.Point, radiusKm float64) Box {
	if radiusKm < 0 {
		radiusKm = 0
	}
	// Pad slightly so points sitting exactly on the radius are never clipped.
	angular := radiusKm/EarthRadiusKm + 1e-9
	dLat := angular * 180 / math.Pi

	box := Box{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MinLat == -90 || box.MaxLat == 90 {
		return box
	}

	// Longitude half-width at the given latitude (Chamberlain & Duquette).
	s := math.Sin(angular) / math.Cos(toRad(center.Lat))
	if s >= 1 {
		return box
	}
	dLng := math.Asin(s) * 180 / math.Pi
	minLng, maxLng := center.Lng-dLng, center.Lng+dLng
	if minLng < -180 || maxLng > 180 {
		return box
	}
	box.MinLng, box.MaxLng = minLng, maxLng
	return box
}

package geo

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/mmynk/treasurehunt/internal/models"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"identical points", 14.5995, 120.9842, 14.5995, 120.9842, 0},
		{"one degree of latitude", 0, 0, 1, 0, EarthRadiusKm * math.Pi / 180},
		{"quarter of the equator", 0, 0, 0, 90, EarthRadiusKm * math.Pi / 2},
		{"antipodal points", 0, 0, 0, 180, EarthRadiusKm * math.Pi},
		{"pole to pole", 90, 0, -90, 0, EarthRadiusKm * math.Pi},
		{"across the antimeridian", 0, 179.5, 0, -179.5, EarthRadiusKm * math.Pi / 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("DistanceKm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		lat1, lon1 := r.Float64()*180-90, r.Float64()*360-180
		lat2, lon2 := r.Float64()*180-90, r.Float64()*360-180

		ab := DistanceKm(lat1, lon1, lat2, lon2)
		ba := DistanceKm(lat2, lon2, lat1, lon1)
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("asymmetric distance for (%v,%v)-(%v,%v): %v vs %v", lat1, lon1, lat2, lon2, ab, ba)
		}
		if ab < 0 {
			t.Fatalf("negative distance %v", ab)
		}
		if self := DistanceKm(lat1, lon1, lat1, lon1); self > 1e-9 {
			t.Fatalf("distance to self = %v, want 0", self)
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	center := models.Point{Lat: 14.5995, Lng: 120.9842}
	// 51 meters due north: haversine reduces to R*dLat along a meridian.
	north := models.Point{Lat: center.Lat + 51.0/(EarthRadiusKm*1000)*180/math.Pi, Lng: center.Lng}

	got := DistanceMeters(center, north)
	if math.Abs(got-51) > 1e-6 {
		t.Errorf("DistanceMeters() = %v, want 51", got)
	}
}

func TestBoundingBox(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 500; i++ {
		center := models.Point{Lat: r.Float64()*170 - 85, Lng: r.Float64()*360 - 180}
		radius := r.Float64() * 20
		box := BoundingBox(center, radius)

		for j := 0; j < 50; j++ {
			// Random points near the center; any within the radius must be in the box.
			p := models.Point{
				Lat: math.Max(-90, math.Min(90, center.Lat+(r.Float64()-0.5)*0.5)),
				Lng: math.Max(-180, math.Min(180, center.Lng+(r.Float64()-0.5)*0.5)),
			}
			if Distance(center, p) <= radius && !box.Contains(p) {
				t.Fatalf("point %+v within %vkm of %+v but outside box %+v", p, radius, center, box)
			}
		}
	}

	t.Run("polar center spans all longitudes", func(t *testing.T) {
		box := BoundingBox(models.Point{Lat: 89.99, Lng: 10}, 10)
		if box.MinLng != -180 || box.MaxLng != 180 {
			t.Errorf("expected full longitude range, got %+v", box)
		}
	})

	t.Run("antimeridian spans all longitudes", func(t *testing.T) {
		box := BoundingBox(models.Point{Lat: 0, Lng: 179.99}, 10)
		if box.MinLng != -180 || box.MaxLng != 180 {
			t.Errorf("expected full longitude range, got %+v", box)
		}
	})
}

func TestGeohash(t *testing.T) {
	tests := []struct {
		lat, lng  float64
		precision int
		want      string
	}{
		{57.64911, 10.40744, 11, "u4pruydqqvj"},
		{0, 0, 1, "s"},
		{-90, -180, 3, "000"},
		{1, 1, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Geohash(tt.lat, tt.lng, tt.precision); got != tt.want {
				t.Errorf("Geohash(%v, %v, %d) = %q, want %q", tt.lat, tt.lng, tt.precision, got, tt.want)
			}
		})
	}
}

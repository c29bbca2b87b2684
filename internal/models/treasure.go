package models

// Point is a geographic coordinate in degrees (WGS 84).
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Treasure represents a collectable location.
type Treasure struct {
	// ID is the positive, unique identifier assigned by the store.
	ID int64 `json:"id" yaml:"id"`

	// Name is the display name shown to players.
	Name string `json:"name" yaml:"name"`

	// Latitude is in degrees, within [-90, 90].
	Latitude float64 `json:"latitude" yaml:"latitude"`

	// Longitude is in degrees, within [-180, 180].
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Point returns the treasure's location.
func (t Treasure) Point() Point {
	return Point{Lat: t.Latitude, Lng: t.Longitude}
}

// NearbyTreasure is a search hit: the treasure plus its distance from the search center.
type NearbyTreasure struct {
	Treasure
	DistanceKm float64 `json:"distance"`
}

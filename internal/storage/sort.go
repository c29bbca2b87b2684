package storage

import (
	"cmp"
	"slices"

	"github.com/mmynk/treasurehunt/internal/models"
)

// SortNearby orders results by ascending distance, breaking ties by treasure ID.
func SortNearby(results []models.NearbyTreasure) {
	slices.SortFunc(results, func(a, b models.NearbyTreasure) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

package treasure

import (
	"errors"
	"fmt"

	"github.com/mmynk/treasurehunt/internal/models"
)

var (
	// ErrTreasureNotFound means the treasure ID did not resolve in the store.
	ErrTreasureNotFound = errors.New("treasure not found")

	// ErrNoRewards means the treasure is in range but has no reward options.
	ErrNoRewards = errors.New("no rewards found for this treasure")

	// ErrInvalidInput covers malformed identifiers or search parameters.
	ErrInvalidInput = errors.New("invalid input")
)

// TooFarError reports a collection attempt outside MaxCollectDistanceMeters.
// It carries the rounded distance and the treasure so clients can guide the player.
type TooFarError struct {
	DistanceMeters int64
	Treasure       models.Treasure
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("too far from treasure %d: %dm away, must be within %dm",
		e.Treasure.ID, e.DistanceMeters, MaxCollectDistanceMeters)
}

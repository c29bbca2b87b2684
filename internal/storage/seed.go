package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/treasurehunt/internal/models"
)

// SeedFile is the YAML layout accepted by LoadSeed.
//
//	treasures:
//	  - id: 100
//	    name: T1
//	    latitude: 14.54376481
//	    longitude: 121.0199117
//	    rewards: ["15.00", "20.00"]
type SeedFile struct {
	Treasures []SeedTreasure `yaml:"treasures"`
}

// SeedTreasure is one treasure entry of a seed file.
type SeedTreasure struct {
	ID        int64    `yaml:"id"`
	Name      string   `yaml:"name"`
	Latitude  float64  `yaml:"latitude"`
	Longitude float64  `yaml:"longitude"`
	Rewards   []string `yaml:"rewards"`
}

// LoadSeedFile opens path and seeds w from it. It returns the number of treasures written.
func LoadSeedFile(ctx context.Context, w TreasureWriter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(ctx, w, f)
}

// LoadSeed decodes a SeedFile from r and writes every treasure and reward option to w.
// Coordinates and amounts are validated before anything is written. When w can also
// read treasures, entries whose ID already exists are skipped, so reseeding a
// persistent store on restart is a no-op. It returns the number of treasures written.
func LoadSeed(ctx context.Context, w TreasureWriter, r io.Reader) (int, error) {
	var seed SeedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return 0, fmt.Errorf("failed to decode seed: %w", err)
	}

	amounts := make([][]decimal.Decimal, len(seed.Treasures))
	for i, st := range seed.Treasures {
		if st.Latitude < -90 || st.Latitude > 90 || st.Longitude < -180 || st.Longitude > 180 {
			return 0, fmt.Errorf("treasure %q: coordinates out of range", st.Name)
		}
		for _, raw := range st.Rewards {
			amt, err := decimal.NewFromString(raw)
			if err != nil {
				return 0, fmt.Errorf("treasure %q: invalid reward %q: %w", st.Name, raw, err)
			}
			if amt.IsNegative() {
				return 0, fmt.Errorf("treasure %q: negative reward %s", st.Name, raw)
			}
			amounts[i] = append(amounts[i], amt.Round(2))
		}
	}

	getter, _ := w.(interface {
		GetTreasure(ctx context.Context, id int64) (*models.Treasure, error)
	})

	written := 0
	for i, st := range seed.Treasures {
		if getter != nil && st.ID != 0 {
			_, err := getter.GetTreasure(ctx, st.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return written, fmt.Errorf("failed to check treasure %d: %w", st.ID, err)
			}
		}

		t := &models.Treasure{
			ID:        st.ID,
			Name:      st.Name,
			Latitude:  st.Latitude,
			Longitude: st.Longitude,
		}
		if err := w.CreateTreasure(ctx, t); err != nil {
			return written, fmt.Errorf("failed to seed treasure %q: %w", st.Name, err)
		}
		for _, amt := range amounts[i] {
			if err := w.AddRewardOption(ctx, &models.RewardOption{TreasureID: t.ID, Amount: amt}); err != nil {
				return written, fmt.Errorf("failed to seed reward for %q: %w", st.Name, err)
			}
		}
		written++
	}

	return written, nil
}

package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/treasurehunt/internal/storage"
	"github.com/mmynk/treasurehunt/internal/storage/memory"
)

const seedYAML = `
treasures:
  - id: 100
    name: T1
    latitude: 14.54376481
    longitude: 121.0199117
    rewards: ["15.00", "20"]
  - id: 101
    name: T2
    latitude: 14.55320766
    longitude: 121.0557745
`

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	n, err := storage.LoadSeed(ctx, s, strings.NewReader(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tr, err := s.GetTreasure(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "T1", tr.Name)
	assert.InDelta(t, 14.54376481, tr.Latitude, 1e-9)

	opts, err := s.ListRewardOptions(ctx, 100)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.True(t, opts[1].Amount.Equal(decimal.NewFromInt(20)))

	opts, err = s.ListRewardOptions(ctx, 101)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestLoadSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad latitude", "treasures:\n  - name: X\n    latitude: 91\n    longitude: 0\n"},
		{"bad longitude", "treasures:\n  - name: X\n    latitude: 0\n    longitude: -181\n"},
		{"bad amount", "treasures:\n  - name: X\n    latitude: 0\n    longitude: 0\n    rewards: [\"ten\"]\n"},
		{"negative amount", "treasures:\n  - name: X\n    latitude: 0\n    longitude: 0\n    rewards: [\"-1\"]\n"},
		{"not yaml", "treasures: [:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			_, err := storage.LoadSeed(context.Background(), s, strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	n, err := storage.LoadSeedFile(context.Background(), memory.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = storage.LoadSeedFile(context.Background(), memory.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSeed_SkipsExisting(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	n, err := storage.LoadSeed(ctx, s, strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = storage.LoadSeed(ctx, s, strings.NewReader(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	opts, err := s.ListRewardOptions(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, opts, 2, "reseeding must not duplicate reward options")
}

func TestLoadSeedFile_SampleData(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	n, err := storage.LoadSeedFile(ctx, s, filepath.Join("..", "..", "data", "treasures.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	opts, err := s.ListRewardOptions(ctx, 105)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

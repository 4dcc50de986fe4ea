package domino

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewBoneyard(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	tiles, err := NewBoneyard(SetTypeDoubleSix, 2, rng)
	if err != nil {
		t.Fatalf("NewBoneyard() error = %v", err)
	}
	if len(tiles) != 56 {
		t.Fatalf("NewBoneyard() returned %d tiles, want 56", len(tiles))
	}

	counts := make(map[string]int)
	for _, tile := range tiles {
		counts[tile.ID()]++
	}
	if len(counts) != 28 {
		t.Fatalf("NewBoneyard() has %d distinct tiles, want 28", len(counts))
	}
	for id, n := range counts {
		if n != 2 {
			t.Fatalf("tile %s appears %d times, want 2", id, n)
		}
	}
}

func TestNewBoneyardInvalidMultiplicity(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for _, multiplicity := range []int{0, -1, MaxMultiplicity + 1} {
		if _, err := NewBoneyard(SetTypeDoubleSix, multiplicity, rng); !errors.Is(err, ErrInvalidMultiplicity) {
			t.Fatalf("NewBoneyard(multiplicity=%d) error = %v, want ErrInvalidMultiplicity", multiplicity, err)
		}
	}
}

func TestNewBoneyardInvalidSetType(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	if _, err := NewBoneyard(SetType("double-five"), 1, rng); !errors.Is(err, ErrInvalidSetType) {
		t.Fatalf("NewBoneyard(double-five) error = %v, want ErrInvalidSetType", err)
	}
}

func TestShuffleTilesPreservesMultiset(t *testing.T) {
	t.Parallel()

	tiles, err := Population(SetTypeDoubleNine)
	if err != nil {
		t.Fatalf("Population() error = %v", err)
	}
	before := make(map[string]int, len(tiles))
	for _, tile := range tiles {
		before[tile.ID()]++
	}

	ShuffleTiles(tiles, rand.New(rand.NewSource(42)))

	after := make(map[string]int, len(tiles))
	for _, tile := range tiles {
		after[tile.ID()]++
	}
	if len(after) != len(before) {
		t.Fatalf("shuffle changed distinct tile count: got %d, want %d", len(after), len(before))
	}
	for id, n := range before {
		if after[id] != n {
			t.Fatalf("tile %s count changed: got %d, want %d", id, after[id], n)
		}
	}
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want Code
	}{
		{ErrInvalidSetType, CodeInvalidSetType},
		{ErrInvalidMultiplicity, CodeInvalidMultiplicity},
		{ErrInsufficientTiles, CodeInsufficientTiles},
		{ErrSetNotFound, CodeSetNotFound},
		{errors.New("boom"), CodeUnknown},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.want {
			t.Fatalf("CodeOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

package domino

import (
	"fmt"
	"math/rand"
)

// MaxMultiplicity caps how many copies of a population can be merged into
// one boneyard.
const MaxMultiplicity = 10

// NewBoneyard builds the full tile population for the set type repeated
// multiplicity times and returns it shuffled with the provided source.
func NewBoneyard(setType SetType, multiplicity int, rng *rand.Rand) ([]Tile, error) {
	if multiplicity < 1 || multiplicity > MaxMultiplicity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMultiplicity, multiplicity)
	}
	population, err := Population(setType)
	if err != nil {
		return nil, err
	}

	tiles := make([]Tile, 0, len(population)*multiplicity)
	for i := 0; i < multiplicity; i++ {
		tiles = append(tiles, population...)
	}
	ShuffleTiles(tiles, rng)
	return tiles, nil
}

// ShuffleTiles permutes tiles in place using a Fisher-Yates shuffle.
func ShuffleTiles(tiles []Tile, rng *rand.Rand) {
	rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
}

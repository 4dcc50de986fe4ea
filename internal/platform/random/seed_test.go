package random

import "testing"

func TestNewSeedProducesDistinctValues(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 16; i++ {
		seed, err := NewSeed()
		if err != nil {
			t.Fatalf("new seed: %v", err)
		}
		seen[seed] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected distinct seeds, got %d unique values", len(seen))
	}
}

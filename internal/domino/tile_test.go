package domino

import (
	"errors"
	"testing"
)

func TestNewTileNormalizes(t *testing.T) {
	t.Parallel()

	tile := NewTile(5, 2)
	if tile.Low != 2 || tile.High != 5 {
		t.Fatalf("NewTile(5, 2) = %+v, want low 2 high 5", tile)
	}
	if got := tile.ID(); got != "2-5" {
		t.Fatalf("ID() = %q, want %q", got, "2-5")
	}
}

func TestParseTile(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  Tile
		ok    bool
	}{
		{name: "canonical", input: "3-6", want: Tile{Low: 3, High: 6}, ok: true},
		{name: "reversed", input: "6-3", want: Tile{Low: 3, High: 6}, ok: true},
		{name: "double", input: "0-0", want: Tile{Low: 0, High: 0}, ok: true},
		{name: "missing separator", input: "36"},
		{name: "empty", input: ""},
		{name: "negative", input: "-1-3"},
		{name: "non numeric", input: "a-b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTile(tc.input)
			if !tc.ok {
				if !errors.Is(err, ErrInvalidTileFormat) {
					t.Fatalf("ParseTile(%q) error = %v, want ErrInvalidTileFormat", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTile(%q) error = %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseTile(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestPopulationSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		setType SetType
		want    int
	}{
		{SetTypeDoubleSix, 28},
		{SetTypeDoubleNine, 55},
		{SetTypeDoubleTwelve, 91},
		{SetTypeDoubleFifteen, 136},
		{SetTypeDoubleEighteen, 190},
	}
	for _, tc := range cases {
		got, err := PopulationSize(tc.setType)
		if err != nil {
			t.Fatalf("PopulationSize(%s) error = %v", tc.setType, err)
		}
		if got != tc.want {
			t.Fatalf("PopulationSize(%s) = %d, want %d", tc.setType, got, tc.want)
		}
	}
}

func TestPopulationMatchesSize(t *testing.T) {
	t.Parallel()

	for _, setType := range SetTypes() {
		tiles, err := Population(setType)
		if err != nil {
			t.Fatalf("Population(%s) error = %v", setType, err)
		}
		want, err := PopulationSize(setType)
		if err != nil {
			t.Fatalf("PopulationSize(%s) error = %v", setType, err)
		}
		if len(tiles) != want {
			t.Fatalf("Population(%s) has %d tiles, want %d", setType, len(tiles), want)
		}
		seen := make(map[string]bool, len(tiles))
		for _, tile := range tiles {
			if tile.Low > tile.High {
				t.Fatalf("Population(%s) produced unnormalized tile %+v", setType, tile)
			}
			if seen[tile.ID()] {
				t.Fatalf("Population(%s) produced duplicate tile %s", setType, tile.ID())
			}
			seen[tile.ID()] = true
		}
	}
}

func TestPopulationInvalidSetType(t *testing.T) {
	t.Parallel()

	if _, err := Population(SetType("double-seven")); !errors.Is(err, ErrInvalidSetType) {
		t.Fatalf("Population(double-seven) error = %v, want ErrInvalidSetType", err)
	}
}

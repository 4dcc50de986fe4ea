// Package domino defines the core value types for domino sets: tiles, set
// types, and boneyard construction. The package is dependency-free and pure;
// persistence and mutation rules live in the service and storage packages.
package domino

import (
	"fmt"
	"strconv"
	"strings"
)

// Tile is an unordered pair of pip values. Tiles are normalized so that
// Low <= High, making Tile{2,5} and Tile{5,2} the same value.
type Tile struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// NewTile returns the normalized tile for the given pip pair.
func NewTile(a, b int) Tile {
	if a > b {
		a, b = b, a
	}
	return Tile{Low: a, High: b}
}

// ID returns the wire identifier for the tile, e.g. "2-5".
func (t Tile) ID() string {
	return strconv.Itoa(t.Low) + "-" + strconv.Itoa(t.High)
}

// String implements fmt.Stringer using the wire identifier.
func (t Tile) String() string {
	return t.ID()
}

// ParseTile parses a wire identifier ("a-b") into a normalized tile.
func ParseTile(id string) (Tile, error) {
	id = strings.TrimSpace(id)
	low, high, ok := strings.Cut(id, "-")
	if !ok {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTileFormat, id)
	}
	a, err := strconv.Atoi(low)
	if err != nil || a < 0 {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTileFormat, id)
	}
	b, err := strconv.Atoi(high)
	if err != nil || b < 0 {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTileFormat, id)
	}
	return NewTile(a, b), nil
}

// SetType identifies a canonical domino tile population.
type SetType string

const (
	SetTypeDoubleSix      SetType = "double-six"
	SetTypeDoubleNine     SetType = "double-nine"
	SetTypeDoubleTwelve   SetType = "double-twelve"
	SetTypeDoubleFifteen  SetType = "double-fifteen"
	SetTypeDoubleEighteen SetType = "double-eighteen"
)

// SetTypes lists the supported set types in ascending population order.
func SetTypes() []SetType {
	return []SetType{
		SetTypeDoubleSix,
		SetTypeDoubleNine,
		SetTypeDoubleTwelve,
		SetTypeDoubleFifteen,
		SetTypeDoubleEighteen,
	}
}

// MaxPips returns the highest pip value in the set type's population.
func (s SetType) MaxPips() (int, error) {
	switch s {
	case SetTypeDoubleSix:
		return 6, nil
	case SetTypeDoubleNine:
		return 9, nil
	case SetTypeDoubleTwelve:
		return 12, nil
	case SetTypeDoubleFifteen:
		return 15, nil
	case SetTypeDoubleEighteen:
		return 18, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSetType, string(s))
	}
}

// Valid reports whether the set type is one of the supported populations.
func (s SetType) Valid() bool {
	_, err := s.MaxPips()
	return err == nil
}

// Population returns the canonical ordered list of unique tiles for the set
// type: every unordered pair a <= b for a, b in 0..MaxPips, doubles included.
func Population(setType SetType) ([]Tile, error) {
	maxPips, err := setType.MaxPips()
	if err != nil {
		return nil, err
	}
	tiles := make([]Tile, 0, (maxPips+1)*(maxPips+2)/2)
	for a := 0; a <= maxPips; a++ {
		for b := a; b <= maxPips; b++ {
			tiles = append(tiles, Tile{Low: a, High: b})
		}
	}
	return tiles, nil
}

// PopulationSize returns the number of unique tiles in the set type.
func PopulationSize(setType SetType) (int, error) {
	maxPips, err := setType.MaxPips()
	if err != nil {
		return 0, err
	}
	return (maxPips + 1) * (maxPips + 2) / 2, nil
}

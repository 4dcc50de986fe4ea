// Package images resolves domino tiles to canonical image references.
// It is a pure lookup: no tile state is read or mutated here.
package images

import (
	"fmt"
	"strings"

	"github.com/bantoinese83/boneyard/internal/domino"
)

const (
	frontAssetPath = "/static/images/tiles/domino-fronts"
	backAssetPath  = "/static/images/tiles/domino-backs/domino-back.png"
)

// Resolver builds image URLs for tile faces under a configured base URL.
// An empty base yields paths relative to the serving host.
type Resolver struct {
	baseURL string
}

// New returns a resolver rooted at baseURL.
func New(baseURL string) Resolver {
	return Resolver{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// FrontURL returns the canonical reference for the tile's face.
func (r Resolver) FrontURL(tile domino.Tile) string {
	return fmt.Sprintf("%s%s/domino-%d-%d.png", r.baseURL, frontAssetPath, tile.Low, tile.High)
}

// BackURL returns the canonical reference for the shared tile back.
func (r Resolver) BackURL() string {
	return r.baseURL + backAssetPath
}

// APIFrontURL returns the API redirect endpoint for the tile's face.
func (r Resolver) APIFrontURL(tile domino.Tile) string {
	return r.baseURL + "/api/images/tile/" + tile.ID()
}

// APIBackURL returns the API redirect endpoint for the tile's back.
func (r Resolver) APIBackURL(tile domino.Tile) string {
	return r.baseURL + "/api/images/tile/" + tile.ID() + "?back=true"
}

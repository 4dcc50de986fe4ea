// Package service implements the domino set engine: creating boneyards,
// drawing tiles, organizing piles, and broadcasting every mutation through
// the change-notification hub.
//
// Every operation on one set id is a single read-modify-write executed under
// that set's lock. The post-mutation summary is published before the lock is
// released, so observers receive notifications in mutation order.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bantoinese83/boneyard/internal/domino"
	"github.com/bantoinese83/boneyard/internal/images"
	"github.com/bantoinese83/boneyard/internal/notify"
	"github.com/bantoinese83/boneyard/internal/platform/id"
	"github.com/bantoinese83/boneyard/internal/platform/random"
	"github.com/bantoinese83/boneyard/internal/storage"
)

// createIDAttempts bounds regeneration when a generated set id collides.
const createIDAttempts = 5

// PileInfo summarizes one pile for lightweight polling.
type PileInfo struct {
	Count int `json:"count"`
}

// Summary is the counts-only view of a set, broadcast after every mutation.
type Summary struct {
	SetID          string              `json:"set_id"`
	SetType        string              `json:"set_type"`
	Multiplicity   int                 `json:"multiplicity"`
	TilesRemaining int                 `json:"tiles_remaining"`
	Piles          map[string]PileInfo `json:"piles"`
	DiscardCount   int                 `json:"discard_count"`
	CreatedAt      time.Time           `json:"created_at"`
	ExpiresAt      time.Time           `json:"expires_at"`
}

// TileInfo is a tile enriched with its image references.
type TileInfo struct {
	ID            string `json:"id"`
	FrontImageURL string `json:"front_image_url"`
	BackImageURL  string `json:"back_image_url"`
}

// eventPayload is the broadcast envelope: the action detail plus the
// post-mutation state summary.
type eventPayload struct {
	Action any     `json:"action,omitempty"`
	State  Summary `json:"state"`
}

// Service orchestrates domino set lifecycle and mutation behavior.
type Service struct {
	store    storage.Store
	hub      *notify.Hub
	resolver images.Resolver
	locks    *lockTable

	clock   func() time.Time
	newID   func() (string, error)
	newSeed func() (int64, error)
}

// Option configures optional service behavior.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides set id generation, for tests.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithSeedSource overrides shuffle seed generation, for tests.
func WithSeedSource(newSeed func() (int64, error)) Option {
	return func(s *Service) {
		if newSeed != nil {
			s.newSeed = newSeed
		}
	}
}

// New constructs the set engine on the given store, hub, and image resolver.
func New(store storage.Store, hub *notify.Hub, resolver images.Resolver, opts ...Option) *Service {
	service := &Service{
		store:    store,
		hub:      hub,
		resolver: resolver,
		locks:    newLockTable(),
		clock:    time.Now,
		newID:    id.NewID,
		newSeed:  random.NewSeed,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateSet builds a shuffled boneyard of the given type and multiplicity,
// persists it, and returns its summary.
func (s *Service) CreateSet(ctx context.Context, setType domino.SetType, multiplicity int) (Summary, error) {
	rng, err := s.rng()
	if err != nil {
		return Summary{}, err
	}
	tiles, err := domino.NewBoneyard(setType, multiplicity, rng)
	if err != nil {
		return Summary{}, err
	}

	now := s.clock().UTC()
	record := storage.Record{
		SetType:      string(setType),
		Multiplicity: multiplicity,
		Boneyard:     tileIDs(tiles),
		Piles:        map[string][]string{},
		Version:      1,
		CreatedAt:    now,
	}

	for attempt := 0; attempt < createIDAttempts; attempt++ {
		setID, err := s.newID()
		if err != nil {
			return Summary{}, fmt.Errorf("generate set id: %w", err)
		}
		record.SetID = setID
		err = s.store.Create(ctx, record)
		if errors.Is(err, storage.ErrDuplicateID) {
			continue
		}
		if err != nil {
			return Summary{}, err
		}
		created, err := s.store.Get(ctx, setID)
		if err != nil {
			return Summary{}, err
		}
		return summarize(created), nil
	}
	return Summary{}, fmt.Errorf("create set: %w", storage.ErrDuplicateID)
}

// GetSetSummary returns the counts-only view of a set.
func (s *Service) GetSetSummary(ctx context.Context, setID string) (Summary, error) {
	record, err := s.store.Get(ctx, setID)
	if err != nil {
		return Summary{}, mapStoreError(err)
	}
	return summarize(record), nil
}

// ListSets returns the ids of all live sets.
func (s *Service) ListSets(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// DeleteSet removes a set and notifies its observers with a terminal event.
func (s *Service) DeleteSet(ctx context.Context, setID string) error {
	release := s.locks.acquire(setID)
	defer release()
	ctx = context.WithoutCancel(ctx)

	if _, err := s.store.Get(ctx, setID); err != nil {
		return mapStoreError(err)
	}
	if err := s.store.Delete(ctx, setID); err != nil {
		return mapStoreError(err)
	}
	s.hub.Publish(setID, notify.Event{Type: notify.EventSetDeleted, SetID: setID})
	return nil
}

// Subscribe validates the set and registers a new observer, returning the
// registration together with the current state for the initial frame.
func (s *Service) Subscribe(ctx context.Context, setID string) (*notify.Subscriber, Summary, error) {
	record, err := s.store.Get(ctx, setID)
	if err != nil {
		return nil, Summary{}, mapStoreError(err)
	}
	return s.hub.Subscribe(setID), summarize(record), nil
}

// Draw removes count tiles from the front of the boneyard. The operation is
// all-or-nothing: drawing more than remain fails without mutating the set.
// A zero count is a no-op success.
func (s *Service) Draw(ctx context.Context, setID string, count int) ([]TileInfo, Summary, error) {
	if count < 0 {
		return nil, Summary{}, fmt.Errorf("%w: %d", domino.ErrInvalidCount, count)
	}

	var drawn []TileInfo
	summary, err := s.mutate(ctx, setID, notify.EventDraw, func(record *storage.Record) (any, bool, error) {
		if count > len(record.Boneyard) {
			return nil, false, fmt.Errorf("%w: requested %d, %d remaining",
				domino.ErrInsufficientTiles, count, len(record.Boneyard))
		}
		drawn = s.tileInfos(record.Boneyard[:count])
		if count == 0 {
			return nil, false, nil
		}
		record.Boneyard = record.Boneyard[count:]
		return map[string]any{"tiles_drawn": drawn}, true, nil
	})
	if err != nil {
		return nil, Summary{}, err
	}
	return drawn, summary, nil
}

// Shuffle permutes the boneyard. With onlyRemaining it shuffles the undrawn
// tiles in place; otherwise every tile in piles and discard folds back into
// the boneyard first. Pile names persist (emptied) either way.
func (s *Service) Shuffle(ctx context.Context, setID string, onlyRemaining bool) (Summary, error) {
	rng, err := s.rng()
	if err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, setID, notify.EventShuffle, func(record *storage.Record) (any, bool, error) {
		if !onlyRemaining {
			for _, name := range record.PileOrder {
				record.Boneyard = append(record.Boneyard, record.Piles[name]...)
				record.Piles[name] = nil
			}
			record.Boneyard = append(record.Boneyard, record.Discard...)
			record.Discard = nil
		}
		shuffleIDs(record.Boneyard, rng)
		return map[string]any{"only_remaining": onlyRemaining}, true, nil
	})
}

// CreatePile adds an empty named pile to the set.
func (s *Service) CreatePile(ctx context.Context, setID, name string) (Summary, error) {
	name, err := pileName(name)
	if err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, setID, notify.EventPileCreated, func(record *storage.Record) (any, bool, error) {
		if _, ok := record.Piles[name]; ok {
			return nil, false, fmt.Errorf("%w: %q", domino.ErrDuplicatePileName, name)
		}
		record.Piles[name] = []string{}
		record.PileOrder = append(record.PileOrder, name)
		return map[string]any{"pile": name}, true, nil
	})
}

// DeletePile removes a pile; its tiles move to the discard, never vanish.
func (s *Service) DeletePile(ctx context.Context, setID, name string) (Summary, error) {
	name, err := pileName(name)
	if err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, setID, notify.EventPileDeleted, func(record *storage.Record) (any, bool, error) {
		tiles, ok := record.Piles[name]
		if !ok {
			return nil, false, fmt.Errorf("%w: %q", domino.ErrPileNotFound, name)
		}
		record.Discard = append(record.Discard, tiles...)
		delete(record.Piles, name)
		record.PileOrder = removeString(record.PileOrder, name)
		return map[string]any{"pile": name, "discarded": len(tiles)}, true, nil
	})
}

// ListPile returns a snapshot of the pile's tiles in stored order.
func (s *Service) ListPile(ctx context.Context, setID, name string) ([]TileInfo, error) {
	name, err := pileName(name)
	if err != nil {
		return nil, err
	}
	record, err := s.store.Get(ctx, setID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	tiles, ok := record.Piles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domino.ErrPileNotFound, name)
	}
	return s.tileInfos(tiles), nil
}

// AddTilesToPile moves the referenced tiles into the destination pile from
// wherever they currently sit. Either every requested tile moves or none
// does; the error names the first unlocatable tile id.
func (s *Service) AddTilesToPile(ctx context.Context, setID, name string, tileIDs []string) (Summary, error) {
	name, err := pileName(name)
	if err != nil {
		return Summary{}, err
	}
	normalized, err := normalizeTileIDs(tileIDs)
	if err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, setID, notify.EventPileUpdated, func(record *storage.Record) (any, bool, error) {
		if _, ok := record.Piles[name]; !ok {
			return nil, false, fmt.Errorf("%w: %q", domino.ErrPileNotFound, name)
		}
		for _, tileID := range normalized {
			if !takeTile(record, tileID) {
				return nil, false, fmt.Errorf("%w: %q", domino.ErrTileNotFound, tileID)
			}
			record.Piles[name] = append(record.Piles[name], tileID)
		}
		return map[string]any{"pile": name, "tiles_added": normalized}, true, nil
	})
}

// DrawFromPile removes one uniformly random tile from the pile. The tile
// moves to the discard so the set's tile partition stays conserved.
func (s *Service) DrawFromPile(ctx context.Context, setID, name string) (TileInfo, Summary, error) {
	var drawn TileInfo
	pile, err := pileName(name)
	if err != nil {
		return TileInfo{}, Summary{}, err
	}
	rng, err := s.rng()
	if err != nil {
		return TileInfo{}, Summary{}, err
	}
	summary, err := s.mutate(ctx, setID, notify.EventPileDraw, func(record *storage.Record) (any, bool, error) {
		tiles, ok := record.Piles[pile]
		if !ok {
			return nil, false, fmt.Errorf("%w: %q", domino.ErrPileNotFound, pile)
		}
		if len(tiles) == 0 {
			return nil, false, fmt.Errorf("%w: %q", domino.ErrEmptyPile, pile)
		}
		pick := rng.Intn(len(tiles))
		tileID := tiles[pick]
		record.Piles[pile] = append(tiles[:pick:pick], tiles[pick+1:]...)
		record.Discard = append(record.Discard, tileID)
		drawn = s.tileInfo(tileID)
		return map[string]any{"pile": pile, "tile_drawn": drawn}, true, nil
	})
	if err != nil {
		return TileInfo{}, Summary{}, err
	}
	return drawn, summary, nil
}

// ReturnToBoneyard moves the referenced tiles from piles or discard back
// into the boneyard, appended in request order or merged by a fresh shuffle
// when reshuffle is set. All-or-nothing like AddTilesToPile.
func (s *Service) ReturnToBoneyard(ctx context.Context, setID string, tileIDs []string, reshuffle bool) (Summary, error) {
	normalized, err := normalizeTileIDs(tileIDs)
	if err != nil {
		return Summary{}, err
	}
	rng, err := s.rng()
	if err != nil {
		return Summary{}, err
	}
	return s.mutate(ctx, setID, notify.EventTilesReturn, func(record *storage.Record) (any, bool, error) {
		for _, tileID := range normalized {
			if !takeTileFromPlay(record, tileID) {
				return nil, false, fmt.Errorf("%w: %q", domino.ErrTileNotFound, tileID)
			}
			record.Boneyard = append(record.Boneyard, tileID)
		}
		if reshuffle {
			shuffleIDs(record.Boneyard, rng)
		}
		return map[string]any{"tiles_returned": normalized, "reshuffled": reshuffle}, true, nil
	})
}

// mutate runs one atomic read-modify-write under the set's lock. When fn
// reports a mutation, the record is written back and the event published
// before the lock is released. Once the lock is held the operation runs to
// completion even if the caller stopped waiting.
func (s *Service) mutate(ctx context.Context, setID, eventType string, fn func(record *storage.Record) (any, bool, error)) (Summary, error) {
	release := s.locks.acquire(setID)
	defer release()
	ctx = context.WithoutCancel(ctx)

	record, err := s.store.Get(ctx, setID)
	if err != nil {
		return Summary{}, mapStoreError(err)
	}

	action, mutated, err := fn(&record)
	if err != nil {
		return Summary{}, err
	}
	if !mutated {
		return summarize(record), nil
	}

	record.Version++
	if err := s.store.Put(ctx, setID, record); err != nil {
		return Summary{}, mapStoreError(err)
	}

	summary := summarize(record)
	s.hub.Publish(setID, notify.Event{
		Type:  eventType,
		SetID: setID,
		Data:  eventPayload{Action: action, State: summary},
	})
	return summary, nil
}

func (s *Service) rng() (*rand.Rand, error) {
	seed, err := s.newSeed()
	if err != nil {
		return nil, fmt.Errorf("generate shuffle seed: %w", err)
	}
	return rand.New(rand.NewSource(seed)), nil
}

func (s *Service) tileInfo(tileID string) TileInfo {
	tile, err := domino.ParseTile(tileID)
	if err != nil {
		return TileInfo{ID: tileID}
	}
	return TileInfo{
		ID:            tile.ID(),
		FrontImageURL: s.resolver.APIFrontURL(tile),
		BackImageURL:  s.resolver.APIBackURL(tile),
	}
}

func (s *Service) tileInfos(tileIDs []string) []TileInfo {
	infos := make([]TileInfo, len(tileIDs))
	for i, tileID := range tileIDs {
		infos[i] = s.tileInfo(tileID)
	}
	return infos
}

func summarize(record storage.Record) Summary {
	piles := make(map[string]PileInfo, len(record.Piles))
	for name, tiles := range record.Piles {
		piles[name] = PileInfo{Count: len(tiles)}
	}
	return Summary{
		SetID:          record.SetID,
		SetType:        record.SetType,
		Multiplicity:   record.Multiplicity,
		TilesRemaining: len(record.Boneyard),
		Piles:          piles,
		DiscardCount:   len(record.Discard),
		CreatedAt:      record.CreatedAt,
		ExpiresAt:      record.ExpiresAt,
	}
}

func mapStoreError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", domino.ErrSetNotFound, err)
	}
	return err
}

func pileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domino.ErrInvalidPileName)
	}
	return name, nil
}

// normalizeTileIDs parses and canonicalizes every requested tile id,
// rejecting the request on the first malformed one.
func normalizeTileIDs(tileIDs []string) ([]string, error) {
	normalized := make([]string, len(tileIDs))
	for i, tileID := range tileIDs {
		tile, err := domino.ParseTile(tileID)
		if err != nil {
			return nil, err
		}
		normalized[i] = tile.ID()
	}
	return normalized, nil
}

// takeTile removes one instance of the tile id from the boneyard, any pile,
// or the discard, searching in that order.
func takeTile(record *storage.Record, tileID string) bool {
	if removed, ok := removeOne(record.Boneyard, tileID); ok {
		record.Boneyard = removed
		return true
	}
	return takeTileFromPlay(record, tileID)
}

// takeTileFromPlay removes one instance of the tile id from a pile or the
// discard, never the boneyard.
func takeTileFromPlay(record *storage.Record, tileID string) bool {
	for _, name := range record.PileOrder {
		if removed, ok := removeOne(record.Piles[name], tileID); ok {
			record.Piles[name] = removed
			return true
		}
	}
	if removed, ok := removeOne(record.Discard, tileID); ok {
		record.Discard = removed
		return true
	}
	return false
}

func removeOne(tiles []string, tileID string) ([]string, bool) {
	for i, existing := range tiles {
		if existing == tileID {
			return append(tiles[:i:i], tiles[i+1:]...), true
		}
	}
	return tiles, false
}

func removeString(values []string, value string) []string {
	out, _ := removeOne(values, value)
	return out
}

func tileIDs(tiles []domino.Tile) []string {
	ids := make([]string, len(tiles))
	for i, tile := range tiles {
		ids[i] = tile.ID()
	}
	return ids
}

func shuffleIDs(tiles []string, rng *rand.Rand) {
	rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
}

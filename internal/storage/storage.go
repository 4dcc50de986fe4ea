// Package storage defines the persistence contract for domino set records.
//
// Implementations (in-memory and Redis) live in subpackages and must produce
// byte-identical serialized records so state is portable between backends.
//
// # Error Types
//
//   - ErrNotFound: the requested record is missing or has expired.
//   - ErrDuplicateID: a Create collided with an existing identifier.
//   - ErrUnavailable: the backend could not be reached; retryable.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing or expired.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID indicates a create collided with an existing set id.
	ErrDuplicateID = errors.New("duplicate set id")
	// ErrUnavailable indicates the backend is unreachable. Callers may retry.
	ErrUnavailable = errors.New("store unavailable")
)

// Record is the persisted aggregate for one domino set. Tile lists hold wire
// identifiers ("a-b") in their stored order. Field names are stable across
// versions; both backends marshal this exact document.
type Record struct {
	SetID        string              `json:"set_id"`
	SetType      string              `json:"set_type"`
	Multiplicity int                 `json:"multiplicity"`
	Boneyard     []string            `json:"boneyard"`
	Piles        map[string][]string `json:"piles"`
	PileOrder    []string            `json:"pile_order"`
	Discard      []string            `json:"discard"`
	Version      int                 `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

// Clone returns a deep copy of the record so callers can mutate freely.
func (r Record) Clone() Record {
	out := r
	out.Boneyard = append([]string(nil), r.Boneyard...)
	out.Discard = append([]string(nil), r.Discard...)
	out.PileOrder = append([]string(nil), r.PileOrder...)
	out.Piles = make(map[string][]string, len(r.Piles))
	for name, tiles := range r.Piles {
		out.Piles[name] = append([]string(nil), tiles...)
	}
	return out
}

// Store persists domino set records keyed by set id.
//
// Get refreshes the record's expiry (sliding TTL); both backends apply the
// same policy so expiry behavior is backend-independent. Put is a full
// replace and fails with ErrNotFound when the record vanished between the
// caller's read and write. Delete is idempotent.
type Store interface {
	Create(ctx context.Context, record Record) error
	Get(ctx context.Context, setID string) (Record, error)
	Put(ctx context.Context, setID string, record Record) error
	Delete(ctx context.Context, setID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Package memory provides the volatile in-process storage backend.
//
// The store is an explicitly owned component: tests and the service
// entrypoint construct isolated instances with New, and nothing is shared at
// package level. Expiry is sliding: every successful Get and Put pushes the
// record's expiry forward by the configured TTL. Expired records are
// invisible to readers even before the sweeper removes them.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bantoinese83/boneyard/internal/storage"
)

// Store provides a process-memory implementation of storage.Store.
type Store struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	records map[string]storage.Record
}

// Option configures optional store behavior.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New returns an empty in-memory store whose records expire after ttl of
// inactivity.
func New(ttl time.Duration, opts ...Option) *Store {
	store := &Store{
		ttl:     ttl,
		clock:   time.Now,
		records: make(map[string]storage.Record),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Create persists a new record. It fails with ErrDuplicateID when a live
// record already holds the set id.
func (s *Store) Create(ctx context.Context, record storage.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	setID := strings.TrimSpace(record.SetID)
	if setID == "" {
		return storage.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if existing, ok := s.records[setID]; ok && existing.ExpiresAt.After(now) {
		return storage.ErrDuplicateID
	}
	record.ExpiresAt = now.Add(s.ttl)
	s.records[setID] = record.Clone()
	return nil
}

// Get fetches a live record and slides its expiry forward.
func (s *Store) Get(ctx context.Context, setID string) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.liveLocked(setID)
	if !ok {
		return storage.Record{}, storage.ErrNotFound
	}
	record.ExpiresAt = s.clock().Add(s.ttl)
	s.records[setID] = record
	return record.Clone(), nil
}

// Put replaces a live record and slides its expiry forward. It fails with
// ErrNotFound when the record vanished between the caller's read and write.
func (s *Store) Put(ctx context.Context, setID string, record storage.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.liveLocked(setID); !ok {
		return storage.ErrNotFound
	}
	record.SetID = setID
	record.ExpiresAt = s.clock().Add(s.ttl)
	s.records[setID] = record.Clone()
	return nil
}

// Delete removes a record. Deleting an absent record is not an error.
func (s *Store) Delete(ctx context.Context, setID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, setID)
	return nil
}

// List returns the ids of all live records.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	ids := make([]string, 0, len(s.records))
	for setID, record := range s.records {
		if record.ExpiresAt.After(now) {
			ids = append(ids, setID)
		}
	}
	return ids, nil
}

// SweepExpired removes every expired record and returns their ids. The
// lifecycle sweeper calls this on its interval.
func (s *Store) SweepExpired(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	var expired []string
	for setID, record := range s.records {
		if !record.ExpiresAt.After(now) {
			expired = append(expired, setID)
			delete(s.records, setID)
		}
	}
	return expired, nil
}

// Close releases the store. The in-memory table holds no external resources.
func (s *Store) Close() error {
	return nil
}

// liveLocked returns the stored record when present and unexpired. The
// caller must hold s.mu.
func (s *Store) liveLocked(setID string) (storage.Record, bool) {
	record, ok := s.records[setID]
	if !ok {
		return storage.Record{}, false
	}
	if !record.ExpiresAt.After(s.clock()) {
		return storage.Record{}, false
	}
	return record, true
}

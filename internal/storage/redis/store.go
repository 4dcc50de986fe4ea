// Package redis provides the durable storage backend on a Redis server.
//
// Expiry is delegated to Redis: every write carries the configured TTL and
// every read refreshes it, so the sliding-expiry policy matches the
// in-memory backend without a sweeper. Records marshal to the same JSON
// document as the memory backend, keeping state portable between the two.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bantoinese83/boneyard/internal/platform/timeouts"
	"github.com/bantoinese83/boneyard/internal/storage"
)

// DefaultPrefix namespaces boneyard keys on a shared Redis server.
const DefaultPrefix = "domino:"

// Store provides a Redis-backed implementation of storage.Store.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Open connects to the Redis server at the provided URL
// (e.g. "redis://localhost:6379/0").
func Open(ctx context.Context, url, prefix string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.StoreRequest)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Create persists a new record with the configured TTL. It fails with
// ErrDuplicateID when the key already exists.
func (s *Store) Create(ctx context.Context, record storage.Record) error {
	setID := strings.TrimSpace(record.SetID)
	if setID == "" {
		return storage.ErrNotFound
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	created, err := s.client.SetNX(callCtx, s.key(setID), payload, s.ttl).Result()
	if err != nil {
		return unavailable("create record", err)
	}
	if !created {
		return storage.ErrDuplicateID
	}
	return nil
}

// Get fetches a record and refreshes its TTL.
func (s *Store) Get(ctx context.Context, setID string) (storage.Record, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	payload, err := s.client.Get(callCtx, s.key(setID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, unavailable("get record", err)
	}

	var record storage.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return storage.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	record.ExpiresAt = time.Now().UTC().Add(s.ttl)

	if err := s.client.Expire(callCtx, s.key(setID), s.ttl).Err(); err != nil {
		return storage.Record{}, unavailable("refresh record ttl", err)
	}
	return record, nil
}

// Put replaces an existing record and refreshes its TTL. It fails with
// ErrNotFound when the key expired or was deleted since the caller's read.
func (s *Store) Put(ctx context.Context, setID string, record storage.Record) error {
	record.SetID = setID
	record.ExpiresAt = time.Now().UTC().Add(s.ttl)
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	replaced, err := s.client.SetXX(callCtx, s.key(setID), payload, s.ttl).Result()
	if err != nil {
		return unavailable("put record", err)
	}
	if !replaced {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a record. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, setID string) error {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.client.Del(callCtx, s.key(setID)).Err(); err != nil {
		return unavailable("delete record", err)
	}
	return nil
}

// List returns the ids of all live records in the key namespace.
func (s *Store) List(ctx context.Context) ([]string, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	var ids []string
	iter := s.client.Scan(callCtx, 0, s.key("*"), 0).Iterator()
	for iter.Next(callCtx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.key("")))
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("scan records", err)
	}
	return ids, nil
}

func (s *Store) key(setID string) string {
	return s.prefix + "set:" + setID
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeouts.StoreRequest)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, storage.ErrUnavailable, err)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bantoinese83/boneyard/internal/notify"
	"github.com/bantoinese83/boneyard/internal/storage"
	"github.com/bantoinese83/boneyard/internal/storage/memory"
)

func TestSweeperPublishesTerminalEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	store := memory.New(time.Minute, memory.WithClock(func() time.Time { return now }))
	hub := notify.NewHub(4)

	if err := store.Create(ctx, newRecordForSweep("set-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	sub := hub.Subscribe("set-1")

	now = now.Add(2 * time.Minute)
	NewSweeper(store, hub, time.Minute).Sweep(ctx)

	select {
	case event := <-sub.Events():
		if event.Type != notify.EventSetExpired || event.SetID != "set-1" {
			t.Fatalf("received %+v, want set_expired on set-1", event)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for expiry event")
	}
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("events channel still open after expiry")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := memory.New(time.Minute)
	hub := notify.NewHub(4)
	sweeper := NewSweeper(store, hub, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestSweeperToleratesStoreErrors(t *testing.T) {
	t.Parallel()

	sweeper := NewSweeper(failingSweepStore{}, notify.NewHub(4), time.Minute)
	sweeper.Sweep(context.Background())
}

type failingSweepStore struct{}

func (failingSweepStore) SweepExpired(ctx context.Context) ([]string, error) {
	return nil, errors.New("store down")
}

func newRecordForSweep(setID string) storage.Record {
	return storage.Record{
		SetID:        setID,
		SetType:      "double-six",
		Multiplicity: 1,
		Boneyard:     []string{"0-0"},
		Piles:        map[string][]string{},
		Version:      1,
	}
}

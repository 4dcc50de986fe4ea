package service

import (
	"context"
	"log"
	"time"

	"github.com/bantoinese83/boneyard/internal/notify"
)

// DefaultSweepInterval is how often the sweeper checks for expired sets.
const DefaultSweepInterval = 30 * time.Second

// ExpiredSweeper removes sets whose idle TTL has elapsed and reports the
// removed ids. The redis backend does not implement it because key expiry
// happens server side.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context) ([]string, error)
}

// Sweeper periodically reaps expired sets and notifies their observers.
type Sweeper struct {
	store    ExpiredSweeper
	hub      *notify.Hub
	interval time.Duration
}

// NewSweeper builds a sweeper on the given store. A non-positive interval
// falls back to DefaultSweepInterval.
func NewSweeper(store ExpiredSweeper, hub *notify.Hub, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: store, hub: hub, interval: interval}
}

// Run sweeps on the configured interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single pass, publishing a terminal event per expired set.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.store.SweepExpired(ctx)
	if err != nil {
		log.Printf("sweep expired sets: %v", err)
		return
	}
	for _, setID := range expired {
		s.hub.Publish(setID, notify.Event{Type: notify.EventSetExpired, SetID: setID})
		log.Printf("set expired set_id=%s", setID)
	}
}

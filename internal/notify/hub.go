// Package notify implements the per-set change-notification hub.
//
// Every successful mutation publishes one event to the hub; the hub fans the
// event out to all current observers of that set. Delivery is fire-and-forget
// per observer: each subscriber owns a bounded queue, and when the queue is
// full the oldest pending event is dropped and a drop counter increments.
// Publish never blocks, so a stalled observer cannot stall mutation
// throughput.
package notify

import "sync"

// DefaultBuffer is the per-subscriber event queue depth.
const DefaultBuffer = 16

// Event types emitted by the set engine.
const (
	EventShuffle      = "shuffle"
	EventDraw         = "draw"
	EventPileCreated  = "pile_created"
	EventPileDeleted  = "pile_deleted"
	EventPileUpdated  = "pile_updated"
	EventPileDraw     = "pile_draw"
	EventTilesReturn  = "tiles_returned"
	EventSetDeleted   = "set_deleted"
	EventSetExpired   = "set_expired"
)

// Event describes one observed mutation of a domino set.
type Event struct {
	Type  string `json:"event"`
	SetID string `json:"set_id"`
	Data  any    `json:"data,omitempty"`
}

// Terminal reports whether the event ends the subscription.
func (e Event) Terminal() bool {
	return e.Type == EventSetDeleted || e.Type == EventSetExpired
}

// Hub routes events to the observers of each set.
type Hub struct {
	buffer int

	mu   sync.Mutex
	sets map[string]map[*Subscriber]struct{}
}

// NewHub returns an empty hub with the given per-subscriber queue depth.
// A depth below one falls back to DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer: buffer,
		sets:   make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new observer for the set.
func (h *Hub) Subscribe(setID string) *Subscriber {
	sub := &Subscriber{
		hub:    h,
		setID:  setID,
		events: make(chan Event, h.buffer),
	}

	h.mu.Lock()
	subs, ok := h.sets[setID]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.sets[setID] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers the event to every current observer of the set,
// best-effort. A terminal event also closes the set's subscriptions; later
// publishes for the set reach nobody until someone subscribes again.
func (h *Hub) Publish(setID string, event Event) {
	h.mu.Lock()
	subs := h.sets[setID]
	targets := make([]*Subscriber, 0, len(subs))
	for sub := range subs {
		targets = append(targets, sub)
	}
	if event.Terminal() {
		delete(h.sets, setID)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(event)
		if event.Terminal() {
			sub.finish()
		}
	}
}

// SubscriberCount reports the current number of observers of the set.
func (h *Hub) SubscriberCount(setID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sets[setID])
}

func (h *Hub) unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if subs, ok := h.sets[sub.setID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.sets, sub.setID)
		}
	}
	h.mu.Unlock()
}

// Subscriber is one observer's registration with bounded delivery.
type Subscriber struct {
	hub    *Hub
	setID  string
	events chan Event

	mu      sync.Mutex
	closed  bool
	dropped uint64
}

// SetID returns the observed set's identifier.
func (s *Subscriber) SetID() string {
	return s.setID
}

// Events returns the subscriber's receive channel. The channel closes after
// a terminal event or Close.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Dropped reports how many events were discarded because the queue was full.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close unregisters the observer and closes its channel. Safe to call more
// than once, including after a terminal event.
func (s *Subscriber) Close() {
	s.hub.unsubscribe(s)
	s.finish()
}

// deliver enqueues the event, evicting the oldest pending event when the
// queue is full. It never blocks.
func (s *Subscriber) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.events <- event:
			return
		default:
		}
		select {
		case <-s.events:
			s.dropped++
		default:
		}
	}
}

func (s *Subscriber) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

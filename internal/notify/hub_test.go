package notify

import (
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if !ok {
			t.Fatal("events channel closed, want event")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func recvClosed(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if ok {
			t.Fatalf("got event %+v, want closed channel", event)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestHubFanOut(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	first := hub.Subscribe("set-1")
	second := hub.Subscribe("set-1")
	other := hub.Subscribe("set-2")

	hub.Publish("set-1", Event{Type: EventDraw, SetID: "set-1"})

	for _, sub := range []*Subscriber{first, second} {
		event := recvEvent(t, sub)
		if event.Type != EventDraw || event.SetID != "set-1" {
			t.Fatalf("received %+v, want draw on set-1", event)
		}
	}
	select {
	case event := <-other.Events():
		t.Fatalf("subscriber on set-2 received %+v", event)
	default:
	}
}

func TestHubSubscriberCount(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	if got := hub.SubscriberCount("set-1"); got != 0 {
		t.Fatalf("SubscriberCount() = %d, want 0", got)
	}
	sub := hub.Subscribe("set-1")
	if got := hub.SubscriberCount("set-1"); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}
	sub.Close()
	if got := hub.SubscriberCount("set-1"); got != 0 {
		t.Fatalf("SubscriberCount() after Close = %d, want 0", got)
	}
}

func TestHubDropOldest(t *testing.T) {
	t.Parallel()

	hub := NewHub(2)
	sub := hub.Subscribe("set-1")

	// Nothing is reading, so the third publish evicts the oldest event.
	for i := 0; i < 3; i++ {
		hub.Publish("set-1", Event{Type: EventShuffle, SetID: "set-1", Data: i})
	}

	if got := sub.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}
	first := recvEvent(t, sub)
	if first.Data != 1 {
		t.Fatalf("first buffered event carries %v, want 1 after oldest dropped", first.Data)
	}
	second := recvEvent(t, sub)
	if second.Data != 2 {
		t.Fatalf("second buffered event carries %v, want 2", second.Data)
	}
}

func TestHubTerminalClosesSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	sub := hub.Subscribe("set-1")

	hub.Publish("set-1", Event{Type: EventSetDeleted, SetID: "set-1"})

	event := recvEvent(t, sub)
	if event.Type != EventSetDeleted {
		t.Fatalf("received %+v, want terminal set_deleted", event)
	}
	recvClosed(t, sub)

	if got := hub.SubscriberCount("set-1"); got != 0 {
		t.Fatalf("SubscriberCount() after terminal = %d, want 0", got)
	}

	// Publishing after the terminal event reaches nobody and must not panic.
	hub.Publish("set-1", Event{Type: EventDraw, SetID: "set-1"})
}

func TestSubscriberCloseIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	sub := hub.Subscribe("set-1")
	sub.Close()
	sub.Close()
	recvClosed(t, sub)

	// A closed subscriber silently ignores further publishes.
	hub.Publish("set-1", Event{Type: EventDraw, SetID: "set-1"})
}

func TestEventTerminal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		eventType string
		want      bool
	}{
		{EventSetDeleted, true},
		{EventSetExpired, true},
		{EventDraw, false},
		{EventPileUpdated, false},
	}
	for _, tc := range cases {
		event := Event{Type: tc.eventType}
		if got := event.Terminal(); got != tc.want {
			t.Fatalf("Terminal(%s) = %v, want %v", tc.eventType, got, tc.want)
		}
	}
}

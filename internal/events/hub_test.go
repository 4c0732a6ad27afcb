package events

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/undeadlabs/arena/internal/obslog"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	sub1, cancel1 := h.Subscribe()
	sub2, cancel2 := h.Subscribe()
	defer cancel2()

	h.Publish(Event{Type: "battle_started", Room: "r1"})

	for _, sub := range []<-chan Event{sub1, sub2} {
		select {
		case ev := <-sub:
			if ev.Type != "battle_started" || ev.Room != "r1" || ev.At.IsZero() {
				t.Fatalf("bad event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}

	cancel1()
	if _, open := <-sub1; open {
		t.Fatal("cancelled subscription left channel open")
	}
	if h.SubscriberCount() != 1 {
		t.Fatalf("subscriber count = %d", h.SubscriberCount())
	}

	// publishing to a detached subscriber must not panic or block
	h.Publish(Event{Type: "battle_settled", Room: "r1"})
	select {
	case ev := <-sub2:
		if ev.Type != "battle_settled" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber starved")
	}
}

func TestHubDropsWhenSaturated(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	t.Cleanup(obslog.SetForTest(zap.New(core)))

	h := NewHub()
	sub, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+16; i++ {
		h.Publish(Event{Type: "question_answered"})
	}
	// full buffer delivered, overflow dropped with a debug trace
	if len(sub) != subscriberBuffer {
		t.Fatalf("buffered %d events, want %d", len(sub), subscriberBuffer)
	}
	if dropped := logs.FilterMessage("event dropped for slow subscriber").Len(); dropped != 16 {
		t.Fatalf("logged %d drops, want 16", dropped)
	}
}

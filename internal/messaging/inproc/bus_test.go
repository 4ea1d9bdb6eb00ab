package inproc

import (
	"errors"
	"testing"

	"scheduleall/internal/domain"
)

func TestPublishFansOut(t *testing.T) {
	bus := New(4)
	a := bus.Register("a")
	b := bus.Register("b")

	if err := bus.Publish(domain.Event{Kind: domain.EventOverrideApplied, Work: "Cooking"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for name, ch := range map[string]<-chan domain.Event{"a": a, "b": b} {
		select {
		case evt := <-ch:
			if evt.Work != "Cooking" {
				t.Fatalf("%s: unexpected event %+v", name, evt)
			}
		default:
			t.Fatalf("%s: expected event", name)
		}
	}
}

func TestPublishReportsFullQueue(t *testing.T) {
	bus := New(1)
	_ = bus.Register("slow")
	if err := bus.Publish(domain.Event{Kind: domain.EventManualEdit}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	err := bus.Publish(domain.Event{Kind: domain.EventManualEdit})
	if !errors.Is(err, ErrSubscriberQueueFull) {
		t.Fatalf("expected ErrSubscriberQueueFull, got %v", err)
	}
}

func TestSendAndUnregister(t *testing.T) {
	bus := New(2)
	ch := bus.Register("ws")
	if again := bus.Register("ws"); again != ch {
		t.Fatalf("expected register to be idempotent")
	}
	if err := bus.Send("missing", domain.Event{}); !errors.Is(err, ErrSubscriberNotRegistered) {
		t.Fatalf("expected ErrSubscriberNotRegistered, got %v", err)
	}
	if err := bus.Send("ws", domain.Event{Kind: domain.EventTeardown}); err != nil {
		t.Fatalf("send: %v", err)
	}
	bus.Unregister("ws")
	if evt, ok := <-ch; !ok || evt.Kind != domain.EventTeardown {
		t.Fatalf("expected buffered event before close, got %+v %v", evt, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed")
	}
	if got := bus.Subscribers(); len(got) != 0 {
		t.Fatalf("expected no subscribers, got %v", got)
	}
}

package inproc

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"scheduleall/internal/domain"
)

var (
	ErrSubscriberNotRegistered = errors.New("subscriber is not registered in bus")
	ErrSubscriberQueueFull     = errors.New("subscriber queue is full")
)

type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan domain.Event
	buffer int
}

func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[string]chan domain.Event),
		buffer: buffer,
	}
}

func (b *Bus) Register(name string) <-chan domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[name]; ok {
		return ch
	}
	ch := make(chan domain.Event, b.buffer)
	b.subs[name] = ch
	return ch
}

func (b *Bus) Unregister(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[name]
	if !ok {
		return
	}
	delete(b.subs, name)
	close(ch)
}

// Publish fans evt out to every subscriber without blocking. Subscribers
// whose queue is full miss the event.
func (b *Bus) Publish(evt domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var errs []error
	for name, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrSubscriberQueueFull))
		}
	}
	return errors.Join(errs...)
}

// Send delivers evt to a single subscriber.
func (b *Bus) Send(name string, evt domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch, ok := b.subs[name]
	if !ok {
		return ErrSubscriberNotRegistered
	}
	select {
	case ch <- evt:
		return nil
	default:
		return ErrSubscriberQueueFull
	}
}

func (b *Bus) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.subs))
	for name := range b.subs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

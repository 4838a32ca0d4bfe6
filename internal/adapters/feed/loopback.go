package feed

import (
	"context"
	"sync"

	"carmandi-marketplace-client/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// Loopback is an in-process outbound.Feed: rooms fan out to every
// subscriber in the same process, the publisher included, which mirrors the
// echo behavior of the real service. It backs tests and offline runs where
// no feed service is reachable.
type Loopback struct {
	rooms  map[string][]chan<- outbound.Event
	mu     sync.RWMutex
	closed bool
	logger zerolog.Logger
}

// NewLoopback creates an in-process feed
func NewLoopback(logger zerolog.Logger) *Loopback {
	return &Loopback{
		rooms:  make(map[string][]chan<- outbound.Event),
		logger: logger.With().Str("component", "loopback_feed").Logger(),
	}
}

// Join subscribes a channel to a room
func (l *Loopback) Join(ctx context.Context, room string, events chan<- outbound.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return context.Canceled
	}
	l.rooms[room] = append(l.rooms[room], events)
	return nil
}

// Leave removes every subscription for a room held by this process
func (l *Loopback) Leave(ctx context.Context, room string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.rooms, room)
	return nil
}

// Publish fans an event out to all subscribers of a room
func (l *Loopback) Publish(ctx context.Context, room string, event outbound.Event) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return context.Canceled
	}

	for _, events := range l.rooms[room] {
		select {
		case events <- event:
		default:
			l.logger.Warn().Str("room", room).Msg("Subscriber channel full, dropping event")
		}
	}
	return nil
}

// Close drops all subscriptions
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	clear(l.rooms)
	return nil
}

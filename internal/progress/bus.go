// Package progress fans out ProgressEvent updates from the orchestrator to
// any number of subscribers, including the websocket publisher.
package progress

import (
	"sync"

	"github.com/audiobound/audiobound/pkg/types"
)

// Bus is an in-process publish/subscribe hub for one job's progress
// events. Events are published during the orchestrator's run: by the
// orchestrator itself, and by the review hook it calls (internal/api's
// hook publishes a "review" event while it waits for a decision).
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan types.ProgressEvent
	nextID      int
	lastByStage map[string]types.ProgressEvent
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int]chan types.ProgressEvent),
		lastByStage: make(map[string]types.ProgressEvent),
	}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function. The channel is buffered so a slow subscriber
// doesn't block publishing; if it fills, the oldest unread event is
// dropped in favour of the newest.
func (b *Bus) Subscribe() (<-chan types.ProgressEvent, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan types.ProgressEvent, 32)
	b.subscribers[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// Publish emits event to every current subscriber and records it as the
// latest event for its stage.
func (b *Bus) Publish(event types.ProgressEvent) {
	b.mu.Lock()
	b.lastByStage[event.Stage] = event
	subs := make([]chan types.ProgressEvent, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop the oldest queued event and retry once so a lagging
			// subscriber sees the latest state rather than stalling.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// Snapshot returns the most recent event seen for every stage.
func (b *Bus) Snapshot() map[string]types.ProgressEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]types.ProgressEvent, len(b.lastByStage))
	for k, v := range b.lastByStage {
		out[k] = v
	}
	return out
}

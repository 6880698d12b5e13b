// Package feed implements the live quote broadcast path: a single Topic that
// fans published mutation batches out to every attached raw feed, a Mutator
// that produces one batch per tick, and per-consumer Subscriptions that narrow
// the shared broadcast to a requested identity set.
package feed

import (
	"log"
	"sync"

	"quotefeed/internal/model"
)

// defaultFeedBuffer is the per-subscriber queue bound when none is configured.
const defaultFeedBuffer = 16

// Topic broadcasts each published batch to all currently-attached feeds.
// Publish is non-blocking: a slow subscriber only loses its own oldest queued
// batches (drop-oldest), it never delays the publisher or other subscribers.
// A feed attached after a publish never sees that batch — there is no replay.
type Topic struct {
	mu      sync.RWMutex
	feeds   map[*Feed]bool
	bufSize int
	nextID  uint64

	// OnDrop is called with the feed's ID when a batch is evicted from a
	// full subscriber queue.
	OnDrop func(feedID uint64)
}

// Feed is one raw subscriber queue on a Topic. Single-consumer: the channel
// returned by C must be drained by exactly one goroutine.
type Feed struct {
	id uint64
	ch chan model.Batch
}

// ID returns the feed's attach-order identifier, used for drop accounting.
func (f *Feed) ID() uint64 { return f.id }

// C returns the feed's batch channel. It is closed when the feed is detached
// or the topic is closed.
func (f *Feed) C() <-chan model.Batch { return f.ch }

// NewTopic creates a Topic with the given per-subscriber queue bound.
// bufSize <= 0 falls back to the default of 16.
func NewTopic(bufSize int) *Topic {
	if bufSize <= 0 {
		bufSize = defaultFeedBuffer
	}
	return &Topic{
		feeds:   make(map[*Feed]bool),
		bufSize: bufSize,
	}
}

// Attach registers a new raw feed starting now.
func (t *Topic) Attach() *Feed {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	f := &Feed{
		id: t.nextID,
		ch: make(chan model.Batch, t.bufSize),
	}
	t.feeds[f] = true
	return f
}

// Detach unregisters a feed and closes its channel. Detaching an
// already-detached feed is a no-op.
func (t *Topic) Detach(f *Feed) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.feeds[f] {
		return
	}
	delete(t.feeds, f)
	close(f.ch)
}

// Publish fans the batch out to every attached feed without blocking.
// When a feed's queue is full the oldest queued batch is evicted to make
// room, so a stalled consumer sees the freshest data once it resumes.
func (t *Topic) Publish(batch model.Batch) {
	if len(batch) == 0 {
		// Empty batches are forbidden upstream; guard anyway.
		log.Println("[topic] dropping empty batch")
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for f := range t.feeds {
		select {
		case f.ch <- batch:
			continue
		default:
		}
		// Queue full — evict the oldest entry, then retry once. The consumer
		// may race us for the receive; either way a slot opens up.
		select {
		case <-f.ch:
			if t.OnDrop != nil {
				t.OnDrop(f.id)
			}
		default:
		}
		select {
		case f.ch <- batch:
		default:
		}
	}
}

// FeedCount returns the number of currently-attached feeds.
func (t *Topic) FeedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.feeds)
}

// Close detaches every feed. Used at shutdown so subscriber loops unblock.
func (t *Topic) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for f := range t.feeds {
		delete(t.feeds, f)
		close(f.ch)
	}
}

package otel

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// DefaultRingSize is the default ring buffer capacity.
const DefaultRingSize = 512

// RingBuffer keeps the latest events for the dashboard. Safe for
// concurrent use.
type RingBuffer struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewRingBuffer creates a ring buffer holding size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{events: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is copied.
func (r *RingBuffer) Push(e Event) {
	e.Extra = maps.Clone(e.Extra)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = e
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.full = true
	}
}

// ordered returns the buffered events oldest first. Caller holds mu.
func (r *RingBuffer) ordered() []Event {
	if !r.full {
		if r.next == 0 {
			return nil
		}
		return slices.Clone(r.events[:r.next])
	}
	return append(slices.Clone(r.events[r.next:]), r.events[:r.next]...)
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ordered()
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	all := r.Snapshot()
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.events)
	}
	return r.next
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.events)
}

// ForFeed returns up to n of the newest events for feed, oldest first.
func (r *RingBuffer) ForFeed(feed string, n int) []Event {
	if n <= 0 {
		return nil
	}
	var out []Event
	for _, e := range r.Snapshot() {
		if e.Feed == feed {
			out = append(out, e)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	stats := make(map[EventKind]int)
	for _, e := range r.Snapshot() {
		stats[e.Kind]++
	}
	return stats
}

// FeedHealth summarizes one feed's buffered poll events.
type FeedHealth struct {
	Feed      string
	Polls     int
	Errors    int
	Fallbacks int
	Skips     int
	LastErr   string
	LastAt    time.Time
}

// Health returns a summary per feed that has poll events, sorted by feed.
func (r *RingBuffer) Health() []FeedHealth {
	byFeed := make(map[string]*FeedHealth)
	for _, e := range r.Snapshot() {
		if e.Feed == "" {
			continue
		}
		h, ok := byFeed[e.Feed]
		if !ok {
			h = &FeedHealth{Feed: e.Feed}
			byFeed[e.Feed] = h
		}
		switch e.Kind {
		case KindPollStart:
			h.Polls++
		case KindPollError:
			h.Errors++
			h.LastErr = e.Err
		case KindPollFallback:
			h.Fallbacks++
		case KindPollSkip:
			h.Skips++
		case KindPollComplete:
			h.LastErr = ""
		default:
			continue
		}
		h.LastAt = e.Time
	}

	out := make([]FeedHealth, 0, len(byFeed))
	for _, h := range byFeed {
		out = append(out, *h)
	}
	slices.SortFunc(out, func(a, b FeedHealth) int {
		if a.Feed < b.Feed {
			return -1
		}
		if a.Feed > b.Feed {
			return 1
		}
		return 0
	})
	return out
}

// Package derive holds the pure calculators that turn feed records into
// display values: countdowns, lunar phases, stargazing quality and
// geomagnetic risk. Nothing here does I/O.
package derive

import (
	"fmt"
	"sync"
	"time"
)

// ExpiredText is shown once a countdown reaches its target.
const ExpiredText = "Launch time has passed"

// Remaining is a countdown broken into display units.
type Remaining struct {
	Total   time.Duration
	Days    int
	Hours   int
	Minutes int
	Seconds int
	Expired bool
}

// Countdown returns the time left until target. At or after target the
// result is the terminal expired state with every unit zero.
func Countdown(target, now time.Time) Remaining {
	d := target.Sub(now)
	if d <= 0 {
		return Remaining{Expired: true}
	}
	secs := int64(d / time.Second)
	return Remaining{
		Total:   d,
		Days:    int(secs / 86400),
		Hours:   int(secs % 86400 / 3600),
		Minutes: int(secs % 3600 / 60),
		Seconds: int(secs % 60),
	}
}

func (r Remaining) String() string {
	if r.Expired {
		return ExpiredText
	}
	return fmt.Sprintf("%dd %dh %dm %ds", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// ExpiryLatch wraps Countdown and calls onExpire exactly once per target
// instant. A new target re-arms the latch.
type ExpiryLatch struct {
	mu       sync.Mutex
	onExpire func(target time.Time)
	fired    map[int64]bool
}

// NewExpiryLatch creates a latch. onExpire runs on the caller's goroutine.
func NewExpiryLatch(onExpire func(target time.Time)) *ExpiryLatch {
	return &ExpiryLatch{
		onExpire: onExpire,
		fired:    make(map[int64]bool),
	}
}

// Observe computes the countdown and fires the callback when target has
// been reached for the first time.
func (l *ExpiryLatch) Observe(target, now time.Time) Remaining {
	r := Countdown(target, now)
	if !r.Expired || target.IsZero() {
		return r
	}

	key := target.UnixNano()
	l.mu.Lock()
	already := l.fired[key]
	if !already {
		l.fired[key] = true
	}
	l.mu.Unlock()

	if !already && l.onExpire != nil {
		l.onExpire(target)
	}
	return r
}

// Reset re-arms the latch for target so the next expired observation fires
// again.
func (l *ExpiryLatch) Reset(target time.Time) {
	l.mu.Lock()
	delete(l.fired, target.UnixNano())
	l.mu.Unlock()
}

// Fired reports whether the latch has fired for target.
func (l *ExpiryLatch) Fired(target time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fired[target.UnixNano()]
}

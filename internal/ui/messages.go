// Package ui provides the Bubble Tea dashboard for skydeck.
package ui

import (
	"time"

	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/tutor"
)

// SnapshotLoaded carries every feed's state, in display order.
type SnapshotLoaded struct {
	States []coord.State
}

// FeedUpdated is sent by the coordinator whenever one feed's state changes.
type FeedUpdated struct {
	State coord.State
}

// RefreshRequested reports whether a manual refresh was accepted. A
// refresh is refused while the feed is already fetching.
type RefreshRequested struct {
	Feed     string
	Accepted bool
}

// CountdownTick fires once a second to advance countdowns.
type CountdownTick struct {
	At time.Time
}

// AnswerReady is sent when the tutor replies to a question asked from the
// dashboard.
type AnswerReady struct {
	Question string
	Reply    tutor.Reply
	Err      error
}

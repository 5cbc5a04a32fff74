// Package otel records structured lifecycle events for skydeck.
//
// Events are written as JSONL by an asynchronous Logger and can be mirrored
// into a RingBuffer for live display in the dashboard and the API.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Poll lifecycle
	KindPollStart    EventKind = "poll.start"
	KindPollComplete EventKind = "poll.complete"
	KindPollError    EventKind = "poll.error"
	KindPollSkip     EventKind = "poll.skip"  // trigger dropped while fetching
	KindPollStale    EventKind = "poll.stale" // result arrived after stop
	KindPollFallback EventKind = "poll.fallback"

	// Countdown
	KindCountdownExpire EventKind = "countdown.expire"

	// Tutor
	KindTutorAsk   EventKind = "tutor.ask"
	KindTutorReply EventKind = "tutor.reply"
	KindTutorError EventKind = "tutor.error"

	// Store
	KindStoreError EventKind = "store.error"

	// API
	KindAPIRequest EventKind = "api.request"

	// UI
	KindKeyPress EventKind = "ui.key"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Message tracing, only when SKYDECK_TRACE is set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is one lifecycle record. Kind is required; Time and RunID are
// filled in by the Logger.
type Event struct {
	Time    time.Time      `json:"t"`
	Level   Level          `json:"level,omitempty"`
	Kind    EventKind      `json:"kind"`
	Comp    string         `json:"comp,omitempty"` // coord, api, ui, tutor, store
	RunID   string         `json:"run_id,omitempty"`
	Feed    string         `json:"feed,omitempty"`
	Gen     uint64         `json:"gen,omitempty"` // poller generation
	Dur     time.Duration  `json:"-"`
	DurMs   float64        `json:"dur_ms,omitempty"`
	Count   int            `json:"count,omitempty"`
	ErrKind string         `json:"err_kind,omitempty"`
	Err     string         `json:"err,omitempty"`
	Msg     string         `json:"msg,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// MarshalJSON renders Dur as fractional milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}

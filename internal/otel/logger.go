package otel

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds events waiting to be written.
const queueSize = 4096

type queued struct {
	line []byte
	ev   Event
}

// Logger writes events as JSONL from a single background goroutine.
// Emit never blocks: when the queue is full the event is counted as dropped.
type Logger struct {
	runID string
	out   io.Writer
	queue chan queued
	done  chan struct{}

	// sendMu makes Close wait for in-progress sends before closing queue.
	sendMu sync.RWMutex
	closed bool

	ringMu sync.Mutex
	ring   *RingBuffer

	dropped atomic.Uint64
	file    *os.File
}

// NewLogger starts a Logger writing to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	var id [8]byte
	_, _ = rand.Read(id[:])

	l := &Logger{
		runID: fmt.Sprintf("%x", id[:]),
		out:   w,
		queue: make(chan queued, queueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

// NewNullLogger returns a Logger that discards output.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

// OpenFile starts a Logger appending to dir/events.jsonl.
func OpenFile(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	l := NewLogger(f)
	l.file = f
	return l, nil
}

func (l *Logger) run() {
	defer close(l.done)
	for q := range l.queue {
		if _, err := l.out.Write(q.line); err != nil {
			l.dropped.Add(1)
		}
		l.ringMu.Lock()
		rb := l.ring
		l.ringMu.Unlock()
		if rb != nil {
			rb.Push(q.ev)
		}
	}
}

// Emit queues e. Time defaults to now and RunID is always set.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.RunID = l.runID

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	l.sendMu.RLock()
	defer l.sendMu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- queued{line: line, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is recorded as empty.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: msg})
}

// SetRingBuffer mirrors every written event into rb.
func (l *Logger) SetRingBuffer(rb *RingBuffer) {
	l.ringMu.Lock()
	defer l.ringMu.Unlock()
	l.ring = rb
}

// RunID identifies this process run in every event.
func (l *Logger) RunID() string {
	return l.runID
}

// Dropped returns the number of events lost so far.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close drains the queue and stops the writer. Later Emits are dropped.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.sendMu.Lock()
	if l.closed {
		l.sendMu.Unlock()
		return
	}
	l.closed = true
	close(l.queue)
	l.sendMu.Unlock()

	<-l.done
	if l.file != nil {
		l.file.Close()
	}
	if d := l.dropped.Load(); d > 0 {
		fmt.Fprintf(os.Stderr, "skydeck: %d events dropped in run %s\n", d, l.runID)
	}
}

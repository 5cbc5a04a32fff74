package coord

import (
	"context"
	"sync"
	"time"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/otel"
)

// DefaultFetchTimeout bounds a single adapter Load.
const DefaultFetchTimeout = 30 * time.Second

// State is a copy of one feed's poll state. Readers never share the
// poller's internal slice.
type State struct {
	Feed          string         `json:"feed"`
	Data          []model.Record `json:"data"`
	Loading       bool           `json:"loading"`
	Err           *fetch.Error   `json:"-"`
	LastUpdated   time.Time      `json:"last_updated"`
	Fetching      bool           `json:"fetching"`
	UsingFallback bool           `json:"using_fallback"`
	Interval      time.Duration  `json:"-"`
	Attempts      int            `json:"attempts"`
	Failures      int            `json:"failures"`
}

// HasData reports whether the first attempt has produced something to show.
func (s State) HasData() bool {
	return s.Data != nil
}

// ErrorText renders Err for display; empty when there is no error.
func (s State) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func (s State) clone() State {
	if s.Data != nil {
		data := make([]model.Record, len(s.Data))
		copy(data, s.Data)
		s.Data = data
	}
	return s
}

// Poller owns the state of one feed. A tick or Refresh moves it from idle to
// fetching; a trigger that arrives while fetching is dropped. After Stop no
// result is applied.
type Poller struct {
	adapter  feeds.Adapter
	interval time.Duration
	timeout  time.Duration
	events   *otel.Logger
	now      func() time.Time
	onUpdate func(State)

	mu      sync.Mutex
	state   State
	gen     uint64
	stopped bool
	started bool

	base     context.Context
	stopCh   chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
	inflight sync.WaitGroup
}

// PollerOptions configures a Poller. Zero values pick defaults.
type PollerOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	Events   *otel.Logger
	Now      func() time.Time
	OnUpdate func(State)
}

// NewPoller creates a Poller for adapter. It does nothing until Start or Refresh.
func NewPoller(adapter feeds.Adapter, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Poller{
		adapter:  adapter,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		events:   opts.Events,
		now:      opts.Now,
		onUpdate: opts.OnUpdate,
		state: State{
			Feed:     adapter.Name(),
			Loading:  true,
			Interval: opts.Interval,
		},
		base:     context.Background(),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Name returns the feed name.
func (p *Poller) Name() string {
	return p.adapter.Name()
}

// Start polls immediately and then on every interval until ctx is done or
// Stop is called. Fetches run on a context detached from ctx so that
// stopping the timer never aborts a request in flight.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.base = context.WithoutCancel(ctx)
	p.mu.Unlock()

	go p.loop(ctx)
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.loopDone)

	p.Refresh()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Refresh()
		}
	}
}

// Refresh starts a fetch unless one is already running or the poller is
// stopped. It reports whether a fetch was started.
func (p *Poller) Refresh() bool {
	gen, ok := p.begin()
	if !ok {
		return false
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.fetch(gen)
	}()
	return true
}

// RefreshWait is Refresh followed by waiting for that fetch to finish or
// ctx to end. It returns false when the trigger was dropped.
func (p *Poller) RefreshWait(ctx context.Context) bool {
	gen, ok := p.begin()
	if !ok {
		return false
	}
	p.inflight.Add(1)
	done := make(chan struct{})
	go func() {
		defer p.inflight.Done()
		defer close(done)
		p.fetch(gen)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return true
}

func (p *Poller) begin() (uint64, bool) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return 0, false
	}
	if p.state.Fetching {
		gen := p.gen
		p.mu.Unlock()
		p.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPollSkip, Comp: "coord", Feed: p.Name(), Gen: gen})
		return 0, false
	}
	p.state.Fetching = true
	p.state.Attempts++
	gen := p.gen
	p.mu.Unlock()

	p.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPollStart, Comp: "coord", Feed: p.Name(), Gen: gen})
	return gen, true
}

func (p *Poller) fetch(gen uint64) {
	p.mu.Lock()
	base := p.base
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, p.timeout)
	defer cancel()

	started := time.Now()
	records, err := p.adapter.Load(ctx, p.now())
	if err == nil && len(records) == 0 {
		err = fetch.Empty(p.Name(), "adapter returned no records")
	}
	p.complete(gen, records, err, time.Since(started))
}

func (p *Poller) complete(gen uint64, records []model.Record, err error, dur time.Duration) {
	name := p.Name()

	p.mu.Lock()
	if p.stopped || gen != p.gen {
		p.mu.Unlock()
		p.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPollStale, Comp: "coord", Feed: name, Gen: gen, Dur: dur})
		return
	}

	now := p.now()
	p.state.Fetching = false
	p.state.Loading = false

	var ev otel.Event
	if err == nil {
		p.state.Data = records
		p.state.Err = nil
		p.state.LastUpdated = now
		p.state.UsingFallback = false
		ev = otel.Event{Level: otel.LevelInfo, Kind: otel.KindPollComplete, Count: len(records)}
	} else {
		fe := fetch.Classify(err)
		p.state.Err = fe
		p.state.Failures++
		ev = otel.Event{Level: otel.LevelWarn, Kind: otel.KindPollError, ErrKind: string(fe.Kind), Err: fe.Error()}
		if p.state.Data == nil {
			p.state.Data = p.adapter.Fallback(now)
			p.state.UsingFallback = true
		}
	}
	snapshot := p.state.clone()
	fallbackInstalled := err != nil && snapshot.UsingFallback
	p.mu.Unlock()

	ev.Comp, ev.Feed, ev.Gen, ev.Dur = "coord", name, gen, dur
	p.events.Emit(ev)
	if err != nil {
		logging.Warn("poll failed", "feed", name, "kind", ev.ErrKind, "error", ev.Err)
		if fallbackInstalled {
			p.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPollFallback, Comp: "coord", Feed: name, Count: len(snapshot.Data)})
		}
	} else {
		logging.Debug("poll complete", "feed", name, "records", len(records), "dur", dur)
	}

	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}
}

// Stop cancels the timer and marks any in-flight result stale. It returns
// once the timer loop has exited; it does not wait for in-flight fetches.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.gen++
	started := p.started
	p.mu.Unlock()

	p.stopOnce.Do(func() { close(p.stopCh) })
	if started {
		<-p.loopDone
	}
}

// Drain waits for in-flight fetches to return.
func (p *Poller) Drain() {
	p.inflight.Wait()
}

// DrainContext is Drain bounded by ctx.
func (p *Poller) DrainContext(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// State returns a copy of the current poll state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.clone()
}

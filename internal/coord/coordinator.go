// Package coord schedules every feed's poller and exposes their state.
//
// Each feed has one Poller with its own interval and timeout. Failures in
// one feed never touch another. The Coordinator fans out manual refreshes
// through an errgroup with a concurrency limit.
package coord

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/skydeck/internal/derive"
	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/otel"
)

const (
	// maxConcurrentFetches limits parallel fetches during RefreshAll and PollOnce.
	maxConcurrentFetches = 5

	// DefaultCountdownTick is how often the launch countdown is re-evaluated.
	DefaultCountdownTick = time.Second
)

// DefaultIntervals are the per-feed refresh cadences.
var DefaultIntervals = map[string]time.Duration{
	model.FeedStation:          5 * time.Second,
	model.FeedCrew:             5 * time.Minute,
	model.FeedNEO:              time.Hour,
	model.FeedLaunchesUpcoming: 5 * time.Minute,
	model.FeedLaunchesRecent:   5 * time.Minute,
	model.FeedWeather:          10 * time.Minute,
	model.FeedEvents:           30 * time.Minute,
	model.FeedSpaceWeather:     15 * time.Minute,
}

// Options configures a Coordinator.
type Options struct {
	// Intervals overrides DefaultIntervals per feed.
	Intervals     map[string]time.Duration
	FetchTimeout  time.Duration
	CountdownTick time.Duration
	MaxConcurrent int
	Events        *otel.Logger
	Now           func() time.Time
}

// Coordinator owns one Poller per registered adapter.
type Coordinator struct {
	opts    Options
	pollers map[string]*Poller
	order   []string

	mu       sync.RWMutex
	onUpdate []func(State)

	latch   *derive.ExpiryLatch
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a Coordinator. Call Register for each adapter before Start.
func New(opts Options) *Coordinator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.CountdownTick <= 0 {
		opts.CountdownTick = DefaultCountdownTick
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = maxConcurrentFetches
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Coordinator{
		opts:    opts,
		pollers: make(map[string]*Poller),
	}
	c.latch = derive.NewExpiryLatch(c.onLaunchExpired)
	return c
}

// Register adds a poller for adapter. Registering the same name twice
// replaces nothing and returns false.
func (c *Coordinator) Register(adapter feeds.Adapter) bool {
	name := adapter.Name()
	if _, ok := c.pollers[name]; ok {
		return false
	}
	interval := c.opts.Intervals[name]
	if interval <= 0 {
		interval = DefaultIntervals[name]
	}
	c.pollers[name] = NewPoller(adapter, PollerOptions{
		Interval: interval,
		Timeout:  c.opts.FetchTimeout,
		Events:   c.opts.Events,
		Now:      c.opts.Now,
		OnUpdate: c.publish,
	})
	c.order = append(c.order, name)
	return true
}

// OnUpdate adds fn to the hooks run after every applied poll result.
// Hooks run on the fetching goroutine and must not block.
func (c *Coordinator) OnUpdate(fn func(State)) {
	c.mu.Lock()
	c.onUpdate = append(c.onUpdate, fn)
	c.mu.Unlock()
}

func (c *Coordinator) publish(s State) {
	c.mu.RLock()
	hooks := c.onUpdate
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(s)
	}
}

// Start begins every poller's timer and the countdown watcher.
func (c *Coordinator) Start(ctx context.Context) {
	if c.started {
		return
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	for _, name := range c.order {
		c.pollers[name].Start(ctx)
	}

	if _, ok := c.pollers[model.FeedLaunchesUpcoming]; ok {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.watchCountdown(ctx)
		}()
	}
}

// Stop cancels every timer and marks in-flight fetches stale. Results that
// arrive afterwards are discarded.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	for _, name := range c.order {
		c.pollers[name].Stop()
	}
	c.wg.Wait()
}

// Wait blocks until every in-flight fetch has returned.
func (c *Coordinator) Wait() {
	for _, name := range c.order {
		c.pollers[name].Drain()
	}
}

// Has reports whether a feed is registered.
func (c *Coordinator) Has(name string) bool {
	_, ok := c.pollers[name]
	return ok
}

// Names returns the registered feed names in registration order.
func (c *Coordinator) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Refresh triggers an immediate fetch of one feed. It returns false when
// the feed is unknown or already fetching.
func (c *Coordinator) Refresh(name string) bool {
	p, ok := c.pollers[name]
	if !ok {
		return false
	}
	return p.Refresh()
}

// RefreshAll fetches every feed now and waits for them to finish. A feed
// that is already fetching is not fetched twice; RefreshAll waits for the
// running fetch to settle instead.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxConcurrent)
	for _, name := range c.order {
		p := c.pollers[name]
		g.Go(func() error {
			if !p.RefreshWait(gctx) {
				p.DrainContext(gctx)
			}
			return nil
		})
	}
	return g.Wait()
}

// PollOnce fetches every feed once without starting timers and returns the
// resulting snapshot. Used by one-shot commands.
func (c *Coordinator) PollOnce(ctx context.Context) ([]State, error) {
	if err := c.RefreshAll(ctx); err != nil {
		return nil, err
	}
	return c.Snapshot(), ctx.Err()
}

// State returns a copy of one feed's state.
func (c *Coordinator) State(name string) (State, bool) {
	p, ok := c.pollers[name]
	if !ok {
		return State{}, false
	}
	return p.State(), true
}

// Snapshot returns every feed's state in registration order.
func (c *Coordinator) Snapshot() []State {
	out := make([]State, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.pollers[name].State())
	}
	return out
}

// Metrics derives every metric from the current snapshot, lunar phases
// included. Results are sorted by key.
func (c *Coordinator) Metrics(now time.Time) []model.Metric {
	var out []model.Metric
	for _, s := range c.Snapshot() {
		out = append(out, derive.Metrics(s.Feed, s.Data, now)...)
	}
	out = append(out, derive.LunarMetrics(now)...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

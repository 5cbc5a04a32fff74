package coord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

// mockAdapter implements feeds.Adapter for testing.
type mockAdapter struct {
	name string

	mu       sync.Mutex
	records  []model.Record
	err      error
	fallback []model.Record

	delay time.Duration
	gate  chan struct{}

	loads     atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func newMock(name string) *mockAdapter {
	return &mockAdapter{
		name:     name,
		records:  []model.Record{station(name+"-live", model.SourceLive)},
		fallback: []model.Record{station(name+"-fallback", model.SourceFallback)},
	}
}

func station(id string, src model.Source) model.Record {
	return model.StationPosition{Meta: model.Meta{ID: id, Source: src}, Latitude: 1, Longitude: 2}
}

func (m *mockAdapter) Name() string {
	return m.name
}

func (m *mockAdapter) Kind() model.Kind {
	return model.KindStationPosition
}

func (m *mockAdapter) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	m.loads.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		peak := m.maxActive.Load()
		if n <= peak || m.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}

	if m.gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.gate:
		}
	}
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, m.err
}

func (m *mockAdapter) Fallback(now time.Time) []model.Record {
	return m.fallback
}

func (m *mockAdapter) set(records []model.Record, err error) {
	m.mu.Lock()
	m.records, m.err = records, err
	m.mu.Unlock()
}

func TestPollerInitialStateIsLoading(t *testing.T) {
	p := NewPoller(newMock("station"), PollerOptions{})
	s := p.State()
	if !s.Loading {
		t.Error("expected Loading before the first attempt")
	}
	if s.HasData() {
		t.Error("expected no data before the first attempt")
	}
}

func TestPollerDropsTriggerWhileFetching(t *testing.T) {
	m := newMock("station")
	m.gate = make(chan struct{})
	p := NewPoller(m, PollerOptions{})

	if !p.Refresh() {
		t.Fatal("first Refresh should start a fetch")
	}
	if p.Refresh() {
		t.Error("second Refresh should be dropped while fetching")
	}
	if !p.State().Fetching {
		t.Error("expected Fetching while the load is blocked")
	}

	close(m.gate)
	p.Drain()

	if got := m.loads.Load(); got != 1 {
		t.Errorf("expected 1 load, got %d", got)
	}
	s := p.State()
	if s.Fetching {
		t.Error("expected Fetching cleared after completion")
	}
	if s.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", s.Attempts)
	}
}

func TestPollerSuccess(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPoller(newMock("station"), PollerOptions{Now: func() time.Time { return now }})

	if !p.RefreshWait(context.Background()) {
		t.Fatal("RefreshWait dropped")
	}
	s := p.State()
	if s.Loading || s.Err != nil {
		t.Fatalf("unexpected state: loading=%v err=%v", s.Loading, s.Err)
	}
	if len(s.Data) != 1 || s.Data[0].RecordID() != "station-live" {
		t.Errorf("unexpected data: %+v", s.Data)
	}
	if !s.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", s.LastUpdated, now)
	}
	if s.UsingFallback {
		t.Error("live data marked as fallback")
	}
}

func TestPollerFallbackOnFirstFailure(t *testing.T) {
	m := newMock("station")
	m.set(nil, errors.New("connection refused"))
	p := NewPoller(m, PollerOptions{})

	p.RefreshWait(context.Background())
	s := p.State()

	if s.Loading {
		t.Error("expected Loading cleared after a failed attempt")
	}
	if !s.UsingFallback {
		t.Error("expected fallback data after first failure")
	}
	if len(s.Data) != 1 || s.Data[0].Origin() != model.SourceFallback {
		t.Errorf("unexpected data: %+v", s.Data)
	}
	if s.Err == nil || s.Err.Kind != fetch.KindUnreachable {
		t.Errorf("expected unreachable error, got %v", s.Err)
	}
	if !s.LastUpdated.IsZero() {
		t.Errorf("LastUpdated should stay zero on failure, got %v", s.LastUpdated)
	}
}

func TestPollerKeepsDataOnLaterFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	m := newMock("station")
	p := NewPoller(m, PollerOptions{Now: func() time.Time { return clock }})

	p.RefreshWait(context.Background())
	first := p.State()

	clock = now.Add(time.Minute)
	m.set(nil, &fetch.Error{Kind: fetch.KindHTTP, Status: 503, URL: "http://example"})
	p.RefreshWait(context.Background())
	s := p.State()

	if len(s.Data) != 1 || s.Data[0].RecordID() != "station-live" {
		t.Errorf("previous data should be kept, got %+v", s.Data)
	}
	if s.UsingFallback {
		t.Error("fallback should not replace live data")
	}
	if !s.LastUpdated.Equal(first.LastUpdated) {
		t.Errorf("LastUpdated changed on failure: %v -> %v", first.LastUpdated, s.LastUpdated)
	}
	if !errors.Is(s.Err, fetch.ErrHTTP) || s.Err.Status != 503 {
		t.Errorf("expected http 503, got %v", s.Err)
	}
	if s.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", s.Failures)
	}
}

func TestPollerEmptyResultIsFailure(t *testing.T) {
	m := newMock("neo")
	m.set(nil, nil)
	p := NewPoller(m, PollerOptions{})

	p.RefreshWait(context.Background())
	s := p.State()

	if s.Err == nil || s.Err.Kind != fetch.KindEmpty {
		t.Fatalf("expected empty error, got %v", s.Err)
	}
	if !s.UsingFallback {
		t.Error("expected fallback after empty first result")
	}
}

func TestPollerRecoversAfterFailure(t *testing.T) {
	m := newMock("station")
	m.set(nil, errors.New("down"))
	p := NewPoller(m, PollerOptions{})
	p.RefreshWait(context.Background())

	m.set([]model.Record{station("station-back", model.SourceLive)}, nil)
	p.RefreshWait(context.Background())
	s := p.State()

	if s.Err != nil {
		t.Errorf("expected error cleared, got %v", s.Err)
	}
	if s.UsingFallback {
		t.Error("expected live data after recovery")
	}
	if s.Data[0].RecordID() != "station-back" {
		t.Errorf("unexpected data: %+v", s.Data)
	}
}

func TestPollerTimeout(t *testing.T) {
	m := newMock("station")
	m.delay = time.Second
	p := NewPoller(m, PollerOptions{Timeout: 20 * time.Millisecond})

	start := time.Now()
	p.RefreshWait(context.Background())
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("fetch was not bounded by the timeout: %v", elapsed)
	}

	s := p.State()
	if s.Err == nil || s.Err.Kind != fetch.KindUnreachable {
		t.Fatalf("expected unreachable, got %v", s.Err)
	}
	if !fetch.IsTimeout(s.Err) {
		t.Errorf("expected a deadline error, got %v", s.Err)
	}
}

func TestPollerDiscardsResultAfterStop(t *testing.T) {
	m := newMock("station")
	m.gate = make(chan struct{})

	var updates atomic.Int32
	p := NewPoller(m, PollerOptions{OnUpdate: func(State) { updates.Add(1) }})

	if !p.Refresh() {
		t.Fatal("Refresh dropped")
	}
	p.Stop()
	close(m.gate)
	p.Drain()

	s := p.State()
	if s.HasData() {
		t.Errorf("stale result was applied: %+v", s.Data)
	}
	if !s.LastUpdated.IsZero() {
		t.Error("stale result updated LastUpdated")
	}
	if updates.Load() != 0 {
		t.Errorf("expected no update callbacks after stop, got %d", updates.Load())
	}
	if p.Refresh() {
		t.Error("Refresh after Stop should be dropped")
	}
}

func TestPollOnceWaitsForRunningFetch(t *testing.T) {
	m := newMock("station")
	m.gate = make(chan struct{})

	c := New(Options{})
	c.Register(m)
	if !c.Refresh("station") {
		t.Fatal("Refresh dropped")
	}

	type result struct {
		states []State
		err    error
	}
	done := make(chan result, 1)
	go func() {
		states, err := c.PollOnce(context.Background())
		done <- result{states, err}
	}()

	select {
	case <-done:
		t.Fatal("PollOnce returned while the feed was still fetching")
	case <-time.After(50 * time.Millisecond):
	}

	close(m.gate)
	var r result
	select {
	case r = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PollOnce did not return after the fetch finished")
	}
	if r.err != nil {
		t.Fatalf("PollOnce: %v", r.err)
	}
	if len(r.states) != 1 || r.states[0].Fetching || !r.states[0].HasData() {
		t.Errorf("expected a settled snapshot, got %+v", r.states)
	}
	if got := m.loads.Load(); got != 1 {
		t.Errorf("running fetch should not be duplicated, loads = %d", got)
	}
}

func TestPollerStartPollsImmediately(t *testing.T) {
	p := NewPoller(newMock("station"), PollerOptions{Interval: time.Hour})
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for !p.State().HasData() {
		if time.Now().After(deadline) {
			t.Fatal("no data after Start")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPollerTicks(t *testing.T) {
	m := newMock("station")
	p := NewPoller(m, PollerOptions{Interval: 10 * time.Millisecond})
	p.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for m.loads.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated polls, got %d", m.loads.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	p.Drain()

	after := m.loads.Load()
	time.Sleep(50 * time.Millisecond)
	if got := m.loads.Load(); got != after {
		t.Errorf("polling continued after Stop: %d -> %d", after, got)
	}
}

func TestCoordinatorIsolatesFailures(t *testing.T) {
	good := newMock("station")
	bad := newMock("neo")
	bad.set(nil, errors.New("boom"))

	c := New(Options{})
	c.Register(good)
	c.Register(bad)

	if err := c.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}

	gs, _ := c.State("station")
	bs, _ := c.State("neo")

	if gs.Err != nil || gs.UsingFallback {
		t.Errorf("healthy feed affected: err=%v fallback=%v", gs.Err, gs.UsingFallback)
	}
	if bs.Err == nil || !bs.UsingFallback {
		t.Errorf("failing feed should carry error and fallback: err=%v fallback=%v", bs.Err, bs.UsingFallback)
	}
}

func TestCoordinatorRegisterDuplicate(t *testing.T) {
	c := New(Options{})
	if !c.Register(newMock("station")) {
		t.Fatal("first Register failed")
	}
	if c.Register(newMock("station")) {
		t.Error("duplicate Register should return false")
	}
	if got := c.Names(); len(got) != 1 {
		t.Errorf("expected 1 feed, got %v", got)
	}
}

func TestCoordinatorRefreshUnknownFeed(t *testing.T) {
	c := New(Options{})
	if c.Refresh("nope") {
		t.Error("Refresh of an unknown feed should return false")
	}
	if _, ok := c.State("nope"); ok {
		t.Error("State of an unknown feed should not be found")
	}
}

func TestCoordinatorRespectsConcurrencyLimit(t *testing.T) {
	c := New(Options{MaxConcurrent: 2})

	var mocks []*mockAdapter
	var active, maxActive atomic.Int32
	for i := 0; i < 8; i++ {
		m := newMock(fmt.Sprintf("feed-%d", i))
		m.delay = 20 * time.Millisecond
		mocks = append(mocks, m)
		c.Register(&countingAdapter{mockAdapter: m, active: &active, peak: &maxActive})
	}

	if err := c.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}

	if got := maxActive.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent fetches, got %d", got)
	}
	for _, m := range mocks {
		if m.loads.Load() != 1 {
			t.Errorf("%s loaded %d times", m.name, m.loads.Load())
		}
	}
}

// countingAdapter tracks concurrency across several mocks.
type countingAdapter struct {
	*mockAdapter
	active *atomic.Int32
	peak   *atomic.Int32
}

func (a *countingAdapter) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	n := a.active.Add(1)
	defer a.active.Add(-1)
	for {
		peak := a.peak.Load()
		if n <= peak || a.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return a.mockAdapter.Load(ctx, now)
}

func TestCoordinatorOnUpdate(t *testing.T) {
	c := New(Options{})
	c.Register(newMock("station"))

	var mu sync.Mutex
	var got []State
	c.OnUpdate(func(s State) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	c.RefreshAll(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Feed != "station" {
		t.Fatalf("expected one update for station, got %+v", got)
	}
}

func TestCoordinatorPollOnce(t *testing.T) {
	c := New(Options{})
	for _, name := range []string{"station", "crew", "neo"} {
		c.Register(newMock(name))
	}

	states, err := c.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
	for i, name := range []string{"station", "crew", "neo"} {
		if states[i].Feed != name {
			t.Errorf("states[%d].Feed = %q, want %q", i, states[i].Feed, name)
		}
		if !states[i].HasData() {
			t.Errorf("%s has no data", name)
		}
	}
}

func TestCoordinatorSnapshotIsACopy(t *testing.T) {
	c := New(Options{})
	c.Register(newMock("station"))
	c.RefreshAll(context.Background())

	snap := c.Snapshot()
	snap[0].Data[0] = station("mutated", model.SourceLive)

	s, _ := c.State("station")
	if s.Data[0].RecordID() != "station-live" {
		t.Error("mutating a snapshot changed poller state")
	}
}

func TestCoordinatorStopDiscardsInFlight(t *testing.T) {
	m := newMock("station")
	m.gate = make(chan struct{})

	c := New(Options{Intervals: map[string]time.Duration{"station": time.Hour}})
	c.Register(m)
	c.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for m.loads.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial poll never started")
		}
		time.Sleep(time.Millisecond)
	}

	c.Stop()
	close(m.gate)
	c.Wait()

	s, _ := c.State("station")
	if s.HasData() {
		t.Error("result applied after Stop")
	}
}

func TestCoordinatorMetricsIncludeLunar(t *testing.T) {
	c := New(Options{})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	metrics := c.Metrics(now)
	found := false
	for _, m := range metrics {
		if m.Feed == "lunar" && m.Name == "next_full_days" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected lunar metrics, got %+v", metrics)
	}
}

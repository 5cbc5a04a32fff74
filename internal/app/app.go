// Package app wires skydeck's long-lived pieces together and owns their
// lifecycle.
//
// New initializes in a fixed order: logging, event log, store, feeds and
// coordinator, providers, tutor. Close releases them in reverse.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/skydeck/internal/brain"
	"github.com/abelbrown/skydeck/internal/config"
	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/feeds/calendar"
	"github.com/abelbrown/skydeck/internal/feeds/neows"
	"github.com/abelbrown/skydeck/internal/feeds/openmeteo"
	"github.com/abelbrown/skydeck/internal/feeds/opennotify"
	"github.com/abelbrown/skydeck/internal/feeds/spacex"
	"github.com/abelbrown/skydeck/internal/feeds/swpc"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/otel"
	"github.com/abelbrown/skydeck/internal/store"
	"github.com/abelbrown/skydeck/internal/tutor"
)

// Options adjusts how New builds an App.
type Options struct {
	// Owner is the initial session owner. Empty is anonymous.
	Owner string
	// LogOutput, when set, receives log lines instead of the dated file
	// under DataDir/logs.
	LogOutput io.Writer
	// EventLog writes events.jsonl under DataDir/events. Without it events
	// only reach the ring buffer.
	EventLog bool
	// Adapters replaces the feeds built from config.
	Adapters []feeds.Adapter
	// Providers replaces the generative providers built from config.
	Providers []brain.Provider
	Now       func() time.Time
}

// App is the process context shared by the API, the dashboard and the CLI.
type App struct {
	Config  *config.Config
	Session *Session
	Events  *otel.Logger
	Ring    *otel.RingBuffer
	Store   store.Store
	Coord   *coord.Coordinator
	Brain   *brain.ProviderManager
	Tutor   *tutor.Service

	weather *openmeteo.Source
	now     func() time.Time
	closed  bool
}

// New builds an App from cfg. On error everything already opened is closed.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &App{
		Config:  cfg,
		Session: NewSession(opts.Owner, cfg.UI.Theme),
		now:     opts.Now,
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if opts.LogOutput != nil {
		logging.SetOutput(opts.LogOutput, cfg.LogLevel)
	} else if err := logging.Init(logging.Options{Dir: cfg.DataDir, Level: cfg.LogLevel}); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	a.Ring = otel.NewRingBuffer(otel.DefaultRingSize)
	if opts.EventLog {
		a.Events, err = otel.OpenFile(filepath.Join(cfg.DataDir, "events"))
		if err != nil {
			return nil, err
		}
	} else {
		a.Events = otel.NewNullLogger()
	}
	a.Events.SetRingBuffer(a.Ring)

	a.Store, err = store.Open(ctx, store.Options{
		Backend:  cfg.Store.Backend,
		Path:     cfg.StorePath(),
		RedisURL: cfg.Store.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a.Coord = coord.New(coord.Options{
		Intervals:    cfg.Intervals,
		FetchTimeout: cfg.FetchTimeout,
		Events:       a.Events,
		Now:          opts.Now,
	})
	adapters := opts.Adapters
	if adapters == nil {
		adapters, err = a.buildAdapters()
		if err != nil {
			return nil, err
		}
	}
	for _, ad := range adapters {
		if !a.Coord.Register(ad) {
			return nil, fmt.Errorf("feed %q registered twice", ad.Name())
		}
		if w, ok := ad.(*openmeteo.Source); ok {
			a.weather = w
		}
	}

	providers := opts.Providers
	if providers == nil {
		providers = buildProviders(cfg)
	}
	a.Brain = brain.NewProviderManager(providers...)
	a.Brain.SetPreferred(cfg.Models.Preferred)

	a.Tutor, err = tutor.NewService(tutor.New(a.Brain, a.Events), tutor.ServiceOptions{
		Store:  a.Store,
		Events: a.Events,
		Now:    opts.Now,
	})
	if err != nil {
		return nil, err
	}

	a.applyProfile(ctx, a.Session.Owner())

	a.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "app", Count: len(adapters), Msg: logging.Version})
	logging.Info("app initialized", "feeds", len(adapters), "providers", a.Brain.ListAvailable(), "store", cfg.Store.Backend)
	return a, nil
}

// buildAdapters creates every feed adapter from config.
func (a *App) buildAdapters() ([]feeds.Adapter, error) {
	cfg := a.Config
	client := fetch.NewClient(cfg.FetchTimeout)

	events, err := calendar.New(client, cfg.Feeds.EventsURL)
	if err != nil {
		return nil, fmt.Errorf("load event calendar: %w", err)
	}
	weather := openmeteo.New(client, openmeteo.Options{
		ForecastURL: cfg.Feeds.ForecastURL,
		GeocodeURL:  cfg.Feeds.GeocodeURL,
		Latitude:    cfg.Location.Latitude,
		Longitude:   cfg.Location.Longitude,
		PlaceName:   cfg.Location.PlaceName,
	})

	return []feeds.Adapter{
		opennotify.NewStation(client, cfg.Feeds.OpenNotifyURL),
		opennotify.NewCrew(client, cfg.Feeds.OpenNotifyURL, cfg.Feeds.Craft),
		spacex.NewUpcoming(client, cfg.Feeds.SpaceXURL),
		spacex.NewRecent(client, cfg.Feeds.SpaceXURL),
		neows.New(client, cfg.Feeds.NeoWsURL, cfg.NASAKey),
		weather,
		swpc.New(client, cfg.Feeds.KpURL, cfg.Feeds.PlasmaURL),
		events,
	}, nil
}

// buildProviders creates the enabled providers in priority order.
func buildProviders(cfg *config.Config) []brain.Provider {
	var out []brain.Provider
	for _, name := range cfg.GetEnabledModels() {
		var p brain.Provider
		switch name {
		case "gemini":
			ms := cfg.Models.Gemini
			p = brain.NewGeminiProvider(ms.APIKey, ms.Model, ms.Endpoint)
		case "openai":
			ms := cfg.Models.OpenAI
			p = brain.NewOpenAIProvider(ms.APIKey, ms.Model, ms.Endpoint)
		default:
			continue
		}
		out = append(out, brain.WithRateLimit(p, cfg.Models.RequestsPerMinute))
	}
	return out
}

// Start begins polling every feed.
func (a *App) Start(ctx context.Context) {
	a.Coord.Start(ctx)
}

// Close stops polling and releases the store, the event log and the log
// file, in that order. Safe to call more than once.
func (a *App) Close() {
	if a.closed {
		return
	}
	a.closed = true

	if a.Coord != nil {
		a.Coord.Stop()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			logging.Warn("store close failed", "error", err)
		}
	}
	if a.Events != nil {
		a.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "app"})
		a.Events.Close()
	}
	logging.Close()
}

// SaveEvent bookmarks an event for owner.
func (a *App) SaveEvent(ctx context.Context, owner string, e model.SavedEvent) (model.SavedEvent, error) {
	if owner == "" {
		return model.SavedEvent{}, ErrAnonymous
	}
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return model.SavedEvent{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if e.Date.IsZero() {
		return model.SavedEvent{}, fmt.Errorf("%w: date is required", ErrInvalid)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Owner = owner
	e.CreatedAt = a.now().UTC()
	if err := a.Store.SaveEvent(ctx, e); err != nil {
		return model.SavedEvent{}, err
	}
	return e, nil
}

// ListEvents returns owner's saved events, soonest first.
func (a *App) ListEvents(ctx context.Context, owner string) ([]model.SavedEvent, error) {
	if owner == "" {
		return nil, ErrAnonymous
	}
	return a.Store.ListEvents(ctx, owner)
}

// DeleteEvent removes one of owner's saved events.
func (a *App) DeleteEvent(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrAnonymous
	}
	return a.Store.DeleteEvent(ctx, owner, id)
}

// UpcomingStargazing returns the next organized stargazing events, soonest
// first, starting now.
func (a *App) UpcomingStargazing(ctx context.Context) ([]model.StargazingEvent, error) {
	return a.Store.ListStargazingEvents(ctx, a.now().UTC(), model.UpcomingStargazingLimit)
}

// AddStargazingEvent lists an organized event. The organizer defaults to
// owner.
func (a *App) AddStargazingEvent(ctx context.Context, owner string, e model.StargazingEvent) (model.StargazingEvent, error) {
	if owner == "" {
		return model.StargazingEvent{}, ErrAnonymous
	}
	e.Title = strings.TrimSpace(e.Title)
	e.LocationName = strings.TrimSpace(e.LocationName)
	switch {
	case e.Title == "":
		return model.StargazingEvent{}, fmt.Errorf("%w: title is required", ErrInvalid)
	case e.LocationName == "":
		return model.StargazingEvent{}, fmt.Errorf("%w: location_name is required", ErrInvalid)
	case e.Date.IsZero():
		return model.StargazingEvent{}, fmt.Errorf("%w: date is required", ErrInvalid)
	case e.Latitude < -90 || e.Latitude > 90 || e.Longitude < -180 || e.Longitude > 180:
		return model.StargazingEvent{}, fmt.Errorf("%w: coordinates out of range", ErrInvalid)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Organizer == "" {
		e.Organizer = owner
	}
	e.Date = e.Date.UTC()
	e.CreatedAt = a.now().UTC()
	if err := a.Store.SaveStargazingEvent(ctx, e); err != nil {
		return model.StargazingEvent{}, err
	}
	return e, nil
}

// Profile returns owner's profile, or a blank one seeded from config when
// none has been saved.
func (a *App) Profile(ctx context.Context, owner string) (model.Profile, error) {
	if owner == "" {
		return model.Profile{}, ErrAnonymous
	}
	p, err := a.Store.GetProfile(ctx, owner)
	if errors.Is(err, store.ErrNotFound) {
		return model.Profile{
			Owner:        owner,
			LocationName: a.Config.Location.PlaceName,
			DarkMode:     a.Config.UI.Theme != ThemeLight,
		}, nil
	}
	return p, err
}

// SaveProfile upserts owner's profile. When owner is the session owner the
// theme and observer location follow the new profile.
func (a *App) SaveProfile(ctx context.Context, owner string, p model.Profile) (model.Profile, error) {
	if owner == "" {
		return model.Profile{}, ErrAnonymous
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return model.Profile{}, fmt.Errorf("%w: latitude and longitude go together", ErrInvalid)
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90 || *p.Longitude < -180 || *p.Longitude > 180) {
		return model.Profile{}, fmt.Errorf("%w: coordinates out of range", ErrInvalid)
	}

	now := a.now().UTC()
	p.Owner = owner
	p.UpdatedAt = now
	if existing, err := a.Store.GetProfile(ctx, owner); err == nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}
	if err := a.Store.UpsertProfile(ctx, p); err != nil {
		return model.Profile{}, err
	}
	if owner == a.Session.Owner() {
		a.applyProfile(ctx, owner)
	}
	return p, nil
}

// applyProfile copies the stored theme and location of owner into the
// session and the weather feed.
func (a *App) applyProfile(ctx context.Context, owner string) {
	if owner == "" {
		return
	}
	p, err := a.Store.GetProfile(ctx, owner)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Warn("profile load failed", "owner", owner, "error", err)
		}
		return
	}
	if p.DarkMode {
		_ = a.Session.SetTheme(ThemeDark)
	} else {
		_ = a.Session.SetTheme(ThemeLight)
	}
	if a.weather == nil || p.Latitude == nil || p.Longitude == nil {
		return
	}
	lat, lng := a.weather.Location()
	if lat == *p.Latitude && lng == *p.Longitude {
		return
	}
	a.weather.SetLocation(*p.Latitude, *p.Longitude, p.LocationName)
	a.Coord.Refresh(model.FeedWeather)
	logging.Info("observer location updated", "owner", owner, "lat", *p.Latitude, "lng", *p.Longitude)
}

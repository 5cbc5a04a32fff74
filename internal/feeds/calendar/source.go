// Package calendar adapts an astronomy events calendar. Events come from an
// RSS or Atom feed when one is configured, otherwise from the embedded table.
package calendar

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

// MaxEvents caps the number of events returned.
const MaxEvents = 6

//go:embed events.yaml
var embeddedTable []byte

// Entry is one row of the static table.
type Entry struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Annual      bool   `yaml:"annual"`
	Month       int    `yaml:"month"`
	Day         int    `yaml:"day"`
	Time        string `yaml:"time"` // HH:MM UTC, annual entries only
	Date        string `yaml:"date"` // RFC 3339, one-off entries only
	Description string `yaml:"description"`
	Visibility  string `yaml:"visibility"`
}

type table struct {
	Events []Entry `yaml:"events"`
}

// ParseTable decodes a YAML events table.
func ParseTable(data []byte) ([]Entry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse events table: %w", err)
	}
	return t.Events, nil
}

// Next returns the next occurrence of e at or after the start of now's day.
// One-off entries return their fixed date.
func (e Entry) Next(now time.Time) (time.Time, error) {
	if !e.Annual {
		return time.Parse(time.RFC3339, e.Date)
	}
	hh, mm := 0, 0
	if e.Time != "" {
		if _, err := fmt.Sscanf(e.Time, "%d:%d", &hh, &mm); err != nil {
			return time.Time{}, fmt.Errorf("event %s: bad time %q: %w", e.ID, e.Time, err)
		}
	}
	now = now.UTC()
	dayStart := now.Truncate(24 * time.Hour)
	at := time.Date(now.Year(), time.Month(e.Month), e.Day, hh, mm, 0, 0, time.UTC)
	if at.Before(dayStart) {
		at = at.AddDate(1, 0, 0)
	}
	return at, nil
}

// Source loads the events calendar.
type Source struct {
	client  feeds.Getter
	feedURL string
	parser  *gofeed.Parser
	entries []Entry
}

// New creates an events adapter. feedURL may be empty.
func New(client feeds.Getter, feedURL string) (*Source, error) {
	entries, err := ParseTable(embeddedTable)
	if err != nil {
		return nil, err
	}
	return &Source{
		client:  client,
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
		entries: entries,
	}, nil
}

func (s *Source) Name() string { return model.FeedEvents }
func (s *Source) Kind() model.Kind { return model.KindAstronomyEvent }

// Load reads the configured feed. Without a feed it serves the static table.
func (s *Source) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	if s.feedURL == "" {
		return s.Fallback(now), nil
	}

	body, err := s.client.GetRaw(ctx, s.feedURL, nil)
	if err != nil {
		return nil, err
	}
	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		return nil, fetch.ParseError(s.feedURL, err)
	}

	events := make([]model.AstronomyEvent, 0, len(feed.Items))
	for _, item := range feed.Items {
		if ev, ok := fromItem(item); ok {
			events = append(events, ev)
		}
	}
	events = feeds.SelectEvents(events, now)
	if len(events) > MaxEvents {
		events = events[:MaxEvents]
	}
	if len(events) == 0 {
		return nil, fetch.Empty(s.feedURL, "no upcoming events in feed")
	}
	return feeds.Records(events), nil
}

func fromItem(item *gofeed.Item) (model.AstronomyEvent, bool) {
	if item == nil || strings.TrimSpace(item.Title) == "" {
		return model.AstronomyEvent{}, false
	}
	var at time.Time
	switch {
	case item.PublishedParsed != nil:
		at = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		at = *item.UpdatedParsed
	default:
		return model.AstronomyEvent{}, false
	}

	id := item.GUID
	if id == "" {
		id = item.Link
	}
	category := ""
	if len(item.Categories) > 0 {
		category = strings.ToLower(item.Categories[0])
	}

	return model.AstronomyEvent{
		Meta: model.Meta{
			ID:     feeds.StableID(model.FeedEvents, id, item.Title),
			Time:   at.UTC(),
			Source: model.SourceLive,
		},
		Title:       item.Title,
		Category:    Categorize(category, item.Title),
		Description: feeds.Truncate(strings.TrimSpace(item.Description), 280),
		Link:        item.Link,
	}, true
}

// Categorize maps a declared category or title onto meteor, eclipse,
// planet, moon or other.
func Categorize(declared, title string) string {
	switch declared {
	case "meteor", "eclipse", "planet", "moon", "other":
		return declared
	}
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "meteor") || strings.Contains(t, "shower"):
		return "meteor"
	case strings.Contains(t, "eclipse"):
		return "eclipse"
	case strings.Contains(t, "moon"):
		return "moon"
	case containsAny(t, "mercury", "venus", "mars", "jupiter", "saturn", "uranus", "neptune", "planet", "opposition", "elongation", "conjunction"):
		return "planet"
	default:
		return "other"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Fallback projects the static table onto now and keeps the next few events.
func (s *Source) Fallback(now time.Time) []model.Record {
	events := make([]model.AstronomyEvent, 0, len(s.entries))
	for _, e := range s.entries {
		at, err := e.Next(now)
		if err != nil {
			continue
		}
		events = append(events, model.AstronomyEvent{
			Meta: model.Meta{
				ID:     fmt.Sprintf("%s-%d", e.ID, at.Year()),
				Time:   at,
				Source: model.SourceFallback,
			},
			Title:       e.Title,
			Category:    Categorize(e.Category, e.Title),
			Description: e.Description,
			Visibility:  e.Visibility,
		})
	}
	events = feeds.SelectEvents(events, now)
	if len(events) > MaxEvents {
		events = events[:MaxEvents]
	}
	return feeds.Records(events)
}

// Package spacex adapts the SpaceX v5 launch endpoints into two feeds:
// upcoming launches and recent launches.
package spacex

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

// DefaultBaseURL is the public SpaceX API.
const DefaultBaseURL = "https://api.spacexdata.com/v5"

// pastLimit is how many past launches are requested before filtering.
const pastLimit = 10

type launchPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DateUTC   time.Time `json:"date_utc"`
	Rocket    ref       `json:"rocket"`
	Launchpad ref       `json:"launchpad"`
	Details   string    `json:"details"`
	Links     struct {
		Webcast   string `json:"webcast"`
		Article   string `json:"article"`
		Wikipedia string `json:"wikipedia"`
	} `json:"links"`
	Success  *bool `json:"success"`
	Upcoming bool  `json:"upcoming"`
}

// ref is a rocket or launchpad reference. Unpopulated queries return a bare
// id string; populated ones return the object.
type ref struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Locality string `json:"locality"`
	Region   string `json:"region"`
}

func (r *ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type plain ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ref(p)
	return nil
}

// label prefers the human name and falls back to the id.
func (r ref) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Source is one of the two launch feeds.
type Source struct {
	client   feeds.Getter
	baseURL  string
	upcoming bool
	limit    int
}

// NewUpcoming creates the upcoming-launches adapter.
func NewUpcoming(client feeds.Getter, baseURL string) *Source {
	return newSource(client, baseURL, true)
}

// NewRecent creates the recent-launches adapter.
func NewRecent(client feeds.Getter, baseURL string) *Source {
	return newSource(client, baseURL, false)
}

func newSource(client feeds.Getter, baseURL string, upcoming bool) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{client: client, baseURL: baseURL, upcoming: upcoming, limit: feeds.MaxLaunches}
}

func (s *Source) Name() string {
	if s.upcoming {
		return model.FeedLaunchesUpcoming
	}
	return model.FeedLaunchesRecent
}

func (s *Source) Kind() model.Kind { return model.KindLaunchEvent }

func (s *Source) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	endpoint := s.baseURL + "/launches/upcoming"
	var query url.Values
	if !s.upcoming {
		endpoint = s.baseURL + "/launches/past"
		query = url.Values{"limit": {strconv.Itoa(pastLimit)}}
	}

	var payload []launchPayload
	if err := s.client.GetJSON(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}

	launches := make([]model.LaunchEvent, 0, len(payload))
	for _, p := range payload {
		if p.DateUTC.IsZero() {
			continue
		}
		launches = append(launches, toLaunch(p, model.SourceLive))
	}

	if s.upcoming {
		launches = feeds.SelectUpcoming(launches, now, s.limit)
	} else {
		launches = feeds.SelectRecent(launches, now, s.limit)
	}
	if len(launches) == 0 {
		return nil, fetch.Empty(endpoint, "No current SpaceX launch data available")
	}
	return feeds.Records(launches), nil
}

func toLaunch(p launchPayload, src model.Source) model.LaunchEvent {
	id := p.ID
	if id == "" {
		id = feeds.StableID("launch", p.Name, p.DateUTC.String())
	}
	return model.LaunchEvent{
		Meta: model.Meta{
			ID:     id,
			Time:   p.DateUTC.UTC(),
			Source: src,
		},
		Name:      p.Name,
		Rocket:    p.Rocket.label(),
		Launchpad: p.Launchpad.label(),
		Locality:  p.Launchpad.Locality,
		Region:    p.Launchpad.Region,
		Details:   p.Details,
		Links: model.LaunchLinks{
			Webcast:   p.Links.Webcast,
			Article:   p.Links.Article,
			Wikipedia: p.Links.Wikipedia,
		},
		Success:  p.Success,
		Upcoming: p.Upcoming,
	}
}

// Fallback returns placeholder launches. Upcoming ones are spaced a few days
// after now so the countdown always has a future target.
func (s *Source) Fallback(now time.Time) []model.Record {
	if s.upcoming {
		return feeds.Records(upcomingFallback(now))
	}
	return feeds.Records(recentFallback())
}

func upcomingFallback(now time.Time) []model.LaunchEvent {
	base := now.UTC().Truncate(time.Hour)
	mk := func(id, name, rocket, pad, locality, region string, after time.Duration) model.LaunchEvent {
		return model.LaunchEvent{
			Meta:      model.Meta{ID: id, Time: base.Add(after), Source: model.SourceFallback},
			Name:      name,
			Rocket:    rocket,
			Launchpad: pad,
			Locality:  locality,
			Region:    region,
			Upcoming:  true,
		}
	}
	return []model.LaunchEvent{
		mk("launch-fallback-1", "Starlink Group (placeholder)", "Falcon 9", "CCSFS SLC 40", "Cape Canaveral", "Florida", 3*24*time.Hour),
		mk("launch-fallback-2", "Crew Rotation (placeholder)", "Falcon 9", "KSC LC 39A", "Cape Canaveral", "Florida", 10*24*time.Hour),
		mk("launch-fallback-3", "Transporter Rideshare (placeholder)", "Falcon 9", "VAFB SLC 4E", "Vandenberg", "California", 21*24*time.Hour),
	}
}

// recentFallback is three historical crewed and cargo launches, newest first.
func recentFallback() []model.LaunchEvent {
	mk := func(id, name, rocket, pad, locality, region, date, wiki string) model.LaunchEvent {
		at, _ := time.Parse(time.RFC3339, date)
		success := true
		return model.LaunchEvent{
			Meta:      model.Meta{ID: id, Time: at, Source: model.SourceFallback},
			Name:      name,
			Rocket:    rocket,
			Launchpad: pad,
			Locality:  locality,
			Region:    region,
			Links:     model.LaunchLinks{Wikipedia: wiki},
			Success:   &success,
		}
	}
	return []model.LaunchEvent{
		mk("5eb87d4dffd86e000604b38e", "CRS-21", "Falcon 9", "KSC LC 39A", "Cape Canaveral", "Florida", "2020-12-06T16:17:00Z", "https://en.wikipedia.org/wiki/SpaceX_CRS-21"),
		mk("5eb87d46ffd86e000604b388", "Crew-1", "Falcon 9", "KSC LC 39A", "Cape Canaveral", "Florida", "2020-11-16T00:27:00Z", "https://en.wikipedia.org/wiki/SpaceX_Crew-1"),
		mk("5eb87d42ffd86e000604b384", "Crew Demo-2", "Falcon 9", "KSC LC 39A", "Cape Canaveral", "Florida", "2020-05-30T19:22:00Z", "https://en.wikipedia.org/wiki/Crew_Dragon_Demo-2"),
	}
}

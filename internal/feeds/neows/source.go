// Package neows adapts the NASA Near Earth Object Web Service feed endpoint.
package neows

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

const (
	DefaultBaseURL = "https://api.nasa.gov/neo/rest/v1"
	DemoKey        = "DEMO_KEY"

	// windowDays is the largest range the feed endpoint accepts.
	windowDays = 7
)

type feedPayload struct {
	ElementCount     int                       `json:"element_count"`
	NearEarthObjects map[string][]objectRecord `json:"near_earth_objects"`
}

type objectRecord struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	EstimatedDiameter struct {
		Kilometers struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"kilometers"`
	} `json:"estimated_diameter"`
	Hazardous         bool       `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData []approach `json:"close_approach_data"`
}

type approach struct {
	Date             string `json:"close_approach_date"`
	EpochMillis      int64  `json:"epoch_date_close_approach"`
	RelativeVelocity struct {
		KilometersPerHour string `json:"kilometers_per_hour"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
}

// Source loads close approaches for the next week.
type Source struct {
	client  feeds.Getter
	baseURL string
	apiKey  string
	perDay  int
}

// New creates a NeoWs adapter. Empty baseURL and apiKey use the public
// endpoint and the shared demo key.
func New(client feeds.Getter, baseURL, apiKey string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiKey == "" {
		apiKey = DemoKey
	}
	return &Source{client: client, baseURL: baseURL, apiKey: apiKey, perDay: feeds.MaxNEOPerDay}
}

func (s *Source) Name() string { return model.FeedNEO }
func (s *Source) Kind() model.Kind { return model.KindNearEarthObject }

func (s *Source) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	endpoint := s.baseURL + "/feed"
	start := now.UTC()
	query := url.Values{
		"start_date": {start.Format("2006-01-02")},
		"end_date":   {start.AddDate(0, 0, windowDays).Format("2006-01-02")},
		"api_key":    {s.apiKey},
	}

	var payload feedPayload
	if err := s.client.GetJSON(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}

	objects, err := parseFeed(payload)
	if err != nil {
		return nil, fetch.ParseError(endpoint, err)
	}
	objects = feeds.SelectApproaches(objects, s.perDay)
	if len(objects) == 0 {
		return nil, fetch.Empty(endpoint, "no close approaches in window")
	}
	return feeds.Records(objects), nil
}

func parseFeed(p feedPayload) ([]model.NearEarthObject, error) {
	var out []model.NearEarthObject
	for day, objects := range p.NearEarthObjects {
		for _, o := range objects {
			if len(o.CloseApproachData) == 0 {
				continue
			}
			ca := o.CloseApproachData[0]

			at, err := approachTime(ca, day)
			if err != nil {
				return nil, err
			}
			miss, err := parseNumber(ca.MissDistance.Kilometers)
			if err != nil {
				return nil, err
			}
			speed, err := parseNumber(ca.RelativeVelocity.KilometersPerHour)
			if err != nil {
				return nil, err
			}

			out = append(out, model.NearEarthObject{
				Meta: model.Meta{
					ID:     feeds.StableID(model.FeedNEO, o.ID, day),
					Time:   at,
					Source: model.SourceLive,
				},
				Name:           o.Name,
				DiameterMinKm:  o.EstimatedDiameter.Kilometers.Min,
				DiameterMaxKm:  o.EstimatedDiameter.Kilometers.Max,
				MissDistanceKm: miss,
				VelocityKmh:    speed,
				Hazardous:      o.Hazardous,
			})
		}
	}
	return out, nil
}

func approachTime(ca approach, day string) (time.Time, error) {
	if ca.EpochMillis > 0 {
		return time.UnixMilli(ca.EpochMillis).UTC(), nil
	}
	date := ca.Date
	if date == "" {
		date = day
	}
	return time.Parse("2006-01-02", date)
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Fallback is three well documented objects placed on the coming days.
func (s *Source) Fallback(now time.Time) []model.Record {
	day := now.UTC().Truncate(24 * time.Hour)
	return []model.Record{
		model.NearEarthObject{
			Meta:           model.Meta{ID: "neo-fallback-eros", Time: day.Add(24 * time.Hour), Source: model.SourceFallback},
			Name:           "433 Eros (A898 PA)",
			DiameterMinKm:  16.8,
			DiameterMaxKm:  37.5,
			MissDistanceKm: 26_700_000,
			VelocityKmh:    21_600,
		},
		model.NearEarthObject{
			Meta:           model.Meta{ID: "neo-fallback-apophis", Time: day.Add(48 * time.Hour), Source: model.SourceFallback},
			Name:           "99942 Apophis (2004 MN4)",
			DiameterMinKm:  0.34,
			DiameterMaxKm:  0.37,
			MissDistanceKm: 38_000_000,
			VelocityKmh:    26_400,
			Hazardous:      true,
		},
		model.NearEarthObject{
			Meta:           model.Meta{ID: "neo-fallback-bennu", Time: day.Add(72 * time.Hour), Source: model.SourceFallback},
			Name:           "101955 Bennu (1999 RQ36)",
			DiameterMinKm:  0.47,
			DiameterMaxKm:  0.51,
			MissDistanceKm: 45_000_000,
			VelocityKmh:    22_000,
			Hazardous:      true,
		},
	}
}

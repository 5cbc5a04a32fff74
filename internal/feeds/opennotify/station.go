// Package opennotify adapts the open-notify station position and crew endpoints.
package opennotify

import (
	"context"
	"strconv"
	"time"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

// DefaultBaseURL is the public open-notify API.
const DefaultBaseURL = "http://api.open-notify.org"

// The API reports only the ground track, so altitude and speed are the
// station's published averages.
const (
	averageAltitudeKm  = 408
	averageVelocityKmh = 27600
)

type positionPayload struct {
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	ISSPosition struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
}

// Station loads the current station position.
type Station struct {
	client  feeds.Getter
	baseURL string
}

// NewStation creates a station adapter. An empty baseURL uses DefaultBaseURL.
func NewStation(client feeds.Getter, baseURL string) *Station {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Station{client: client, baseURL: baseURL}
}

func (s *Station) Name() string { return model.FeedStation }
func (s *Station) Kind() model.Kind { return model.KindStationPosition }

func (s *Station) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	endpoint := s.baseURL + "/iss-now.json"

	var payload positionPayload
	if err := s.client.GetJSON(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	pos, err := parsePosition(payload, now)
	if err != nil {
		return nil, fetch.ParseError(endpoint, err)
	}
	return []model.Record{pos}, nil
}

func parsePosition(p positionPayload, now time.Time) (model.StationPosition, error) {
	lat, err := strconv.ParseFloat(p.ISSPosition.Latitude, 64)
	if err != nil {
		return model.StationPosition{}, err
	}
	lng, err := strconv.ParseFloat(p.ISSPosition.Longitude, 64)
	if err != nil {
		return model.StationPosition{}, err
	}

	at := now
	if p.Timestamp > 0 {
		at = time.Unix(p.Timestamp, 0).UTC()
	}

	return model.StationPosition{
		Meta: model.Meta{
			ID:     feeds.StableID(model.FeedStation, strconv.FormatInt(at.Unix(), 10)),
			Time:   at,
			Source: model.SourceLive,
		},
		Latitude:    lat,
		Longitude:   lng,
		AltitudeKm:  averageAltitudeKm,
		VelocityKmh: averageVelocityKmh,
		Visibility:  "Visible",
	}, nil
}

// Fallback is a fixed position over Miami.
func (s *Station) Fallback(now time.Time) []model.Record {
	return []model.Record{model.StationPosition{
		Meta: model.Meta{
			ID:     "station-fallback",
			Time:   now,
			Source: model.SourceFallback,
		},
		Latitude:    25.7617,
		Longitude:   -80.1918,
		AltitudeKm:  averageAltitudeKm,
		VelocityKmh: averageVelocityKmh,
		Visibility:  "Visible",
	}}
}

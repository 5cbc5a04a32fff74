// Package openmeteo adapts Open-Meteo current conditions, named through the
// BigDataCloud reverse geocoder.
package openmeteo

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/model"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodeURL  = "https://api.bigdatacloud.net/data/reverse-geocode-client"
)

type forecastPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Time        string   `json:"time"`
		Temperature float64  `json:"temperature_2m"`
		Humidity    float64  `json:"relative_humidity_2m"`
		CloudCover  float64  `json:"cloud_cover"`
		Visibility  *float64 `json:"visibility"` // meters
	} `json:"current"`
}

type geocodePayload struct {
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
}

// Options configures the weather adapter.
type Options struct {
	ForecastURL string
	GeocodeURL  string
	Latitude    float64
	Longitude   float64
	PlaceName   string // used as is when set; skips reverse geocoding
}

// Source loads a weather snapshot for the observer's location.
type Source struct {
	client      feeds.Getter
	forecastURL string
	geocodeURL  string

	mu        sync.RWMutex
	lat, lng  float64
	placeName string
}

// New creates a weather adapter.
func New(client feeds.Getter, opts Options) *Source {
	if opts.ForecastURL == "" {
		opts.ForecastURL = DefaultForecastURL
	}
	if opts.GeocodeURL == "" {
		opts.GeocodeURL = DefaultGeocodeURL
	}
	return &Source{
		client:      client,
		forecastURL: opts.ForecastURL,
		geocodeURL:  opts.GeocodeURL,
		lat:         opts.Latitude,
		lng:         opts.Longitude,
		placeName:   opts.PlaceName,
	}
}

// SetLocation moves the observer. The next Load uses the new coordinates.
// An empty placeName re-enables reverse geocoding.
func (s *Source) SetLocation(lat, lng float64, placeName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lat, s.lng, s.placeName = lat, lng, placeName
}

// Location returns the configured coordinates.
func (s *Source) Location() (lat, lng float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lat, s.lng
}

func (s *Source) Name() string { return model.FeedWeather }
func (s *Source) Kind() model.Kind { return model.KindWeatherSnapshot }

func (s *Source) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	s.mu.RLock()
	lat, lng, place := s.lat, s.lng, s.placeName
	s.mu.RUnlock()

	query := url.Values{
		"latitude":  {formatCoord(lat)},
		"longitude": {formatCoord(lng)},
		"current":   {"temperature_2m,relative_humidity_2m,cloud_cover,visibility"},
		"timezone":  {"auto"},
	}
	var payload forecastPayload
	if err := s.client.GetJSON(ctx, s.forecastURL, query, &payload); err != nil {
		return nil, err
	}

	if place == "" {
		// A missing place name never fails the feed.
		name, err := s.reverseGeocode(ctx, lat, lng)
		if err != nil {
			logging.Debug("reverse geocode failed", "lat", lat, "lng", lng, "error", err)
		}
		place = name
	}

	snap := toSnapshot(payload, lat, lng, place, now)
	return []model.Record{snap}, nil
}

func (s *Source) reverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	query := url.Values{
		"latitude":         {formatCoord(lat)},
		"longitude":        {formatCoord(lng)},
		"localityLanguage": {"en"},
	}
	var payload geocodePayload
	if err := s.client.GetJSON(ctx, s.geocodeURL, query, &payload); err != nil {
		return "", err
	}
	return placeLabel(payload), nil
}

func placeLabel(p geocodePayload) string {
	city := p.City
	if city == "" {
		city = p.Locality
	}
	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if p.PrincipalSubdivision != "" {
		parts = append(parts, p.PrincipalSubdivision)
	} else if p.CountryName != "" {
		parts = append(parts, p.CountryName)
	}
	return strings.Join(parts, ", ")
}

func toSnapshot(p forecastPayload, lat, lng float64, place string, now time.Time) model.WeatherSnapshot {
	visKm := 10.0
	if p.Current.Visibility != nil {
		visKm = *p.Current.Visibility / 1000
	}
	return model.WeatherSnapshot{
		Meta: model.Meta{
			ID:     feeds.StableID(model.FeedWeather, formatCoord(lat), formatCoord(lng), p.Current.Time),
			Time:   now,
			Source: model.SourceLive,
		},
		TemperatureC:  p.Current.Temperature,
		HumidityPct:   p.Current.Humidity,
		CloudCoverPct: p.Current.CloudCover,
		VisibilityKm:  visKm,
		Latitude:      lat,
		Longitude:     lng,
		PlaceName:     place,
	}
}

// Fallback is a mild, partly cloudy evening at the configured location.
func (s *Source) Fallback(now time.Time) []model.Record {
	s.mu.RLock()
	lat, lng, place := s.lat, s.lng, s.placeName
	s.mu.RUnlock()

	return []model.Record{model.WeatherSnapshot{
		Meta: model.Meta{
			ID:     "weather-fallback",
			Time:   now,
			Source: model.SourceFallback,
		},
		TemperatureC:  20,
		HumidityPct:   50,
		CloudCoverPct: 30,
		VisibilityKm:  10,
		Latitude:      lat,
		Longitude:     lng,
		PlaceName:     place,
	}}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

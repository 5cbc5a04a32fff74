// Package swpc adapts NOAA Space Weather Prediction Center products: the
// planetary K-index and the real-time solar wind plasma speed.
package swpc

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/model"
)

const (
	DefaultKpURL     = "https://services.swpc.noaa.gov/products/noaa-planetary-k-index.json"
	DefaultPlasmaURL = "https://services.swpc.noaa.gov/products/solar-wind/plasma-1-day.json"
)

// timeLayout is the time_tag format of the header-row products.
const timeLayout = "2006-01-02 15:04:05.000"

// Source loads the latest geomagnetic reading.
type Source struct {
	client    feeds.Getter
	kpURL     string
	plasmaURL string
}

// New creates a space-weather adapter. Empty URLs use the NOAA defaults.
func New(client feeds.Getter, kpURL, plasmaURL string) *Source {
	if kpURL == "" {
		kpURL = DefaultKpURL
	}
	if plasmaURL == "" {
		plasmaURL = DefaultPlasmaURL
	}
	return &Source{client: client, kpURL: kpURL, plasmaURL: plasmaURL}
}

func (s *Source) Name() string { return model.FeedSpaceWeather }
func (s *Source) Kind() model.Kind { return model.KindSpaceWeather }

func (s *Source) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	var rows []json.RawMessage
	if err := s.client.GetJSON(ctx, s.kpURL, nil, &rows); err != nil {
		return nil, err
	}
	table, err := parseTable(rows)
	if err != nil {
		return nil, fetch.ParseError(s.kpURL, err)
	}
	at, kp, ok := latest(table, "kp")
	if !ok {
		return nil, fetch.Empty(s.kpURL, "no k-index samples")
	}
	if at.IsZero() {
		at = now
	}

	reading := model.SpaceWeatherReading{
		Meta: model.Meta{
			ID:     feeds.StableID(model.FeedSpaceWeather, at.Format(time.RFC3339)),
			Time:   at,
			Source: model.SourceLive,
		},
		KpIndex: kp,
	}

	// Solar wind is supplementary; the reading stands without it.
	if speed, err := s.solarWind(ctx); err != nil {
		logging.Debug("solar wind unavailable", "error", err)
	} else {
		reading.SolarWindKms = speed
	}

	return []model.Record{reading}, nil
}

func (s *Source) solarWind(ctx context.Context) (float64, error) {
	var rows []json.RawMessage
	if err := s.client.GetJSON(ctx, s.plasmaURL, nil, &rows); err != nil {
		return 0, err
	}
	table, err := parseTable(rows)
	if err != nil {
		return 0, fetch.ParseError(s.plasmaURL, err)
	}
	_, speed, ok := latest(table, "speed")
	if !ok {
		return 0, fetch.Empty(s.plasmaURL, "no plasma samples")
	}
	return speed, nil
}

// row is one sample keyed by lower-cased column name. NOAA products are
// either a header row followed by value rows, or a list of objects keyed by
// the same names; parseTable accepts both.
type row map[string]string

func parseTable(raw []json.RawMessage) ([]row, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// Object form.
	if first := strings.TrimSpace(string(raw[0])); strings.HasPrefix(first, "{") {
		out := make([]row, 0, len(raw))
		for _, r := range raw {
			var obj map[string]any
			if err := json.Unmarshal(r, &obj); err != nil {
				return nil, err
			}
			rw := make(row, len(obj))
			for k, v := range obj {
				rw[strings.ToLower(k)] = stringify(v)
			}
			out = append(out, rw)
		}
		return out, nil
	}

	// Header-row form.
	var header []string
	if err := json.Unmarshal(raw[0], &header); err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(header[i])
	}
	out := make([]row, 0, len(raw)-1)
	for _, r := range raw[1:] {
		var cells []any
		if err := json.Unmarshal(r, &cells); err != nil {
			return nil, err
		}
		rw := make(row, len(header))
		for i, h := range header {
			if i < len(cells) {
				rw[h] = stringify(cells[i])
			}
		}
		out = append(out, rw)
	}
	return out, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// latest returns the last row with a numeric value in column.
func latest(rows []row, column string) (time.Time, float64, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		v, err := strconv.ParseFloat(rows[i][column], 64)
		if err != nil {
			continue
		}
		return parseTimeTag(rows[i]["time_tag"]), v, true
	}
	return time.Time{}, 0, false
}

func parseTimeTag(s string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Fallback is a quiet geomagnetic field.
func (s *Source) Fallback(now time.Time) []model.Record {
	return []model.Record{model.SpaceWeatherReading{
		Meta: model.Meta{
			ID:     "space-weather-fallback",
			Time:   now,
			Source: model.SourceFallback,
		},
		KpIndex:      2,
		SolarWindKms: 425,
	}}
}

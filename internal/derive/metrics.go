package derive

import (
	"math"
	"time"

	"github.com/abelbrown/skydeck/internal/model"
)

// Calculator derives metrics for one feed. It must be pure: the same
// records and now always give the same metrics.
type Calculator func(records []model.Record, now time.Time) []model.Metric

var calculators = map[string]Calculator{
	model.FeedStation:          stationMetrics,
	model.FeedCrew:             crewMetrics,
	model.FeedNEO:              neoMetrics,
	model.FeedLaunchesUpcoming: upcomingMetrics,
	model.FeedLaunchesRecent:   recentMetrics,
	model.FeedWeather:          weatherMetrics,
	model.FeedSpaceWeather:     spaceWeatherMetrics,
	model.FeedEvents:           eventMetrics,
}

// Metrics derives the metrics for feed. Unknown feeds and empty record sets
// yield nil.
func Metrics(feed string, records []model.Record, now time.Time) []model.Metric {
	calc, ok := calculators[feed]
	if !ok || len(records) == 0 {
		return nil
	}
	return calc(records, now)
}

// LunarMetrics derives the lunar phase metrics, which need no feed.
func LunarMetrics(now time.Time) []model.Metric {
	p := NextLunarPhases(ReferenceNewMoon, SynodicMonth, now)
	return []model.Metric{
		{Feed: "lunar", Name: "next_new_days", Value: days(p.NextNew.Sub(now)), Label: p.NextNew.Format(time.RFC3339), At: now},
		{Feed: "lunar", Name: "next_full_days", Value: days(p.NextFull.Sub(now)), Label: p.NextFull.Format(time.RFC3339), At: now},
		{Feed: "lunar", Name: "age_days", Value: round1(p.AgeDays), Label: p.Phase, At: now},
	}
}

func stationMetrics(records []model.Record, now time.Time) []model.Metric {
	pos, ok := first[model.StationPosition](records)
	if !ok {
		return nil
	}
	return []model.Metric{
		{Feed: model.FeedStation, Name: "latitude", Value: pos.Latitude, At: now},
		{Feed: model.FeedStation, Name: "longitude", Value: pos.Longitude, At: now},
		{Feed: model.FeedStation, Name: "velocity", Value: pos.VelocityKmh, Label: pos.Visibility, At: now},
	}
}

func crewMetrics(records []model.Record, now time.Time) []model.Metric {
	n := len(all[model.CrewMember](records))
	return []model.Metric{
		{Feed: model.FeedCrew, Name: "count", Value: float64(n), At: now},
	}
}

func neoMetrics(records []model.Record, now time.Time) []model.Metric {
	objects := all[model.NearEarthObject](records)
	hazardous := 0
	closest := math.Inf(1)
	closestName := ""
	for _, o := range objects {
		if o.Hazardous {
			hazardous++
		}
		if o.MissDistanceKm > 0 && o.MissDistanceKm < closest {
			closest = o.MissDistanceKm
			closestName = o.Name
		}
	}
	out := []model.Metric{
		{Feed: model.FeedNEO, Name: "count", Value: float64(len(objects)), At: now},
		{Feed: model.FeedNEO, Name: "hazardous", Value: float64(hazardous), At: now},
	}
	if closestName != "" {
		out = append(out, model.Metric{Feed: model.FeedNEO, Name: "closest_km", Value: closest, Label: closestName, At: now})
	}
	return out
}

func upcomingMetrics(records []model.Record, now time.Time) []model.Metric {
	target, name, ok := NextLaunch(records, now)
	if !ok {
		return []model.Metric{
			{Feed: model.FeedLaunchesUpcoming, Name: "countdown", Value: 0, Label: ExpiredText, At: now},
		}
	}
	r := Countdown(target, now)
	return []model.Metric{
		{Feed: model.FeedLaunchesUpcoming, Name: "countdown", Value: r.Total.Seconds(), Label: r.String(), At: now},
		{Feed: model.FeedLaunchesUpcoming, Name: "next", Value: float64(target.Unix()), Label: name, At: now},
	}
}

// NextLaunch returns the earliest launch in records strictly after now.
func NextLaunch(records []model.Record, now time.Time) (time.Time, string, bool) {
	var best model.LaunchEvent
	found := false
	for _, l := range all[model.LaunchEvent](records) {
		if !l.Time.After(now) {
			continue
		}
		if !found || l.Time.Before(best.Time) {
			best = l
			found = true
		}
	}
	return best.Time, best.Name, found
}

// FirstLaunch returns the earliest launch in records regardless of now.
// The countdown watcher uses it to notice a target that just passed.
func FirstLaunch(records []model.Record) (model.LaunchEvent, bool) {
	var best model.LaunchEvent
	found := false
	for _, l := range all[model.LaunchEvent](records) {
		if !found || l.Time.Before(best.Time) {
			best = l
			found = true
		}
	}
	return best, found
}

func recentMetrics(records []model.Record, now time.Time) []model.Metric {
	launches := all[model.LaunchEvent](records)
	known, succeeded := 0, 0
	for _, l := range launches {
		if l.Success == nil {
			continue
		}
		known++
		if *l.Success {
			succeeded++
		}
	}
	out := []model.Metric{
		{Feed: model.FeedLaunchesRecent, Name: "count", Value: float64(len(launches)), At: now},
	}
	if known > 0 {
		out = append(out, model.Metric{
			Feed:  model.FeedLaunchesRecent,
			Name:  "success_rate",
			Value: round1(float64(succeeded) / float64(known) * 100),
			At:    now,
		})
	}
	return out
}

func weatherMetrics(records []model.Record, now time.Time) []model.Metric {
	w, ok := first[model.WeatherSnapshot](records)
	if !ok {
		return nil
	}
	s := Stargazing(w.CloudCoverPct, w.VisibilityKm)
	return []model.Metric{
		{Feed: model.FeedWeather, Name: "stargazing", Value: float64(s.Score), Label: string(s.Rating), At: now},
		{Feed: model.FeedWeather, Name: "conditions", Value: w.CloudCoverPct, Label: Conditions(w.CloudCoverPct), At: now},
		{Feed: model.FeedWeather, Name: "temperature", Value: w.TemperatureC, Label: w.PlaceName, At: now},
	}
}

func spaceWeatherMetrics(records []model.Record, now time.Time) []model.Metric {
	r, ok := first[model.SpaceWeatherReading](records)
	if !ok {
		return nil
	}
	class := ClassifyKp(r.KpIndex)
	out := []model.Metric{
		{Feed: model.FeedSpaceWeather, Name: "kp", Value: r.KpIndex, Label: string(class), At: now},
		{Feed: model.FeedSpaceWeather, Name: "aurora", Value: r.KpIndex, Label: AuroraChance(class), At: now},
	}
	if r.SolarWindKms > 0 {
		out = append(out, model.Metric{Feed: model.FeedSpaceWeather, Name: "solar_wind", Value: r.SolarWindKms, At: now})
	}
	return out
}

func eventMetrics(records []model.Record, now time.Time) []model.Metric {
	events := all[model.AstronomyEvent](records)
	var next model.AstronomyEvent
	found := false
	for _, e := range events {
		if e.Time.Before(now) {
			continue
		}
		if !found || e.Time.Before(next.Time) {
			next = e
			found = true
		}
	}
	if !found {
		return nil
	}
	return []model.Metric{
		{Feed: model.FeedEvents, Name: "next_days", Value: days(next.Time.Sub(now)), Label: next.Title, At: now},
	}
}

func first[T model.Record](records []model.Record) (T, bool) {
	for _, r := range records {
		if v, ok := r.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func all[T model.Record](records []model.Record) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func days(d time.Duration) float64 {
	return round1(d.Hours() / 24)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

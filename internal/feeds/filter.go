package feeds

import (
	"sort"
	"time"

	"github.com/abelbrown/skydeck/internal/model"
)

// MaxLaunches caps both launch lists.
const MaxLaunches = 6

// MaxNEOPerDay caps close approaches kept for any single day.
const MaxNEOPerDay = 3

// SelectUpcoming keeps launches strictly after now, soonest first, capped at limit.
func SelectUpcoming(launches []model.LaunchEvent, now time.Time, limit int) []model.LaunchEvent {
	out := make([]model.LaunchEvent, 0, len(launches))
	for _, l := range launches {
		if l.Time.After(now) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return capLen(out, limit)
}

// SelectRecent keeps launches at or before now, most recent first, capped at limit.
func SelectRecent(launches []model.LaunchEvent, now time.Time, limit int) []model.LaunchEvent {
	out := make([]model.LaunchEvent, 0, len(launches))
	for _, l := range launches {
		if !l.Time.After(now) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.After(out[j].Time)
	})
	return capLen(out, limit)
}

// SelectApproaches keeps at most perDay objects per UTC day, ordered by
// approach time ascending.
func SelectApproaches(objects []model.NearEarthObject, perDay int) []model.NearEarthObject {
	sorted := make([]model.NearEarthObject, len(objects))
	copy(sorted, objects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	counts := make(map[string]int)
	out := make([]model.NearEarthObject, 0, len(sorted))
	for _, o := range sorted {
		day := o.Time.UTC().Format("2006-01-02")
		if perDay > 0 && counts[day] >= perDay {
			continue
		}
		counts[day]++
		out = append(out, o)
	}
	return out
}

// SelectEvents keeps events whose peak is at or after the start of now's
// UTC day, soonest first.
func SelectEvents(events []model.AstronomyEvent, now time.Time) []model.AstronomyEvent {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	out := make([]model.AstronomyEvent, 0, len(events))
	for _, e := range events {
		if !e.Time.Before(dayStart) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Records converts a typed slice into the Record interface slice.
func Records[T model.Record](in []T) []model.Record {
	out := make([]model.Record, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

func capLen[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

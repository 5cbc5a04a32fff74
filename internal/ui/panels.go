package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/skydeck/internal/coord"
	"github.com/abelbrown/skydeck/internal/derive"
	"github.com/abelbrown/skydeck/internal/model"
)

// maxPanelRows caps the body lines of one panel.
const maxPanelRows = 4

var feedTitles = map[string]string{
	model.FeedStation:          "Space Station",
	model.FeedCrew:             "Crew Aboard",
	model.FeedLaunchesUpcoming: "Upcoming Launches",
	model.FeedLaunchesRecent:   "Recent Launches",
	model.FeedNEO:              "Near-Earth Objects",
	model.FeedWeather:          "Stargazing",
	model.FeedSpaceWeather:     "Space Weather",
	model.FeedEvents:           "Sky Events",
}

// FeedTitle returns the display title for a feed key.
func FeedTitle(feed string) string {
	if t, ok := feedTitles[feed]; ok {
		return t
	}
	return feed
}

// panelView is everything renderPanel needs for one feed.
type panelView struct {
	state   coord.State
	now     time.Time
	spinner string
	width   int
	focused bool
	palette Palette
}

// renderPanel draws one feed: title, status line, optional error banner
// and a few summary rows.
func renderPanel(v panelView) string {
	inner := v.width - 4 // border + padding
	if inner < 10 {
		inner = 10
	}

	title := v.palette.Title.Render(FeedTitle(v.state.Feed))
	if v.state.UsingFallback {
		title += SourceBadge.Render("fallback")
	}

	lines := []string{title, MutedStyle.Render(fit(statusLine(v.state, v.spinner, v.now), inner))}
	if banner := errorBanner(v.state); banner != "" {
		lines = append(lines, ErrorStyle.Render(fit(banner, inner)))
	}
	if v.state.HasData() {
		accent, hasAccent := accentFor(v.state.Feed, v.state.Data)
		for i, row := range summarize(v.state.Feed, v.state.Data, v.now) {
			style := v.palette.Text
			if i == 0 && hasAccent {
				style = accent
			}
			lines = append(lines, style.Render(fit(row, inner)))
		}
	}

	style := v.palette.Panel
	if v.focused {
		style = v.palette.PanelFocus
	}
	return style.Width(v.width - 2).Render(strings.Join(lines, "\n"))
}

// statusLine shows the spinner while loading, then the humanized age of
// the last successful update.
func statusLine(s coord.State, spin string, now time.Time) string {
	if s.Loading {
		return spin + " Loading..."
	}
	var parts []string
	if s.Fetching {
		parts = append(parts, spin+" refreshing")
	}
	if s.LastUpdated.IsZero() {
		parts = append(parts, "no live data yet")
	} else {
		parts = append(parts, "updated "+humanize.RelTime(s.LastUpdated, now, "ago", "from now"))
	}
	if s.Failures > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d failed", s.Failures, s.Attempts))
	}
	return strings.Join(parts, " · ")
}

// errorBanner describes the current error, if any.
func errorBanner(s coord.State) string {
	if s.Err == nil {
		return ""
	}
	msg := "! " + string(s.Err.Kind)
	if s.Err.Status != 0 {
		msg += fmt.Sprintf(" %d", s.Err.Status)
	}
	if s.UsingFallback {
		return msg + ": showing fallback data"
	}
	return msg + ": showing last good data"
}

// summarize turns a feed's records into a few display rows.
func summarize(feed string, records []model.Record, now time.Time) []string {
	var rows []string
	switch feed {
	case model.FeedStation:
		if p, ok := firstOf[model.StationPosition](records); ok {
			rows = append(rows, fmt.Sprintf("%.2f°, %.2f°", p.Latitude, p.Longitude))
			if p.AltitudeKm > 0 {
				rows = append(rows, fmt.Sprintf("%s km up · %s km/h", humanize.Commaf(round(p.AltitudeKm)), humanize.Commaf(round(p.VelocityKmh))))
			}
		}

	case model.FeedCrew:
		crew := allOf[model.CrewMember](records)
		if len(crew) > 0 {
			rows = append(rows, fmt.Sprintf("%d aboard %s", len(crew), crew[0].Craft))
		}
		for _, c := range crew {
			rows = append(rows, "· "+c.Name)
		}

	case model.FeedLaunchesUpcoming:
		launches := allOf[model.LaunchEvent](records)
		if first, ok := derive.FirstLaunch(records); ok {
			rows = append(rows, first.Name+" ("+first.Rocket+")")
			rows = append(rows, "T- "+derive.Countdown(first.Time, now).String())
		}
		for _, l := range launches {
			if len(rows) >= maxPanelRows {
				break
			}
			rows = append(rows, fmt.Sprintf("· %s %s", l.Time.Local().Format("Jan 2 15:04"), l.Name))
		}

	case model.FeedLaunchesRecent:
		for _, l := range allOf[model.LaunchEvent](records) {
			mark := "?"
			if l.Success != nil && *l.Success {
				mark = "✓"
			} else if l.Success != nil {
				mark = "✗"
			}
			rows = append(rows, fmt.Sprintf("%s %s · %s", mark, l.Name, humanize.RelTime(l.Time, now, "ago", "from now")))
		}

	case model.FeedNEO:
		objs := allOf[model.NearEarthObject](records)
		hazardous := 0
		var closest model.NearEarthObject
		for i, o := range objs {
			if o.Hazardous {
				hazardous++
			}
			if i == 0 || o.MissDistanceKm < closest.MissDistanceKm {
				closest = o
			}
		}
		rows = append(rows, fmt.Sprintf("%d approaches · %d hazardous", len(objs), hazardous))
		if len(objs) > 0 {
			rows = append(rows, fmt.Sprintf("closest %s at %s km", closest.Name, humanize.Comma(int64(closest.MissDistanceKm))))
		}

	case model.FeedWeather:
		if w, ok := firstOf[model.WeatherSnapshot](records); ok {
			score := derive.Stargazing(w.CloudCoverPct, w.VisibilityKm)
			rows = append(rows, fmt.Sprintf("Score %d/100 %s", score.Score, score.Rating))
			rows = append(rows, fmt.Sprintf("%s · clouds %.0f%% · vis %.0f km", derive.Conditions(w.CloudCoverPct), w.CloudCoverPct, w.VisibilityKm))
			if w.PlaceName != "" {
				rows = append(rows, fmt.Sprintf("%s · %.0f°C", w.PlaceName, w.TemperatureC))
			}
		}

	case model.FeedSpaceWeather:
		if r, ok := firstOf[model.SpaceWeatherReading](records); ok {
			class := derive.ClassifyKp(r.KpIndex)
			rows = append(rows, fmt.Sprintf("Kp %.1f %s", r.KpIndex, class))
			rows = append(rows, "Aurora: "+derive.AuroraChance(class))
			if r.SolarWindKms > 0 {
				rows = append(rows, fmt.Sprintf("Solar wind %.0f km/s", r.SolarWindKms))
			}
		}

	case model.FeedEvents:
		for _, e := range allOf[model.AstronomyEvent](records) {
			rows = append(rows, fmt.Sprintf("%s · %s", e.Title, humanize.RelTime(e.Time, now, "ago", "from now")))
		}
	}

	if len(rows) > maxPanelRows {
		rows = rows[:maxPanelRows]
	}
	return rows
}

// lunarLine renders the approximate next phases.
func lunarLine(now time.Time) string {
	p := derive.NextLunarPhases(derive.ReferenceNewMoon, derive.SynodicMonth, now)
	return fmt.Sprintf("Moon: %s · new %s · full %s",
		p.Phase, p.NextNew.Local().Format("Jan 2"), p.NextFull.Local().Format("Jan 2"))
}

// accentFor picks the color of a panel's first row, for feeds whose
// headline is a rating.
func accentFor(feed string, records []model.Record) (lipgloss.Style, bool) {
	switch feed {
	case model.FeedWeather:
		if w, ok := firstOf[model.WeatherSnapshot](records); ok {
			return ratingStyle(derive.Stargazing(w.CloudCoverPct, w.VisibilityKm).Rating), true
		}
	case model.FeedSpaceWeather:
		if r, ok := firstOf[model.SpaceWeatherReading](records); ok {
			return kpStyle(derive.ClassifyKp(r.KpIndex)), true
		}
	}
	return lipgloss.Style{}, false
}

func ratingStyle(r derive.Rating) lipgloss.Style {
	switch r {
	case derive.RatingExcellent, derive.RatingGood:
		return GoodStyle
	case derive.RatingFair:
		return FairStyle
	default:
		return PoorStyle
	}
}

func kpStyle(c derive.KpClass) lipgloss.Style {
	switch c {
	case derive.KpQuiet:
		return GoodStyle
	case derive.KpUnsettled, derive.KpActive:
		return FairStyle
	default:
		return PoorStyle
	}
}

// fit truncates s to width terminal cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

func round(v float64) float64 {
	return float64(int64(v + 0.5))
}

func firstOf[T model.Record](records []model.Record) (T, bool) {
	for _, r := range records {
		if v, ok := r.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func allOf[T model.Record](records []model.Record) []T {
	var out []T
	for _, r := range records {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

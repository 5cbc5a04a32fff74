package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/skydeck/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// focusedHistory is how many events the overlay shows for the focused feed.
const focusedHistory = 5

// debugOverlay renders poll stats, per-feed health, the focused feed's
// history and recent events from the ring. Returns "" if ring is nil.
func debugOverlay(ring *otel.RingBuffer, focused string, width, height int, now time.Time) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(12)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Poll Stats"))
	lines = append(lines, fmt.Sprintf("  Polls:      %d started, %d complete, %d errors",
		stats[otel.KindPollStart], stats[otel.KindPollComplete], stats[otel.KindPollError]))
	lines = append(lines, fmt.Sprintf("  Dropped:    %d skipped, %d stale, %d fallbacks",
		stats[otel.KindPollSkip], stats[otel.KindPollStale], stats[otel.KindPollFallback]))
	lines = append(lines, fmt.Sprintf("  Countdown:  %d expiries", stats[otel.KindCountdownExpire]))
	lines = append(lines, fmt.Sprintf("  Tutor:      %d asked, %d replies, %d errors",
		stats[otel.KindTutorAsk], stats[otel.KindTutorReply], stats[otel.KindTutorError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if health := ring.Health(); len(health) > 0 {
		lines = append(lines, DebugHeaderStyle.Render("Feed Health"))
		for _, h := range health {
			lines = append(lines, "  "+healthLine(h, now))
			if h.LastErr != "" {
				lines = append(lines, "    last error: "+fit(h.LastErr, 50))
			}
		}
		lines = append(lines, "")
	}

	if focused != "" {
		if history := ring.ForFeed(focused, focusedHistory); len(history) > 0 {
			lines = append(lines, DebugHeaderStyle.Render(FeedTitle(focused)+" History"))
			for _, e := range history {
				lines = append(lines, "  "+eventLine(e, now))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		lines = append(lines, "  "+eventLine(e, now))
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// eventLine formats one event for the overlay and the footer.
func eventLine(e otel.Event, now time.Time) string {
	line := fmt.Sprintf("%6s  %-16s", formatAge(now.Sub(e.Time)), string(e.Kind))
	if e.Feed != "" {
		line += "  " + e.Feed
	}
	if e.Msg != "" {
		line += "  " + fit(e.Msg, 40)
	}
	if e.Err != "" {
		line += "  ERR:" + fit(e.Err, 30)
	}
	return line
}

// healthLine formats one feed's poll summary.
func healthLine(h otel.FeedHealth, now time.Time) string {
	return fmt.Sprintf("%-17s %3d polls  %2d err  %2d fallback  %2d skip  %5s ago",
		h.Feed, h.Polls, h.Errors, h.Fallbacks, h.Skips, formatAge(now.Sub(h.LastAt)))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(p Palette, width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return p.StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}

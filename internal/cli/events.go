package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/otel"
)

var (
	eventsTail   int
	eventsFollow bool
	eventsKind   string
	eventsFeed   string
	eventsLevel  string
	eventsJSON   bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the lifecycle event log",
	Long: `Print recent entries from events.jsonl, written by serve and tui.

Filters combine: --kind matches a prefix ("poll" matches poll.start and
poll.error), --level is a minimum severity.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.DataDir, "events", "events.jsonl")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("event log not found at %s (run skydeck serve or tui first): %w", path, err)
		}
		defer f.Close()

		match := eventFilter(eventsKind, eventsFeed, eventsLevel)
		out := cmd.OutOrStdout()
		for _, l := range readTail(f, eventsTail, match) {
			fmt.Fprintln(out, formatEvent(l, eventsJSON))
		}
		if !eventsFollow {
			return nil
		}

		ctx := cmd.Context()
		reader := bufio.NewReader(f)
		for {
			line, err := reader.ReadBytes('\n')
			if err == io.EOF {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(100 * time.Millisecond):
				}
				continue
			}
			if err != nil {
				return err
			}
			if l, ok := parseEvent(line); ok && match(l.ev) {
				fmt.Fprintln(out, formatEvent(l, eventsJSON))
			}
		}
	},
}

type eventLine struct {
	ev  otel.Event
	raw []byte
}

func levelRank(l otel.Level) int {
	switch l {
	case otel.LevelInfo:
		return 1
	case otel.LevelWarn:
		return 2
	case otel.LevelError:
		return 3
	default:
		return 0
	}
}

func eventFilter(kind, feed, level string) func(otel.Event) bool {
	minLevel := levelRank(otel.Level(strings.ToLower(level)))
	return func(ev otel.Event) bool {
		if kind != "" && !strings.HasPrefix(string(ev.Kind), kind) {
			return false
		}
		if feed != "" && ev.Feed != feed {
			return false
		}
		return levelRank(ev.Level) >= minLevel
	}
}

func parseEvent(raw []byte) (eventLine, bool) {
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return eventLine{}, false
	}
	var ev otel.Event
	if json.Unmarshal(raw, &ev) != nil {
		return eventLine{}, false
	}
	return eventLine{ev: ev, raw: raw}, true
}

// readTail returns the last n matching lines of r. n <= 0 returns nothing.
func readTail(r io.Reader, n int, match func(otel.Event) bool) []eventLine {
	if n <= 0 {
		return nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]eventLine, 0, n)
	for scanner.Scan() {
		l, ok := parseEvent(scanner.Bytes())
		if !ok || !match(l.ev) {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, l)
	}
	return ring
}

func formatEvent(l eventLine, raw bool) string {
	if raw {
		return string(l.raw)
	}
	ev := l.ev
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-5s] %-16s", ev.Time.Local().Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}
	if ev.Feed != "" {
		parts = append(parts, "feed="+ev.Feed)
	}
	if ev.Msg != "" {
		parts = append(parts, ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.0fms)", ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

func init() {
	eventsCmd.Flags().IntVar(&eventsTail, "tail", 50, "number of recent events to show")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "keep printing new events")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "event kind prefix, e.g. poll")
	eventsCmd.Flags().StringVar(&eventsFeed, "feed", "", "only events for this feed")
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "minimum level: debug, info, warn, error")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print raw JSON lines")
	rootCmd.AddCommand(eventsCmd)
}

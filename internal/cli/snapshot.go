package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/api/dto"
	"github.com/abelbrown/skydeck/internal/app"
)

var (
	snapshotFeeds   string
	snapshotTimeout time.Duration
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch every feed once and print the result as JSON",
	Long: `Fetch every feed once, without timers, and print one JSON object per feed
in the same shape as GET /api/feeds. Failed feeds show their fallback data
and the error that caused it.

Use --feed to limit the output to a comma-separated list of feeds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{LogOutput: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		want, err := parseFeeds(snapshotFeeds, a.Coord.Has)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if snapshotTimeout > 0 {
			var cancel func()
			ctx, cancel = context.WithTimeout(ctx, snapshotTimeout)
			defer cancel()
		}
		states, err := a.Coord.PollOnce(ctx)
		if err != nil {
			return fmt.Errorf("poll feeds: %w", err)
		}

		now := time.Now()
		out := make([]dto.FeedResponse, 0, len(states))
		for _, s := range states {
			if len(want) > 0 && !want[s.Feed] {
				continue
			}
			out = append(out, dto.ToFeedResponse(s, now))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// parseFeeds splits a comma-separated feed list and rejects unknown names.
func parseFeeds(list string, known func(string) bool) (map[string]bool, error) {
	want := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !known(name) {
			return nil, fmt.Errorf("unknown feed %q", name)
		}
		want[name] = true
	}
	return want, nil
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotFeeds, "feed", "", "comma-separated feeds to print (default all)")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", time.Minute, "overall deadline for the poll")
	rootCmd.AddCommand(snapshotCmd)
}

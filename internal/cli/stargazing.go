package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/model"
)

var stargazingAdd model.StargazingEvent

var stargazingCmd = &cobra.Command{
	Use:   "stargazing",
	Short: "List upcoming organized stargazing events",
	Long: `Print the next organized stargazing events, soonest first, with where
they happen and who runs them. Use "stargazing add" to list a new one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{LogOutput: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.UpcomingStargazing(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No upcoming stargazing events.")
			return nil
		}
		now := time.Now()
		for _, e := range events {
			fmt.Fprintf(out, "%s (%s)  %s\n", e.Date.Local().Format("Mon Jan 2 15:04"), humanize.RelTime(e.Date, now, "ago", "from now"), e.Title)
			fmt.Fprintf(out, "    %s (%.2f, %.2f)", e.LocationName, e.Latitude, e.Longitude)
			if e.Organizer != "" {
				fmt.Fprintf(out, " · %s", e.Organizer)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var stargazingAddDate string

var stargazingAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "List a new stargazing event",
	Long: `Add an organized stargazing event. Requires --owner; the organizer
defaults to the owner. --date takes RFC 3339 (2026-08-12T21:00:00Z).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := time.Parse(time.RFC3339, stargazingAddDate)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}

		a, err := openApp(cmd, app.Options{LogOutput: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		e := stargazingAdd
		e.Title = args[0]
		e.Date = date
		saved, err := a.AddStargazingEvent(cmd.Context(), a.Session.Owner(), e)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Listed %s at %s (%s)\n", saved.Title, saved.LocationName, saved.ID)
		return nil
	},
}

func init() {
	f := stargazingAddCmd.Flags()
	f.StringVar(&stargazingAddDate, "date", "", "event start, RFC 3339")
	f.StringVar(&stargazingAdd.LocationName, "location", "", "site name")
	f.Float64Var(&stargazingAdd.Latitude, "lat", 0, "site latitude")
	f.Float64Var(&stargazingAdd.Longitude, "lng", 0, "site longitude")
	f.StringVar(&stargazingAdd.Organizer, "organizer", "", "organizer (default: owner)")
	f.StringVar(&stargazingAdd.Description, "description", "", "what to expect")
	f.StringVar(&stargazingAdd.EventType, "type", "", "kind of event, e.g. star party")
	_ = stargazingAddCmd.MarkFlagRequired("date")
	_ = stargazingAddCmd.MarkFlagRequired("location")

	stargazingCmd.AddCommand(stargazingAddCmd)
	rootCmd.AddCommand(stargazingCmd)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal dashboard",
	Long: `Open the full-screen dashboard. Logs are written to a dated file under
the data dir so they do not corrupt the screen.

Keys: tab/shift+tab move focus, r refreshes the focused feed, R refreshes
everything, / asks the tutor, m switches answer depth, t toggles the theme,
D shows poll statistics, q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{EventLog: true})
		if err != nil {
			return err
		}
		defer a.Close()
		return ui.Run(cmd.Context(), a)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

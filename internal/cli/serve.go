package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/api"
	"github.com/abelbrown/skydeck/internal/app"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pollers and serve the JSON API",
	Long: `Start every feed poller and serve the dashboard state over HTTP.

Logs go to stderr. The listen address defaults to api.addr from the config.
Callers identify themselves with the X-Skydeck-User header; requests without
it act as --owner.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{LogOutput: cmd.ErrOrStderr(), EventLog: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Config.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		addr := serveAddr
		if addr == "" {
			addr = a.Config.API.Addr
		}
		return api.Serve(cmd.Context(), a, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, e.g. :8080")
	rootCmd.AddCommand(serveCmd)
}

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/logging"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skydeck %s (%s %s/%s)\n", logging.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

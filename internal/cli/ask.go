package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/tutor"
)

var askMode string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the astronomy tutor a question",
	Long: `Send one question to the tutor and print the answer. With --owner the
exchange is appended to that user's active chat session.

--mode detailed asks for a longer, more technical explanation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, app.Options{LogOutput: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		mode := tutor.ParseMode(askMode)
		_, reply, err := a.Tutor.Send(cmd.Context(), a.Session.Owner(), strings.Join(args, " "), mode)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, reply.Text)
		if reply.Provider != "" {
			fmt.Fprintf(out, "\n(%s, %s)\n", reply.Provider, mode.Label())
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askMode, "mode", string(tutor.ModeSimple), "answer depth: simple or detailed")
	rootCmd.AddCommand(askCmd)
}

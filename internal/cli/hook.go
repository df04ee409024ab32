package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/verdict/internal/hooks"
)

var hookServerURL string

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Forward agent hook events to a running verdict server",
}

func hookRun(event string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		// Hooks report on stderr and never fail the host.
		if _, err := hooks.Handle(ctx, hooks.NewClient(hookServerURL), event, cmd.InOrStdin()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "verdict hook: %v\n", err)
		}
	}
}

func init() {
	hookCmd.PersistentFlags().StringVar(&hookServerURL, "url", "", "Server URL (default $VERDICT_URL or http://127.0.0.1:37778)")
	hookCmd.AddCommand(&cobra.Command{
		Use:   "submit",
		Short: "Handle UserPromptSubmit: process the submitted prompt",
		Run:   hookRun(hooks.EventSubmit),
	})
	hookCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Handle Stop: process the final assistant message",
		Run:   hookRun(hooks.EventStop),
	})
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the assistant can call",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := startApp(cmd.Context(), newLogger())
		if err != nil {
			return err
		}
		defer a.Close()

		names := a.Tools()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tools available.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

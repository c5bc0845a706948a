package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/transport"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the medimate version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "medimate version %s\n", transport.Version)
	},
}

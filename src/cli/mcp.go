package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/config"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/transport"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve medimate's tools over MCP",
	Long: `Expose clean_output, validate_keywords and ask_medimate to MCP clients
over stdio or streamable HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := newLogger()

		a, err := startApp(ctx, log)
		if err != nil {
			return err
		}
		defer a.Close()

		mcpCfg := a.Config().MCP
		if mcpTransport != "" {
			mcpCfg.Transport = mcpTransport
		}
		if mcpAddr != "" {
			mcpCfg.HTTP.Addr = mcpAddr
		}
		if mcpCfg.Transport != config.TransportStdio && mcpCfg.Transport != config.TransportHTTP {
			return fmt.Errorf("--transport must be %q or %q, got %q", config.TransportStdio, config.TransportHTTP, mcpCfg.Transport)
		}

		upstream := transport.NewUpstream(mcpCfg, log)
		if err := a.RegisterTools(upstream.Server); err != nil {
			return err
		}
		log.Info("mcp server ready", "transport", mcpCfg.Transport)
		return upstream.Run(ctx)
	},
}

func init() {
	mcpCmd.Flags().StringVarP(&mcpTransport, "transport", "t", "", "stdio or http (default from config)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "", "HTTP listen address (default from config, :8090)")
}

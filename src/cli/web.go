package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/agent"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/chat"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/web"
)

var (
	webAddr    string
	webProfile string
	webOpen    bool
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the browser chat",
	Long: `Start the web chat. Each browser gets its own conversation, kept in
memory or, when a store path is configured, in the chat database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := newLogger()

		a, err := startApp(ctx, log)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.Config()
		if webAddr != "" {
			cfg.Web.Addr = webAddr
		}
		profile := webProfile
		if profile == "" {
			profile = cfg.Web.Profile
		}
		p, err := agent.LookupProfile(profile)
		if err != nil {
			return err
		}
		asst, err := a.Assistant(profile)
		if err != nil {
			return err
		}

		var store *chat.Store
		if cfg.Store.Path != "" {
			store, err = chat.OpenStore(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		opts := []web.Option{web.WithPageTitle(p.Title)}
		if webOpen {
			opts = append(opts, web.WithBrowser())
		}
		ask := func(ctx context.Context, prompt string) string {
			raw, _ := a.Ask(ctx, asst, prompt)
			return raw
		}
		return web.NewServer(cfg.Web, ask, chat.NewSessions(store, log), log, opts...).Run(ctx)
	},
}

func init() {
	webCmd.Flags().StringVar(&webAddr, "addr", "", "listen address (default from config, :8501)")
	webCmd.Flags().StringVarP(&webProfile, "profile", "p", "", "instruction profile (default from config, ayurvedic)")
	webCmd.Flags().BoolVar(&webOpen, "open", false, "open the chat in the default browser")
}

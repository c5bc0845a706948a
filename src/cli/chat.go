package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/agent"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/chat"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/tui"
)

var (
	chatProfile string
	chatLogFile string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the terminal chat",
	Long: `Start a full-screen terminal chat. Type your symptoms and press enter;
/clear empties the view and esc or ctrl+c quits.

The screen belongs to the chat, so logs are written to --log-file or
dropped. When a store path is configured the conversation is saved on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		log := slog.New(slog.DiscardHandler)
		if chatLogFile != "" {
			f, err := os.OpenFile(chatLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()
			log = slog.New(slog.NewTextHandler(f, nil)).With("process", "medimate")
		}

		a, err := startApp(ctx, log)
		if err != nil {
			return err
		}
		defer a.Close()

		profile := chatProfile
		if profile == "" {
			profile = a.Config().Assistant.Profile
		}
		p, err := agent.LookupProfile(profile)
		if err != nil {
			return err
		}
		asst, err := a.Assistant(profile)
		if err != nil {
			return err
		}

		transcript := chat.NewTranscript(uuid.NewString())
		ask := func(ctx context.Context, prompt string) string {
			raw, _ := a.Ask(ctx, asst, prompt)
			return raw
		}
		if err := tui.Run(ctx, tui.NewModel(ctx, p.Title, ask, transcript)); err != nil {
			return err
		}
		return saveTranscript(a.Config().Store.Path, transcript, log)
	},
}

func saveTranscript(path string, t *chat.Transcript, log *slog.Logger) error {
	if path == "" || t.Len() == 0 {
		return nil
	}
	store, err := chat.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, m := range t.Messages() {
		if err := store.Append(t.ID(), m); err != nil {
			return fmt.Errorf("saving conversation: %w", err)
		}
	}
	log.Info("conversation saved", "conversation", t.ID(), "messages", t.Len(), "store", path)
	return nil
}

func init() {
	chatCmd.Flags().StringVarP(&chatProfile, "profile", "p", "", "instruction profile (otc or ayurvedic; default from config)")
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "append logs to this file")
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/sanitizer"
)

var (
	askProfile string
	askPlain   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <symptoms...>",
	Short: "Answer one symptom description and exit",
	Example: `  medimate ask "I have a headache and a runny nose"
  medimate ask --plain --profile ayurvedic sore throat`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := newLogger()

		a, err := startApp(ctx, log)
		if err != nil {
			return err
		}
		defer a.Close()

		asst, err := a.Assistant(askProfile)
		if err != nil {
			return err
		}

		prompt := strings.Join(args, " ")
		raw, out := a.Ask(ctx, asst, prompt)
		if askPlain {
			raw = sanitizer.Clean(raw)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(raw, "\n"))
		if !out.OK() {
			return fmt.Errorf("ask: %w", out.Err)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askProfile, "profile", "p", "", "instruction profile (otc or ayurvedic; default from config)")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "strip colours and panel borders from the output")
}

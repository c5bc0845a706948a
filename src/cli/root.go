// Package cli implements the medimate command line.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/Easy-Infra-Ltd/easy-logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/app"
	"github.com/Easy-Infra-Ltd/easy-medimate/src/config"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "medimate",
	Short: "medimate: symptom-driven medicine recommendations",
	Long: `medimate answers symptom descriptions with bullet-point medicine
recommendations from a hosted chat model that can look things up on
Wikipedia and DuckDuckGo.

It runs as a web chat, a terminal chat, a one-shot command, an accuracy
harness over a keyword suite, or an MCP server. The model API key is read
from the environment (GROQ_API_KEY by default) or a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	},
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ./medimate.json, then ~/.medimate/config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newLogger() *slog.Logger {
	return logger.CreateLoggerFromEnv(nil, "blue").With("process", "medimate")
}

// startApp loads config and connects the assistant's toolboxes.
func startApp(ctx context.Context, log *slog.Logger) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, log)
}

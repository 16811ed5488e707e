package cli

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quiz-client/internal/api"
	"quiz-client/internal/config"
)

var (
	apiURL     string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()

	envConfig := os.Getenv("QUIZ_CONFIG")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "quiz-client",
		Short: "Terminal client for the timed-quiz service",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides config)")

	cmd.AddCommand(newTestsCmd())
	cmd.AddCommand(newTakeCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newResultsCmd())
	return cmd
}

// buildClient assembles the credential store, gateway and typed client from
// config, flags and environment.
func buildClient() (*api.Client, config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cfg, zerolog.Nop(), err
	}
	if apiURL != "" {
		cfg.API.URL = apiURL
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	tokenFile := cfg.TokenFile
	if tokenFile == "" {
		tokenFile = config.DefaultTokenFile()
	}
	creds := api.NewCredentialStore(tokenFile)
	gateway := api.NewGateway(cfg.API.URL, creds, config.Duration(cfg.API.Timeout, 20*time.Second), logger)
	return api.NewClient(gateway), cfg, logger, nil
}

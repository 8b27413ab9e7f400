package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"textbook-rag/internal/config"
	"textbook-rag/internal/helper"
)

const configFilePath = "./configs/config.yaml"

var (
	configPath string
	verbose    bool
	cfg        *config.Config
	runID      string
)

var rootCmd = &cobra.Command{
	Use:           "textbook-rag",
	Short:         "Turn scanned school textbooks into a question answering knowledge base",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if runID, err = helper.GenerateUUID(); err != nil {
			return err
		}
		setupLogger(os.Stderr)
		log.Debug().Str("config", configPath).Interface("data", cfg.Data).Msg("Loaded config")

		return cfg.EnsureDirs()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", configFilePath, "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// setupLogger points the global logger at out, tagged with the run id.
func setupLogger(out io.Writer) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Caller().
		Str("run_id", runID).
		Logger()
}

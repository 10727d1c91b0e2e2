// Package cmd is the travelblog command line: the web server plus the
// maintenance commands that share its configuration.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"travelblog/common"
	"travelblog/config"
	"travelblog/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "travelblog",
	Short: "A small travel blog with comments and accounts",
	Long: `travelblog serves the blog when run without a subcommand.

Settings come from the environment, an optional .env file and an optional
config.yml (see --config).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml in the working directory, if present)")
}

// loadConfig reads the configuration and installs the matching logger as the
// slog default.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openDatabase() (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := common.ConnectDb(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

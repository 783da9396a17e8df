package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"plansbot/internal/app"
	"plansbot/internal/config"
	"plansbot/internal/logging"
)

func main() {
	// Secrets come from the environment; a local .env is a convenience, not
	// a requirement.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		opts       app.Options
		configPath string
	)

	cmd := &cobra.Command{
		Use:           "plansbot",
		Short:         "Announces newly published project documents to a social channel and an RSS feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load(configPath)
			logger := logging.New(cfg.Logging.Level)

			application, err := app.New(ctx, cfg, opts, logger)
			if err != nil {
				logger.Error("startup failed", "error", err)
				return err
			}

			if err := application.Run(ctx); err != nil {
				logger.Error("run stopped", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "format and log without posting or persisting")
	cmd.Flags().BoolVar(&opts.NoPublish, "no-publish", false, "update the announced set without posting")
	cmd.Flags().StringVar(&opts.LocalCache, "local-cache", "", "path to a local cache file; switches state off the object store")
	cmd.Flags().BoolVar(&opts.Schedule, "schedule", false, "keep running on the configured cron expression")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")

	return cmd
}

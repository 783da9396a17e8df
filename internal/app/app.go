package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"plansbot/internal/config"
	"plansbot/internal/feed"
	"plansbot/internal/infrastructure/channel"
	"plansbot/internal/infrastructure/media"
	"plansbot/internal/infrastructure/parser"
	"plansbot/internal/infrastructure/scheduler"
	"plansbot/internal/infrastructure/storage"
	"plansbot/internal/infrastructure/telemetry"
	"plansbot/internal/logging"
	"plansbot/internal/ports"
	"plansbot/internal/publish"
	"plansbot/internal/usecase"
)

// Options carries the CLI-selected run behavior.
type Options struct {
	// DryRun formats and logs without posting or persisting anything.
	DryRun bool
	// NoPublish updates the announced set without posting.
	NoPublish bool
	// LocalCache switches state to the local-file backend rooted at this
	// cache path.
	LocalCache string
	// Schedule keeps the process alive running on the configured cron
	// expression instead of one run.
	Schedule bool
}

// Application wires config to the run pipeline and lifecycle orchestration.
type Application struct {
	opts      Options
	mode      publish.Mode
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	telemetry ports.Telemetry
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, opts Options, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var reporter ports.Telemetry = telemetry.Nop{}
	if cfg.Sentry.DSN != "" {
		s, err := telemetry.NewSentry(cfg.Sentry.DSN)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		reporter = s
	}

	var store ports.StateStore
	if opts.LocalCache != "" {
		store = storage.NewFileStore(opts.LocalCache)
	} else {
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("state store: %w", err)
		}
		store = s3Store
	}

	active := channel.Select(cfg.Channels)
	baseLogger.Info("channel selected", "channel", active.Name())

	publisher := publish.New(
		active,
		media.NewConverter(nil),
		reporter,
		baseLogger.With("component", "publisher"),
	)

	builder := feed.NewBuilder(cfg.Listing.URL, cfg.Feed.Title, cfg.Feed.Description, cfg.Feed.Location())

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      parser.NewListingSource(nil, cfg.Listing.URL, baseLogger.With("component", "listing")),
		Store:       store,
		Publisher:   publisher,
		Feed:        builder,
		Telemetry:   reporter,
		MaxNewItems: cfg.Detector.MaxNewItems,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	mode := publish.Live
	switch {
	case opts.DryRun:
		mode = publish.DryRun
	case opts.NoPublish:
		mode = publish.RecordOnly
	}

	application := &Application{
		opts:      opts,
		mode:      mode,
		pipeline:  pipeline,
		telemetry: reporter,
	}

	if opts.Schedule {
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		application.scheduler = usecase.NewScheduler(driver, pipeline, mode, baseLogger.With("component", "scheduler"))
	}

	return application, nil
}

// Run performs a single pipeline execution, or loops on the configured
// schedule until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.telemetry.Flush(2 * time.Second)

	if a.scheduler == nil {
		return a.pipeline.Run(ctx, a.mode)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

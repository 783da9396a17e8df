package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"plansbot/internal/detect"
	"plansbot/internal/domain"
	"plansbot/internal/feed"
	"plansbot/internal/ports"
	"plansbot/internal/publish"
)

// PipelineDeps wires all driven adapters into the run orchestration.
type PipelineDeps struct {
	Source      ports.ItemSource
	Store       ports.StateStore
	Publisher   *publish.Publisher
	Feed        *feed.Builder
	Telemetry   ports.Telemetry
	MaxNewItems int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Pipeline runs one complete detection-and-publication pass over the
// persisted state: Fetch -> Detect -> Publish -> Record -> Persist.
type Pipeline struct {
	source      ports.ItemSource
	store       ports.StateStore
	publisher   *publish.Publisher
	feed        *feed.Builder
	telemetry   ports.Telemetry
	maxNewItems int
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:      deps.Source,
		store:       deps.Store,
		publisher:   deps.Publisher,
		feed:        deps.Feed,
		telemetry:   deps.Telemetry,
		maxNewItems: deps.MaxNewItems,
		logger:      logger,
		now:         now,
	}
}

// Run executes one pass. Fatal conditions (state read failure, fetch
// failure, anomaly guard) return an error before anything durable is
// written. Per-item publish failures never abort the run: the successful
// subset is persisted and the failed items are re-offered next run.
func (p *Pipeline) Run(ctx context.Context, mode publish.Mode) error {
	announced, err := p.store.LoadAnnounced(ctx)
	if err != nil {
		return fmt.Errorf("load announced set: %w", err)
	}

	observed, err := p.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	delta, err := detect.Delta(announced, observed, p.maxNewItems)
	if err != nil {
		return err
	}

	if len(delta) == 0 {
		p.logger.Info("no new documents", "observed", len(observed), "announced", len(announced))
		return nil
	}
	p.logger.Info("new documents detected", "count", len(delta), "mode", mode.String())

	outcomes := p.publisher.Publish(ctx, delta, mode)

	if mode == publish.DryRun {
		return nil
	}

	succeeded := 0
	for locator, outcome := range outcomes {
		if outcome.Succeeded() {
			announced[locator] = outcome.Item.Text
			succeeded++
		}
	}

	if err := p.store.SaveAnnounced(ctx, announced); err != nil {
		return fmt.Errorf("save announced set: %w", err)
	}

	if succeeded == 0 {
		p.logger.Warn("no items published", "attempted", len(delta))
		return nil
	}

	p.persistFeed(ctx, delta, outcomes)
	p.logger.Info("run complete", "published", succeeded, "failed", len(delta)-succeeded)
	return nil
}

// persistFeed updates the feed history and rendered document. The
// announcements are already committed at this point, so feed trouble is
// reported rather than failing the run; the next successful publication
// rebuilds the document anyway.
func (p *Pipeline) persistFeed(ctx context.Context, delta []domain.Item, outcomes map[string]domain.Outcome) {
	history, err := p.store.LoadFeedHistory(ctx)
	if err != nil {
		err = fmt.Errorf("load feed history: %w", err)
		p.logger.Error("feed history unreadable, starting fresh", "error", err)
		p.report(ctx, err)
		history = nil
	}

	history = p.feed.Record(history, delta, outcomes, p.now())

	if err := p.store.SaveFeedHistory(ctx, history); err != nil {
		err = fmt.Errorf("save feed history: %w", err)
		p.logger.Error("feed history not saved", "error", err)
		p.report(ctx, err)
		return
	}

	document, err := p.feed.Render(history)
	if err != nil {
		p.logger.Error("feed render failed", "error", err)
		p.report(ctx, err)
		return
	}

	if err := p.store.PublishFeed(ctx, document); err != nil {
		err = fmt.Errorf("publish feed: %w", err)
		p.logger.Error("feed document not published", "error", err)
		p.report(ctx, err)
	}
}

func (p *Pipeline) report(ctx context.Context, err error) {
	if p.telemetry != nil {
		p.telemetry.Report(ctx, err)
	}
}

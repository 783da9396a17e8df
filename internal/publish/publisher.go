package publish

import (
	"context"
	"fmt"
	"log/slog"

	"plansbot/internal/domain"
	"plansbot/internal/ports"
)

// Mode selects how much of the publish pipeline actually runs.
type Mode int

const (
	// Live formats, fetches media, and posts to the channel.
	Live Mode = iota
	// DryRun formats and logs; nothing is posted and the caller must not
	// persist anything.
	DryRun
	// RecordOnly skips the channel call but counts every item as succeeded,
	// catching the announced set up without announcing.
	RecordOnly
)

func (m Mode) String() string {
	switch m {
	case DryRun:
		return "dry-run"
	case RecordOnly:
		return "record-only"
	default:
		return "live"
	}
}

// Publisher attempts to announce each new item on the active channel,
// isolating failures per item.
type Publisher struct {
	channel   ports.Channel
	media     ports.MediaConverter
	telemetry ports.Telemetry
	logger    *slog.Logger
}

// New wires the active channel binding with its collaborators.
func New(channel ports.Channel, media ports.MediaConverter, telemetry ports.Telemetry, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{channel: channel, media: media, telemetry: telemetry, logger: logger}
}

// Publish attempts each item in order and returns the authoritative record
// of which items may be marked announced. One item's failure is reported to
// telemetry and does not abort the batch, roll back prior successes, or
// prevent later items from being attempted: a failed item stays out of the
// announced set and is re-offered as new on the next run.
func (p *Publisher) Publish(ctx context.Context, items []domain.Item, mode Mode) map[string]domain.Outcome {
	outcomes := make(map[string]domain.Outcome, len(items))

	budget, reserve := p.channel.Budget()
	maxLen := budget - reserve - 1

	for _, item := range items {
		text := Label(item.Text, maxLen)

		if mode != Live {
			p.logger.Info("would publish", "mode", mode.String(), "channel", p.channel.Name(), "text", text, "href", item.Locator)
			outcomes[item.Locator] = domain.Outcome{Item: item}
			continue
		}

		if err := p.post(ctx, text, item.Locator); err != nil {
			err = fmt.Errorf("publish %s: %w", item.Locator, err)
			p.logger.Error("publish failed", "channel", p.channel.Name(), "href", item.Locator, "error", err)
			if p.telemetry != nil {
				p.telemetry.Report(ctx, err)
			}
			outcomes[item.Locator] = domain.Outcome{Item: item, Err: err}
			continue
		}

		p.logger.Info("published", "channel", p.channel.Name(), "text", text, "href", item.Locator)
		outcomes[item.Locator] = domain.Outcome{Item: item}
	}

	return outcomes
}

func (p *Publisher) post(ctx context.Context, text, link string) error {
	var media *ports.Media
	if p.channel.AcceptsMedia() && p.media != nil {
		m, err := p.media.Render(ctx, link)
		if err != nil {
			return fmt.Errorf("render media: %w", err)
		}
		media = m
	}

	if err := p.channel.Post(ctx, text, link, media); err != nil {
		return fmt.Errorf("post to %s: %w", p.channel.Name(), err)
	}
	return nil
}

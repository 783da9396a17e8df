package channel

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mattn/go-mastodon"

	"plansbot/internal/config"
	"plansbot/internal/ports"
)

// Mastodon instances count every link as 23 characters against a 500
// character status budget.
const (
	mastodonBudget      = 500
	mastodonLinkReserve = 23
)

// Mastodon posts statuses with an attached preview image.
type Mastodon struct {
	client *mastodon.Client
}

var _ ports.Channel = (*Mastodon)(nil)

// NewMastodon wires an instance URL and access token.
func NewMastodon(cfg config.MastodonConfig) *Mastodon {
	return &Mastodon{
		client: mastodon.NewClient(&mastodon.Config{
			Server:      cfg.ServerURL,
			AccessToken: cfg.AccessToken,
		}),
	}
}

func (m *Mastodon) Name() string       { return "mastodon" }
func (m *Mastodon) Budget() (int, int) { return mastodonBudget, mastodonLinkReserve }
func (m *Mastodon) AcceptsMedia() bool { return true }

// Post uploads the media, then publishes "<text> <link>" referencing it.
func (m *Mastodon) Post(ctx context.Context, text, link string, media *ports.Media) error {
	var mediaIDs []mastodon.ID
	if media != nil {
		attachment, err := m.client.UploadMediaFromMedia(ctx, &mastodon.Media{
			File:        bytes.NewReader(media.Data),
			Description: mediaAlt,
		})
		if err != nil {
			return fmt.Errorf("mastodon media upload: %w", err)
		}
		mediaIDs = append(mediaIDs, attachment.ID)
	}

	_, err := m.client.PostStatus(ctx, &mastodon.Toot{
		Status:   text + " " + link,
		MediaIDs: mediaIDs,
	})
	if err != nil {
		return fmt.Errorf("mastodon status post: %w", err)
	}
	return nil
}

// Package channel provides the concrete outward announcement bindings.
// Exactly one binding is active per deployment, selected by which
// credentials are configured.
package channel

import (
	"plansbot/internal/config"
	"plansbot/internal/ports"
)

// mediaAlt is the fixed description attached to uploaded images. Posting is
// unattended, so no better description is available.
const mediaAlt = "Screenshot of first page of the document. Auto posted so can't describe, sorry."

// Select picks the active channel binding in a fixed precedence order:
// Twitter credentials, then a Bluesky identity, then Mastodon.
func Select(cfg config.ChannelsConfig) ports.Channel {
	if cfg.Twitter.ConsumerKey != "" {
		return NewTwitter(cfg.Twitter)
	}
	if cfg.Bluesky.Handle != "" {
		return NewBluesky(cfg.Bluesky)
	}
	return NewMastodon(cfg.Mastodon)
}

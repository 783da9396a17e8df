package ports

import (
	"context"
	"time"

	"plansbot/internal/domain"
)

// ItemSource pulls the currently listed documents from the listing page.
type ItemSource interface {
	Fetch(ctx context.Context) ([]domain.Item, error)
}

// StateStore persists the announced set, the feed history, and the rendered
// feed document. Backends load whole objects and overwrite them whole; a
// missing object on load yields an empty value, not an error. The caller
// computes the updated value and saves it complete.
type StateStore interface {
	LoadAnnounced(ctx context.Context) (domain.AnnouncedSet, error)
	SaveAnnounced(ctx context.Context, set domain.AnnouncedSet) error
	LoadFeedHistory(ctx context.Context) (domain.FeedHistory, error)
	SaveFeedHistory(ctx context.Context, history domain.FeedHistory) error
	PublishFeed(ctx context.Context, document []byte) error
}

// Media is a rendered preview image attached to a post.
type Media struct {
	Data     []byte
	MimeType string
}

// Channel is one outward announcement destination. Exactly one concrete
// binding is active per run.
type Channel interface {
	Name() string
	// Budget returns the channel's character budget and the width reserved
	// for a posted link plus its separator.
	Budget() (textLimit, linkReserve int)
	AcceptsMedia() bool
	Post(ctx context.Context, text, link string, media *Media) error
}

// MediaConverter renders a document's first page as an attachable image.
type MediaConverter interface {
	Render(ctx context.Context, documentURL string) (*Media, error)
}

// Telemetry forwards non-fatal errors to an external collector,
// fire-and-forget.
type Telemetry interface {
	Report(ctx context.Context, err error)
	Flush(timeout time.Duration)
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

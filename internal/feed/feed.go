package feed

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"plansbot/internal/domain"
	"plansbot/internal/publish"
)

// renderLimit caps the rendered feed; the stored history is never pruned.
const renderLimit = 10

// Builder maintains the published-document history and renders it as RSS.
type Builder struct {
	listingURL  string
	title       string
	description string
	location    *time.Location
}

// NewBuilder fixes the feed identity (the listing-source URL), its
// title/description, and the reference timezone used for entry timestamps.
func NewBuilder(listingURL, title, description string, location *time.Location) *Builder {
	if location == nil {
		location = time.UTC
	}
	return &Builder{
		listingURL:  listingURL,
		title:       title,
		description: description,
		location:    location,
	}
}

// Record appends one entry per succeeded outcome, in delta order, to the tail
// of the history. Existing entries are never reordered or removed.
func (b *Builder) Record(history domain.FeedHistory, delta []domain.Item, outcomes map[string]domain.Outcome, now time.Time) domain.FeedHistory {
	for _, item := range delta {
		outcome, ok := outcomes[item.Locator]
		if !ok || !outcome.Succeeded() {
			continue
		}
		history = append(history, domain.FeedEntry{
			Locator: item.Locator,
			Text:    item.Text,
			Unix:    now.Unix(),
		})
	}
	return history
}

// Render emits the RSS document for the most recent entries, newest first.
// Storage order is already chronological, so recency is positional.
func (b *Builder) Render(history domain.FeedHistory) ([]byte, error) {
	start := len(history) - renderLimit
	if start < 0 {
		start = 0
	}
	recent := history[start:]

	doc := &feeds.Feed{
		Title:       b.title,
		Link:        &feeds.Link{Href: b.listingURL},
		Description: b.description,
	}

	for i := len(recent) - 1; i >= 0; i-- {
		entry := recent[i]
		published := time.Unix(entry.Unix, 0).In(b.location)
		doc.Items = append(doc.Items, &feeds.Item{
			Id:      entry.Locator,
			Title:   publish.StripTag(entry.Text),
			Link:    &feeds.Link{Href: entry.Locator},
			Created: published,
		})
	}

	if len(doc.Items) > 0 {
		doc.Created = doc.Items[0].Created
	}

	rss, err := doc.ToRss()
	if err != nil {
		return nil, fmt.Errorf("render feed: %w", err)
	}
	return []byte(rss), nil
}

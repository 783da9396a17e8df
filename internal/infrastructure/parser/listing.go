package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"plansbot/internal/domain"
	"plansbot/internal/ports"
)

// contentRegion scopes link extraction to the listing's document table,
// skipping navigation and footer anchors.
const contentRegion = ".view-content"

// ListingSource fetches the projects listing page and extracts document
// links from its content region.
type ListingSource struct {
	client     *http.Client
	listingURL string
	logger     *slog.Logger
}

var _ ports.ItemSource = (*ListingSource)(nil)

// NewListingSource wires an HTTP client; a nil client gets a 30s timeout
// default.
func NewListingSource(client *http.Client, listingURL string, logger *slog.Logger) *ListingSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingSource{client: client, listingURL: listingURL, logger: logger}
}

// Fetch retrieves the listing page and returns its document items in page
// order. Relative hrefs are resolved against the listing URL.
func (s *ListingSource) Fetch(ctx context.Context) ([]domain.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "plansbot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	base, err := url.Parse(s.listingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing url %s: %w", s.listingURL, err)
	}

	var items []domain.Item
	doc.Find(contentRegion + " a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			s.logger.Debug("skip malformed href", "href", href, "error", err)
			return
		}

		resolved := base.ResolveReference(ref)
		if !strings.HasSuffix(strings.ToLower(resolved.Path), ".pdf") {
			return
		}

		items = append(items, domain.Item{
			Locator: resolved.String(),
			Text:    strings.TrimSpace(a.Text()),
		})
	})

	s.logger.Debug("listing fetched", "items", len(items))
	return items, nil
}

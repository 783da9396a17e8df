package feed

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"plansbot/internal/domain"
)

const listingURL = "https://example.org/projects.shtml"

func newTestBuilder() *Builder {
	return NewBuilder(listingURL, "Current Projects", "Newly published documents.", time.UTC)
}

func TestRecordAppendsSuccessesInDeltaOrder(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	delta := []domain.Item{
		{Locator: "https://example.org/a.pdf", Text: "A"},
		{Locator: "https://example.org/b.pdf", Text: "B"},
		{Locator: "https://example.org/c.pdf", Text: "C"},
	}
	outcomes := map[string]domain.Outcome{
		delta[0].Locator: {Item: delta[0]},
		delta[1].Locator: {Item: delta[1], Err: fmt.Errorf("failed")},
		delta[2].Locator: {Item: delta[2]},
	}

	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	history := b.Record(domain.FeedHistory{{Locator: "old", Text: "Old", Unix: 1}}, delta, outcomes, now)

	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].Locator != "old" {
		t.Fatalf("existing entries must stay at the head")
	}
	if history[1].Locator != delta[0].Locator || history[2].Locator != delta[2].Locator {
		t.Fatalf("unexpected append order: %+v", history)
	}
	if history[1].Unix != now.Unix() {
		t.Fatalf("expected recording timestamp, got %d", history[1].Unix)
	}
}

func TestRenderCapsAtTenNewestFirst(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()

	var history domain.FeedHistory
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		item := domain.Item{
			Locator: fmt.Sprintf("https://example.org/%d.pdf", i),
			Text:    fmt.Sprintf("Doc %d", i),
		}
		outcome := map[string]domain.Outcome{item.Locator: {Item: item}}
		history = b.Record(history, []domain.Item{item}, outcome, base.Add(time.Duration(i)*time.Minute))
	}

	rss, err := b.Render(history)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	out := string(rss)

	if got := strings.Count(out, "<item>"); got != 10 {
		t.Fatalf("expected exactly 10 items, got %d", got)
	}

	// Newest (24) renders first; 14 and below are cut.
	first := strings.Index(out, "Doc 24")
	last := strings.Index(out, "Doc 15")
	if first == -1 || last == -1 {
		t.Fatalf("expected docs 15..24 present")
	}
	if first > last {
		t.Fatalf("expected newest entry first")
	}
	if strings.Contains(out, "Doc 14<") {
		t.Fatalf("expected entries beyond the cap to be dropped")
	}

	for i := 15; i < 24; i++ {
		a := strings.Index(out, fmt.Sprintf("Doc %d<", i+1))
		z := strings.Index(out, fmt.Sprintf("Doc %d<", i))
		if a == -1 || z == -1 || a > z {
			t.Fatalf("expected Doc %d before Doc %d", i+1, i)
		}
	}
}

func TestRenderStripsTagSuffixAndKeepsIdentity(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	history := domain.FeedHistory{
		{Locator: "https://example.org/b.pdf", Text: "B (pdf)", Unix: 1740000000},
	}

	rss, err := b.Render(history)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	out := string(rss)

	if !strings.Contains(out, "<title>B</title>") {
		t.Fatalf("expected stripped title, got:\n%s", out)
	}
	if strings.Contains(out, "B (pdf)") {
		t.Fatalf("tag suffix leaked into the feed")
	}
	if !strings.Contains(out, "https://example.org/b.pdf") {
		t.Fatalf("expected entry link to be the locator")
	}
	if !strings.Contains(out, listingURL) {
		t.Fatalf("expected feed identity to be the listing URL")
	}
}

func TestRenderEmptyHistory(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	rss, err := b.Render(nil)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(string(rss), "<item>") {
		t.Fatalf("empty history must render no items")
	}
}

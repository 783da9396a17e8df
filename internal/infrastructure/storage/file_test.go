package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plansbot/internal/domain"
)

func TestFileStoreFirstRunIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
	ctx := context.Background()

	set, err := store.LoadAnnounced(ctx)
	if err != nil {
		t.Fatalf("LoadAnnounced on first run: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set)
	}

	history, err := store.LoadFeedHistory(ctx)
	if err != nil {
		t.Fatalf("LoadFeedHistory on first run: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
	ctx := context.Background()

	set := domain.AnnouncedSet{
		"https://example.org/a.pdf": "Plan A (pdf)",
		"https://example.org/b.pdf": "Plan B",
	}
	if err := store.SaveAnnounced(ctx, set); err != nil {
		t.Fatalf("SaveAnnounced: %v", err)
	}

	loaded, err := store.LoadAnnounced(ctx)
	if err != nil {
		t.Fatalf("LoadAnnounced: %v", err)
	}
	if len(loaded) != 2 || loaded["https://example.org/a.pdf"] != "Plan A (pdf)" {
		t.Fatalf("unexpected round trip: %v", loaded)
	}

	history := domain.FeedHistory{
		{Locator: "https://example.org/a.pdf", Text: "Plan A (pdf)", Unix: 1740000000},
	}
	if err := store.SaveFeedHistory(ctx, history); err != nil {
		t.Fatalf("SaveFeedHistory: %v", err)
	}
	gotHistory, err := store.LoadFeedHistory(ctx)
	if err != nil {
		t.Fatalf("LoadFeedHistory: %v", err)
	}
	if len(gotHistory) != 1 || gotHistory[0] != history[0] {
		t.Fatalf("unexpected history round trip: %v", gotHistory)
	}
}

func TestFileStoreDerivesSiblingPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "state", "..", "cache.json"))
	ctx := context.Background()

	if err := store.SaveFeedHistory(ctx, domain.FeedHistory{{Locator: "x", Text: "X", Unix: 1}}); err != nil {
		t.Fatalf("SaveFeedHistory: %v", err)
	}
	if err := store.PublishFeed(ctx, []byte("<rss/>")); err != nil {
		t.Fatalf("PublishFeed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "state", "..", "feed-cache.json")); err != nil {
		t.Fatalf("feed history not written next to the cache: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "state", "..", "feed.xml"))
	if err != nil {
		t.Fatalf("feed document not written next to the cache: %v", err)
	}
	if string(raw) != "<rss/>" {
		t.Fatalf("unexpected feed bytes: %q", raw)
	}
}

func TestFileStoreWireFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if err := store.SaveAnnounced(ctx, domain.AnnouncedSet{"https://example.org/a.pdf": "A"}); err != nil {
		t.Fatalf("SaveAnnounced: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}

	// The cache stays a flat locator->text object, compatible with state
	// written by earlier deployments.
	got := strings.TrimSpace(string(raw))
	if got != `{"https://example.org/a.pdf":"A"}` {
		t.Fatalf("unexpected wire format: %s", got)
	}
}

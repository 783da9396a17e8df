package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load("")

	if cfg.Detector.MaxNewItems != 15 {
		t.Fatalf("unexpected default ceiling: %d", cfg.Detector.MaxNewItems)
	}
	if cfg.Listing.URL == "" {
		t.Fatalf("expected a default listing URL")
	}
	if cfg.Feed.Location() == nil {
		t.Fatalf("expected feed timezone bound")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
storage:
  bucket: from-file
detector:
  maxNewItems: 1500
channels:
  mastodon:
    serverUrl: https://mastodon.example.org
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BUCKET_NAME", "from-env")
	t.Setenv("MASTODON_ACCESS_TOKEN", "token")

	cfg := Load(path)

	if cfg.Storage.Bucket != "from-env" {
		t.Fatalf("environment must win over the file, got %s", cfg.Storage.Bucket)
	}
	if cfg.Detector.MaxNewItems != 1500 {
		t.Fatalf("file ceiling not applied: %d", cfg.Detector.MaxNewItems)
	}
	if cfg.Channels.Mastodon.AccessToken != "token" {
		t.Fatalf("mastodon token override not applied")
	}
}

func TestLoadUnknownTimezoneFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("feed:\n  timezone: Nowhere/Invalid\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Load(path)
	if cfg.Feed.Location() == nil {
		t.Fatalf("expected a usable fallback location")
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"plansbot/internal/domain"
	"plansbot/internal/ports"
)

// FileStore keeps state as whole JSON documents under the cache file's
// directory. The feed history and rendered feed live as siblings of the
// cache path.
type FileStore struct {
	cachePath   string
	historyPath string
	feedPath    string
}

var _ ports.StateStore = (*FileStore)(nil)

// NewFileStore derives the feed paths from the cache path's directory.
func NewFileStore(cachePath string) *FileStore {
	dir := filepath.Dir(cachePath)
	return &FileStore{
		cachePath:   cachePath,
		historyPath: filepath.Join(dir, "feed-cache.json"),
		feedPath:    filepath.Join(dir, "feed.xml"),
	}
}

// LoadAnnounced reads the announced set; a missing file is an empty set.
func (s *FileStore) LoadAnnounced(ctx context.Context) (domain.AnnouncedSet, error) {
	set := domain.AnnouncedSet{}
	if err := s.readJSON(s.cachePath, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// SaveAnnounced overwrites the announced set in full.
func (s *FileStore) SaveAnnounced(ctx context.Context, set domain.AnnouncedSet) error {
	return s.writeJSON(s.cachePath, set)
}

// LoadFeedHistory reads the feed history; a missing file is an empty history.
func (s *FileStore) LoadFeedHistory(ctx context.Context) (domain.FeedHistory, error) {
	var history domain.FeedHistory
	if err := s.readJSON(s.historyPath, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SaveFeedHistory overwrites the feed history in full.
func (s *FileStore) SaveFeedHistory(ctx context.Context, history domain.FeedHistory) error {
	return s.writeJSON(s.historyPath, history)
}

// PublishFeed writes the rendered feed document next to the cache.
func (s *FileStore) PublishFeed(ctx context.Context, document []byte) error {
	return writeFileAtomic(s.feedPath, document)
}

func (s *FileStore) readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) writeJSON(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFileAtomic(path, raw)
}

// writeFileAtomic overwrites path via a temp file and rename so a concurrent
// reader never observes a partial object.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".plansbot-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

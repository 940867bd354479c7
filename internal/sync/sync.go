// Package sync pulls journal exports from registered sources and merges
// them into local storage. Sync only ever adds or updates: a payload that no
// longer mentions a card or post says nothing about whether it should exist,
// so nothing is deleted here.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/deck"
	"github.com/yonase/langcard/internal/gitsource"
	"github.com/yonase/langcard/internal/storage"
	"github.com/yonase/langcard/internal/transfer"
)

// Syncer reconciles all registered sources against the local database.
type Syncer struct {
	db       *storage.DB
	store    *deck.Store
	clock    clock.Clock
	log      *slog.Logger
	reposDir string
}

// New creates a Syncer. reposDir holds the local checkouts of git sources.
func New(db *storage.DB, store *deck.Store, c clock.Clock, log *slog.Logger, reposDir string) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{db: db, store: store, clock: c, log: log, reposDir: reposDir}
}

// Result summarizes one sync run.
type Result struct {
	Sources     int
	FilesMerged int
	CardsMerged int
	PostsMerged int
	Errors      int
}

// RunAll iterates over every registered source and reconciles it. Per-source
// and per-file failures are logged and counted, never fatal: one broken
// export must not block the rest of the journal.
func (s *Syncer) RunAll() (Result, error) {
	var res Result

	sources, err := s.db.AllSources()
	if err != nil {
		return res, fmt.Errorf("listing sources: %w", err)
	}
	if len(sources) == 0 {
		s.log.Info("no sources configured")
		return res, nil
	}
	res.Sources = len(sources)

	if err := os.MkdirAll(s.reposDir, 0o755); err != nil {
		return res, fmt.Errorf("creating repos directory %s: %w", s.reposDir, err)
	}

	for _, source := range sources {
		s.log.Info("syncing source", "id", source.ID, "path", source.Path)
		if err := s.syncSource(source, &res); err != nil {
			s.log.Error("source sync failed", "id", source.ID, "path", source.Path, "error", err)
			res.Errors++
			continue
		}
		if err := s.db.TouchSource(source.ID, s.clock.Now()); err != nil {
			s.log.Warn("failed to record scan time", "id", source.ID, "error", err)
		}
	}

	s.log.Info("sync complete",
		"sources", res.Sources,
		"files", res.FilesMerged,
		"cards", res.CardsMerged,
		"posts", res.PostsMerged,
		"errors", res.Errors,
	)
	return res, nil
}

func (s *Syncer) syncSource(source storage.Source, res *Result) error {
	scanPath := source.Path
	if gitsource.IsGitURL(source.Path) {
		localPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			return err
		}
		if err := gitsource.Sync(source.Path, localPath, s.log); err != nil {
			return err
		}
		scanPath = localPath
	}
	return s.scanDir(scanPath, res)
}

// scanDir walks a directory for journal export files and merges each one.
func (s *Syncer) scanDir(root string, res *Result) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}

		if err := s.mergeFile(path, res); err != nil {
			s.log.Error("failed to merge export", "file", path, "error", err)
			res.Errors++
		}
		return nil
	})
}

func (s *Syncer) mergeFile(path string, res *Result) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	payload, err := transfer.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	cards, posts, err := s.MergePayload(payload)
	if err != nil {
		return err
	}
	res.FilesMerged++
	res.CardsMerged += cards
	res.PostsMerged += posts
	s.log.Info("merged export", "file", path, "cards", cards, "posts", posts)
	return nil
}

// MergePayload applies a parsed payload to storage with last-write-wins
// semantics and returns how many cards and posts changed. Import shares this
// path with sync.
func (s *Syncer) MergePayload(payload *transfer.Payload) (cards, posts int, err error) {
	existingPosts, err := s.db.AllPosts()
	if err != nil {
		return 0, 0, fmt.Errorf("loading posts: %w", err)
	}
	// MergePosts preserves existing order, so slot i still holds the same
	// post id; an untouched timestamp means the row needs no write.
	merged := transfer.MergePosts(existingPosts, payload.Posts)
	for i, p := range merged {
		if i < len(existingPosts) && p.UpdatedAt.Equal(existingPosts[i].UpdatedAt) {
			continue
		}
		if err := s.db.SavePost(p); err != nil {
			return cards, posts, fmt.Errorf("saving post %d: %w", p.ID, err)
		}
		posts++
	}

	mergedCards := transfer.MergeCards(s.store.All(), payload.VocabularyCards)
	for _, c := range mergedCards {
		current, getErr := s.store.Get(c.ID)
		if getErr == nil && current.UpdatedAt.Equal(c.UpdatedAt) && current.CreatedAt.Equal(c.CreatedAt) {
			continue // unchanged
		}
		if err := s.store.Replace(c); err != nil {
			return cards, posts, fmt.Errorf("replacing card %d: %w", c.ID, err)
		}
		cards++
	}
	return cards, posts, nil
}

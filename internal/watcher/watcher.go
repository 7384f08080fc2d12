package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"semsearch/internal/domain"
	"semsearch/internal/service"
)

// Ingestor is the watcher-facing subset of the ingestion service.
type Ingestor interface {
	Submit(ctx context.Context, input service.DocumentInput) (<-chan domain.IngestReport, error)
}

// Watcher keeps the index in sync with a folder of textual notes: an
// initial sync walk ingests everything present, then filesystem events
// re-ingest changed files and retire chunks of removed ones. Ingestion is
// idempotent per source, so repeated events for the same file are
// harmless. PDF extraction happens upstream; the watcher only consumes
// already-textual files.
type Watcher struct {
	log    *zap.Logger
	root   string
	ingest Ingestor
	index  domain.VectorIndex
}

func New(root string, ingest Ingestor, index domain.VectorIndex, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{log: log, root: root, ingest: ingest, index: index}
}

// Sync walks the root and ingests every supported file.
func (w *Watcher) Sync(ctx context.Context) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if typeFor(path) == "" {
			w.log.Debug("skipping unsupported file", zap.String("path", path))
			return nil
		}
		w.ingestFile(ctx, path)
		return nil
	})
}

// Watch blocks on filesystem events until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// dirWatcher is the subset of fsnotify used when event handling has to
// extend the watch set.
type dirWatcher interface {
	Add(name string) error
}

func (w *Watcher) handleEvent(ctx context.Context, fw dirWatcher, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.addTree(ctx, fw, ev.Name)
			return
		}
	}
	if typeFor(ev.Name) == "" {
		return
	}
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.ingestFile(ctx, ev.Name)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		removed, err := w.index.RemoveDocument(ctx, service.DocumentID(ev.Name))
		if err != nil {
			w.log.Warn("failed to retire removed file", zap.String("path", ev.Name), zap.Error(err))
			return
		}
		w.log.Info("file removed", zap.String("path", ev.Name), zap.Int("chunks", removed))
	}
}

// addTree starts watching a directory created after Watch began. Files
// already present inside it raced the watch registration, so the walk
// ingests them as well.
func (w *Watcher) addTree(ctx context.Context, fw dirWatcher, root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		if typeFor(path) != "" {
			w.ingestFile(ctx, path)
		}
		return nil
	})
	if err != nil {
		w.log.Warn("failed to watch new directory", zap.String("path", root), zap.Error(err))
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.log.Warn("stat failed", zap.String("path", path), zap.Error(err))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("read failed", zap.String("path", path), zap.Error(err))
		return
	}
	done, err := w.ingest.Submit(ctx, service.DocumentInput{
		RawText:   string(data),
		Type:      typeFor(path),
		Source:    path,
		CreatedAt: info.ModTime(),
	})
	if err != nil {
		w.log.Warn("submit failed", zap.String("path", path), zap.Error(err))
		return
	}
	select {
	case report := <-done:
		if report.Status == domain.StatusFailed {
			w.log.Warn("ingestion failed", zap.String("path", path), zap.Error(report.Err))
			return
		}
		w.log.Info("file ingested", zap.String("path", path), zap.Int("chunks", report.Chunks))
	case <-ctx.Done():
	}
}

func typeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return string(domain.TypeMarkdown)
	case ".txt":
		return string(domain.TypeNote)
	default:
		return ""
	}
}

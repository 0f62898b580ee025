// Package watch ingests PDF files dropped into a watched directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/folio-cli/internal/core/ports/driving"
	"github.com/custodia-labs/folio-cli/internal/logger"
)

// debounceDelay is how long a file must stay quiet before it is
// ingested. Copies into the watched directory arrive as a Create
// followed by a burst of Writes; ingesting on the first event would
// fingerprint a half-written file.
const debounceDelay = 2 * time.Second

// Watcher ingests PDFs created or modified under a directory.
type Watcher struct {
	dir     string
	ingest  driving.IngestService
	onEvent func(path string, err error)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. onEvent, if non-nil, is called after
// each attempted ingestion with the file path and the outcome.
func New(dir string, ingest driving.IngestService, onEvent func(path string, err error)) *Watcher {
	return &Watcher{
		dir:     dir,
		ingest:  ingest,
		onEvent: onEvent,
		pending: make(map[string]*time.Timer),
	}
}

// Run watches the directory until the context is cancelled. Files
// already present at start are not ingested; only new activity is.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path := w.handleFsEvent(event); path != "" {
				w.schedule(ctx, path)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleFsEvent filters one fsnotify event down to an ingestible PDF
// path, or "" when the event is irrelevant: non-PDF files, hidden
// files, directories, and deletions are all skipped.
func (w *Watcher) handleFsEvent(event fsnotify.Event) string {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return ""
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return ""
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return ""
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return ""
	}

	return event.Name
}

// schedule (re)arms the debounce timer for the path. Each further event
// pushes the ingestion back until the file has been quiet for
// debounceDelay.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(debounceDelay)
		return
	}

	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}

		_, err := w.ingest.Ingest(ctx, path)
		if err != nil {
			logger.Warn("Watch ingest %s: %v", path, err)
		} else {
			logger.Info("Watch ingested %s", path)
		}
		if w.onEvent != nil {
			w.onEvent(path, err)
		}
	})
}

package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DocsWatcher ingests text documents dropped into a directory. New and
// modified files are embedded and added to the store; ingestion is
// debounced so an editor's write bursts land once.
type DocsWatcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	logger   zerolog.Logger
	debounce time.Duration
	timers   map[string]*time.Timer
	stopCh   chan struct{}
}

// NewDocsWatcher creates a watcher over the given docs directory. The
// directory is created if missing and existing files are ingested up
// front.
func NewDocsWatcher(store *Store, dir string, logger zerolog.Logger) (*DocsWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dw := &DocsWatcher{
		watcher:  watcher,
		store:    store,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		timers:   make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}

	if err := dw.ingestExisting(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go dw.run()

	logger.Info().Str("dir", dir).Msg("Docs watcher started")
	return dw, nil
}

// Stop stops the watcher
func (dw *DocsWatcher) Stop() error {
	close(dw.stopCh)
	return dw.watcher.Close()
}

func (dw *DocsWatcher) ingestExisting(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !isTextDoc(entry.Name()) {
			continue
		}
		dw.ingest(filepath.Join(dir, entry.Name()))
	}
	return nil
}

func (dw *DocsWatcher) run() {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}

			if !isTextDoc(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				dw.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Doc change detected")

				dw.scheduleIngest(event.Name)
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Error().Err(err).Msg("Docs watcher error")

		case <-dw.stopCh:
			return
		}
	}
}

func (dw *DocsWatcher) scheduleIngest(path string) {
	if timer, ok := dw.timers[path]; ok {
		timer.Stop()
	}

	dw.timers[path] = time.AfterFunc(dw.debounce, func() {
		dw.ingest(path)
	})
}

func (dw *DocsWatcher) ingest(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		dw.logger.Error().Err(err).Str("file", path).Msg("Failed to read doc")
		return
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	docID, err := dw.store.AddDocument(ctx, text, map[string]interface{}{
		"source": filepath.Base(path),
	})
	if err != nil {
		dw.logger.Error().Err(err).Str("file", path).Msg("Failed to ingest doc")
		return
	}

	dw.logger.Info().
		Str("file", filepath.Base(path)).
		Str("document_id", docID).
		Msg("Doc ingested")
}

func isTextDoc(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt":
		return true
	}
	return false
}

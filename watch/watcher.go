// Package watch ingests documents dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"go-rag-server/docparse"
	"go-rag-server/logger"
	"go-rag-server/rag"
)

// Ingester stores parsed documents.
type Ingester interface {
	Ingest(docs []rag.Document) (int, error)
}

type pending struct {
	timer *time.Timer
}

// Watcher ingests every supported file in a directory, then each file that
// is created or written there. Bursts of events for one file are collapsed
// into one ingestion after a quiet period. Rewriting a file ingests it again.
type Watcher struct {
	dir      string
	debounce time.Duration
	ingester Ingester

	mu      sync.Mutex
	pending map[string]*pending
	closed  bool
	wg      sync.WaitGroup
}

func New(dir string, debounce time.Duration, ingester Ingester) *Watcher {
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		ingester: ingester,
		pending:  make(map[string]*pending),
	}
}

// Run blocks until ctx is cancelled. Pending ingestions are dropped on exit;
// ones already running are waited for.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("watching %s for documents", w.dir)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && docparse.Supported(e.Name()) {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}

	defer w.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) && docparse.Supported(ev.Name) {
				logger.Debug("watch event %s", ev)
				w.schedule(ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch %s: %v", w.dir, err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.debounce)
		return
	}
	p := &pending{}
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.debounce, func() { w.fire(path, p) })
	w.pending[path] = p
}

func (w *Watcher) fire(path string, p *pending) {
	defer w.wg.Done()
	w.mu.Lock()
	if w.pending[path] == p {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	doc, err := docparse.ParseFile(path)
	if err != nil {
		logger.Warn("watch: skip %s: %v", path, err)
		return
	}
	added, err := w.ingester.Ingest([]rag.Document{doc})
	if err != nil {
		logger.Warn("watch: ingest %s: %v", path, err)
		return
	}
	logger.Info("watch: ingested %s (%d chunks)", doc.Name, added)
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.closed = true
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

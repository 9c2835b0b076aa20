package rag

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/davitran/finsight/internal/log"
)

// Watcher marks the engine stale whenever a text file in the data directory
// changes on disk. It never rebuilds on its own; the user decides when to
// re-index.
type Watcher struct {
	engine  *Engine
	watcher *fsnotify.Watcher
	logger  log.Logger
	started atomic.Bool
	done    chan struct{}
}

// NewWatcher starts watching the engine's data directory. Close releases the
// underlying OS watch.
func NewWatcher(engine *Engine, logger log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(engine.opts.DataDir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		engine:  engine,
		watcher: fsw,
		logger:  logger,
		done:    make(chan struct{}),
	}
	return w, nil
}

// Run processes filesystem events until the context is cancelled or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	w.started.Store(true)
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Info("data directory changed, marking knowledge base stale",
				"file", filepath.Base(event.Name), "op", event.Op.String())
			w.engine.MarkStale()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close stops the watcher. When Run was started it waits for the loop to
// return; closing a never-run watcher must not block.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if w.started.Load() {
		<-w.done
	}
	return err
}

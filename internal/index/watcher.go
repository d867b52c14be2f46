// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// =============================================================================
// WATCHER
// =============================================================================

// Change reports one debounced index update.
type Change struct {
	Path    string // Relative to the workspace root
	Removed bool
	Err     error
}

// Watcher keeps an Index current by following filesystem events. Writes are
// debounced per file; removals and renames apply at once.
type Watcher struct {
	idx      *Index
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]time.Time

	changes   chan Change
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Watch starts a watcher over the index root. It stops when ctx is done or
// Close is called.
func (idx *Index) Watch(ctx context.Context) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		idx:      idx,
		watcher:  fsw,
		debounce: idx.opts.Debounce,
		log:      idx.log.With().Str("component", "watcher").Logger(),
		pending:  make(map[string]time.Time),
		changes:  make(chan Change, 64),
		cancel:   cancel,
	}

	if err := w.addRecursive(idx.root); err != nil {
		cancel()
		fsw.Close()
		return nil, err
	}

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.processPending(ctx)
	return w, nil
}

// Changes delivers applied updates. Updates are dropped when nobody reads.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Close stops watching, waits for the workers to exit and closes the
// Changes channel. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.closeErr = w.watcher.Close()
		w.wg.Wait()
		close(w.changes)
	})
	return w.closeErr
}

// addRecursive adds a directory and all its subdirectories to the watch list
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.idx.root && w.idx.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Debug().Err(err).Str("dir", path).Msg("cannot watch directory")
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if w.idx.shouldIgnore(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.log.Debug().Err(err).Str("dir", path).Msg("cannot watch new directory")
			}
			return
		}
		w.schedule(path)

	case event.Has(fsnotify.Write):
		w.schedule(path)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.idx.Supports(path) {
			return
		}
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		err := w.idx.RemoveFile(ctx, path)
		w.report(Change{Path: w.idx.rel(path), Removed: true, Err: err})
	}
}

func (w *Watcher) schedule(path string) {
	if !w.idx.Supports(path) {
		return
	}
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processPending applies files that have been quiet for the debounce period.
func (w *Watcher) processPending(ctx context.Context) {
	defer w.wg.Done()

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				err := w.idx.UpdateFile(ctx, path)
				if errors.Is(err, fs.ErrNotExist) {
					err = w.idx.RemoveFile(ctx, path)
					w.report(Change{Path: w.idx.rel(path), Removed: true, Err: err})
					continue
				}
				if err != nil {
					w.log.Debug().Err(err).Str("path", path).Msg("update failed")
				}
				w.report(Change{Path: w.idx.rel(path), Err: err})
			}
		}
	}
}

func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) report(c Change) {
	select {
	case w.changes <- c:
	default:
	}
}

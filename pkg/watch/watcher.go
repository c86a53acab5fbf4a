// Package watch keeps a codebase aggregate current while files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/uiusage/pkg/config"
	"github.com/gnana997/uiusage/pkg/scanner"
	"github.com/gnana997/uiusage/pkg/usage"
)

// DefaultDebounce groups the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// OnUpdate is called after the initial scan and after every change
	// that altered the aggregate. Calls never overlap.
	OnUpdate func(Update)
}

// Update describes the aggregate after a change.
type Update struct {
	Codebase  string
	Aggregate *usage.AggregateResult
	// Changed lists files re-analyzed or removed; empty for the initial scan.
	Changed []string
	Initial bool
}

// Watcher re-analyzes changed files of one codebase and refolds the
// aggregate from the retained per-file results.
//
//	w, err := watch.New(sc, codebase, watch.Options{OnUpdate: render}, logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	return w.Run(ctx)
type Watcher struct {
	watcher  *fsnotify.Watcher
	scanner  *scanner.Scanner
	codebase config.Codebase
	matcher  *scanner.Matcher
	options  Options
	logger   *slog.Logger

	mu        sync.Mutex
	results   map[string]*usage.FileAnalysisResult
	aggregate *usage.AggregateResult

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer
	pending        map[string]bool
	updateMu       sync.Mutex

	stopOnce sync.Once
	stopChan chan struct{}
}

// New creates a watcher. The scanner should be built with
// Options.KeepMapped so unchanged files stay mapped between updates.
func New(sc *scanner.Scanner, cb config.Codebase, opts Options, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	matcher, err := scanner.NewMatcher(cb.Include, cb.Exclude)
	if err != nil {
		return nil, fmt.Errorf("codebase %s: %w", cb.Name, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	root, err := filepath.Abs(cb.Root)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	cb.Root = root

	return &Watcher{
		watcher:        fw,
		scanner:        sc,
		codebase:       cb,
		matcher:        matcher,
		options:        opts,
		logger:         logger,
		results:        make(map[string]*usage.FileAnalysisResult),
		aggregate:      usage.NewAggregate(),
		debounceTimers: make(map[string]*time.Timer),
		pending:        make(map[string]bool),
		stopChan:       make(chan struct{}),
	}, nil
}

// Run registers watches, performs the initial scan and processes events
// until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addTree(w.codebase.Root, false); err != nil {
		return err
	}

	files, err := scanner.DiscoverFiles(w.codebase.Root, w.matcher)
	if err != nil {
		return fmt.Errorf("codebase %s: %w", w.codebase.Name, err)
	}
	stats := w.scanner.AnalyzeEach(ctx, files, func(path string, res *usage.FileAnalysisResult) {
		w.mu.Lock()
		w.results[path] = res
		w.mu.Unlock()
	})
	w.logger.Info("file watcher started",
		"codebase", w.codebase.Name,
		"root", w.codebase.Root,
		"files", stats.FilesAnalyzed,
		"failed", stats.FilesFailed)
	w.publish(nil, true)

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return nil
		case <-w.stopChan:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// Aggregate returns the latest aggregate. It must not be mutated.
func (w *Watcher) Aggregate() *usage.AggregateResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.aggregate
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)

		w.debounceMu.Lock()
		for _, timer := range w.debounceTimers {
			timer.Stop()
		}
		w.debounceTimers = make(map[string]*time.Timer)
		w.debounceMu.Unlock()

		err = w.watcher.Close()
		w.logger.Info("file watcher stopped", "codebase", w.codebase.Name)
	})
	return err
}

// addTree watches root and its non-excluded subdirectories. With
// scheduleFiles set, files already inside are queued for analysis: they
// may have been written before the watch was registered.
func (w *Watcher) addTree(root string, scheduleFiles bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			if rel, ok := w.rel(path); ok && scheduleFiles && w.matcher.Matches(rel) {
				w.schedule(path)
			}
			return nil
		}
		if rel, ok := w.rel(path); ok && rel != "." && w.matcher.Excluded(rel, true) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.codebase.Root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	rel, ok := w.rel(path)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.matcher.Excluded(rel, true) {
				if err := w.addTree(path, true); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}
	if !w.matcher.Matches(rel) {
		return
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	// Removals go through the same path: analysis then fails with
	// ErrNotExist and the file is dropped.
	w.logger.Debug("file event", "op", event.Op.String(), "file", path)
	w.schedule(path)
}

// schedule debounces per file; when the timer fires every pending file is
// processed in one batch so a multi-file save produces one update.
func (w *Watcher) schedule(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	w.pending[path] = true
	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.options.Debounce, func() {
		w.debounceMu.Lock()
		if w.debounceTimers[path] != timer {
			// Superseded by a later event for the same file.
			w.debounceMu.Unlock()
			return
		}
		delete(w.debounceTimers, path)
		if len(w.debounceTimers) > 0 || len(w.pending) == 0 {
			// A later timer will flush.
			w.debounceMu.Unlock()
			return
		}
		batch := make([]string, 0, len(w.pending))
		for p := range w.pending {
			batch = append(batch, p)
		}
		w.pending = make(map[string]bool)
		w.debounceMu.Unlock()

		sort.Strings(batch)
		w.refresh(batch)
	})
	w.debounceTimers[path] = timer
}

// refresh re-analyzes or drops each changed file and refolds the
// aggregate.
func (w *Watcher) refresh(paths []string) {
	select {
	case <-w.stopChan:
		return
	default:
	}

	w.mu.Lock()
	for _, path := range paths {
		w.scanner.Invalidate(path)
		res, err := w.scanner.AnalyzeFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			delete(w.results, path)
			w.logger.Debug("file removed", "file", path)
		case err != nil:
			delete(w.results, path)
			w.logger.Warn("skipping file", "file", path, "error", err)
		default:
			w.results[path] = res
			w.logger.Debug("file re-analyzed", "file", path)
		}
	}
	w.mu.Unlock()

	w.publish(paths, false)
}

func (w *Watcher) publish(changed []string, initial bool) {
	w.updateMu.Lock()
	defer w.updateMu.Unlock()

	w.mu.Lock()
	agg := usage.AggregateSeq(maps.Values(w.results))
	w.aggregate = agg
	w.mu.Unlock()

	if w.options.OnUpdate != nil {
		w.options.OnUpdate(Update{
			Codebase:  w.codebase.Name,
			Aggregate: agg,
			Changed:   changed,
			Initial:   initial,
		})
	}
}

// Stats reports watcher state.
type Stats struct {
	Files          int
	PendingChanges int
}

// GetStats returns watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.debounceMu.Lock()
	pending := len(w.pending)
	w.debounceMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Files: len(w.results), PendingChanges: pending}
}

// Package watch recompiles a class whenever the model files it was loaded
// from change.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/obmalloy/source"
)

const (
	// changeChannelBuffer is the size of the change batch channel.
	changeChannelBuffer = 16

	// DefaultDebounce is used when Config.Debounce is not positive.
	DefaultDebounce = 500 * time.Millisecond
)

// Config configures model file watching.
type Config struct {
	// Patterns are the doublestar globs selecting model files.
	Patterns []string

	// Debounce is how long to collect changes before reporting them.
	Debounce time.Duration

	// ExcludeDirs lists directory names to skip.
	ExcludeDirs []string
}

// Operation indicates the type of file operation.
type Operation string

// OpCreate, OpModify and OpDelete enumerate the file operations.
const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event is one model file change.
type Event struct {
	Path      string
	Operation Operation
}

// Change is one debounced batch of model file changes, sorted by path.
type Change struct {
	Events []Event
}

// Paths returns the changed paths.
func (c Change) Paths() []string {
	out := make([]string, len(c.Events))
	for i, e := range c.Events {
		out[i] = e.Path
	}
	return out
}

// RebuildFunc handles one change batch. Batches are handled one at a time.
type RebuildFunc func(ctx context.Context, change Change) error

// ModelWatcher watches the directories holding model files and reports
// content changes in debounced batches.
type ModelWatcher struct {
	config   Config
	roots    []string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	excludes map[string]bool

	// Debouncing: collect changes before reporting
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Hash-based change detection
	hashMu sync.RWMutex
	hashes map[string]string

	changes chan Change

	droppedChanges atomic.Int64
}

// NewModelWatcher creates a watcher for the files matched by
// config.Patterns.
func NewModelWatcher(config Config, logger *slog.Logger) (*ModelWatcher, error) {
	if len(config.Patterns) == 0 {
		return nil, errors.New("watch: no model patterns")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	roots, err := patternRoots(config.Patterns)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	excludes := map[string]bool{".git": true, "node_modules": true, "vendor": true}
	if len(config.ExcludeDirs) > 0 {
		excludes = make(map[string]bool)
		for _, dir := range config.ExcludeDirs {
			excludes[dir] = true
		}
	}

	return &ModelWatcher{
		config:   config,
		roots:    roots,
		watcher:  fsw,
		logger:   logger,
		excludes: excludes,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		changes:  make(chan Change, changeChannelBuffer),
	}, nil
}

// patternRoots returns the absolute static prefixes of the patterns,
// without nested duplicates.
func patternRoots(patterns []string) ([]string, error) {
	var roots []string
	for _, p := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		abs, err := filepath.Abs(filepath.FromSlash(base))
		if err != nil {
			return nil, err
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			abs = filepath.Dir(abs)
		}
		roots = append(roots, abs)
	}
	sort.Strings(roots)

	var out []string
	for _, r := range roots {
		if len(out) > 0 {
			last := out[len(out)-1]
			if r == last || strings.HasPrefix(r, last+string(filepath.Separator)) {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// Roots returns the watched root directories.
func (w *ModelWatcher) Roots() []string {
	return w.roots
}

// Changes returns the channel of change batches. It is closed when the
// watcher stops.
func (w *ModelWatcher) Changes() <-chan Change {
	return w.changes
}

// Start adds the watches and begins processing file events.
func (w *ModelWatcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addWatchesRecursive(root); err != nil {
			return err
		}
	}
	w.primeHashes()

	go w.processEvents(ctx)

	w.logger.Info("Model watcher started",
		"roots", w.roots,
		"debounce", w.config.Debounce)
	return nil
}

// Stop stops the watcher.
// The changes channel is closed by processEvents when it exits.
func (w *ModelWatcher) Stop() error {
	return w.watcher.Close()
}

// Run starts the watcher and calls rebuild for every change batch until
// ctx is done. A failing rebuild is logged and watching continues.
func (w *ModelWatcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-w.changes:
			if !ok {
				return ctx.Err()
			}
			if err := rebuild(ctx, change); err != nil {
				w.logger.Warn("Rebuild failed", "paths", change.Paths(), "error", err)
			}
		}
	}
}

// primeHashes records the current content of every matched file, so that
// rewriting a file without changing it is not reported.
func (w *ModelWatcher) primeHashes() {
	files, err := source.ResolveFiles(w.config.Patterns)
	if err != nil {
		return
	}
	for _, f := range files {
		if content, err := os.ReadFile(f); err == nil {
			w.setHash(f, contentHash(content))
		}
	}
}

// addWatchesRecursive adds watches to all directories.
func (w *ModelWatcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Only watch directories
		if !info.IsDir() {
			return nil
		}

		// Skip excluded and hidden directories
		base := filepath.Base(path)
		if path != root && (w.excludes[base] || strings.HasPrefix(base, ".")) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// processEvents handles fsnotify events with debouncing.
func (w *ModelWatcher) processEvents(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *ModelWatcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
	}

	if !source.MatchAny(w.config.Patterns, path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Model file change detected",
		"path", path,
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *ModelWatcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	}
}

// flushPending turns accumulated changes into one batch.
func (w *ModelWatcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var change Change
	for path := range toProcess {
		if ev, ok := w.classify(path); ok {
			change.Events = append(change.Events, ev)
		}
	}
	if len(change.Events) == 0 {
		return
	}
	sort.Slice(change.Events, func(i, j int) bool {
		return change.Events[i].Path < change.Events[j].Path
	})
	w.sendChange(change)
}

// classify compares the file with its recorded hash. Unchanged content is
// not reported.
func (w *ModelWatcher) classify(path string) (Event, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("Failed to read file for hash check",
				"path", path,
				"error", err)
			return Event{}, false
		}
		if _, had := w.hash(path); !had {
			return Event{}, false
		}
		w.hashMu.Lock()
		delete(w.hashes, path)
		w.hashMu.Unlock()
		return Event{Path: path, Operation: OpDelete}, true
	}

	newHash := contentHash(content)
	oldHash, hadHash := w.hash(path)
	if hadHash && oldHash == newHash {
		return Event{}, false
	}
	w.setHash(path, newHash)

	if !hadHash {
		return Event{Path: path, Operation: OpCreate}, true
	}
	return Event{Path: path, Operation: OpModify}, true
}

func (w *ModelWatcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *ModelWatcher) hash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	h, ok := w.hashes[path]
	return h, ok
}

// sendChange sends a batch to the output channel.
func (w *ModelWatcher) sendChange(change Change) {
	select {
	case w.changes <- change:
		w.logger.Debug("Sent model change", "files", len(change.Events))
	default:
		dropped := w.droppedChanges.Add(1)
		w.logger.Warn("Change channel full, dropping batch",
			"files", len(change.Events),
			"total_dropped", dropped)
	}
}

// DroppedChanges returns the number of batches dropped due to channel
// overflow.
func (w *ModelWatcher) DroppedChanges() int64 {
	return w.droppedChanges.Load()
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

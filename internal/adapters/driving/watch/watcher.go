// Package watch redeploys skills whose source files change on disk.
//
// The watcher observes the skills directory recursively. Events are grouped
// per skill and debounced; once a skill has been quiet for the debounce
// interval its outdated installs are refreshed. Providers that do not have
// the skill installed are never touched.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// DefaultDebounce is the quiet period before a changed skill is refreshed.
const DefaultDebounce = 500 * time.Millisecond

// RefreshFunc is called after a skill has been refreshed.
type RefreshFunc func(skillID string, results []domain.DeployResult, err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnRefresh registers a callback for refresh outcomes.
func WithOnRefresh(fn RefreshFunc) Option {
	return func(w *Watcher) {
		w.onRefresh = fn
	}
}

// Watcher refreshes outdated installs when skill sources change.
type Watcher struct {
	skills    driving.SkillService
	root      string
	debounce  time.Duration
	onRefresh RefreshFunc

	readyOnce sync.Once
	ready     chan struct{}
}

// New creates a watcher over root, the skills directory.
func New(skills driving.SkillService, root string, opts ...Option) *Watcher {
	w := &Watcher{
		skills:   skills,
		root:     filepath.Clean(root),
		debounce: DefaultDebounce,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once the initial directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("skills directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("skills directory %s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	w.readyOnce.Do(func() { close(w.ready) })
	logger.Info("watching %s", w.root)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handleFsEvent(fw, event, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]struct{})
		}
	}
}

// handleFsEvent records the skill an event belongs to. It reports whether
// the event should (re)start the debounce timer.
func (w *Watcher) handleFsEvent(fw *fsnotify.Watcher, event fsnotify.Event, pending map[string]struct{}) bool {
	if isHidden(w.root, event.Name) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	id := skillFor(w.root, event.Name)
	if id == "" {
		return false
	}
	logger.Debug("change in %s (%s)", id, event.Op)
	pending[id] = struct{}{}
	return true
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	for id := range pending {
		results, err := w.skills.RefreshOutdated(ctx, id)
		switch {
		case errors.Is(err, domain.ErrSkillNotFound):
			// Directory without a declaration (or one being created).
			logger.Debug("skip %s: %v", id, err)
			continue
		case err != nil:
			logger.Warn("refresh %s: %v", id, err)
		default:
			for _, r := range results {
				if r.Success {
					logger.Info("refreshed %s in %s", id, r.Provider)
				} else {
					logger.Error("refresh %s in %s: %s", id, r.Provider, r.Error)
				}
			}
		}
		if w.onRefresh != nil {
			w.onRefresh(id, results, err)
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// skillFor maps a path under root to the skill directory containing it.
func skillFor(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	id, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return id
}

func isHidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

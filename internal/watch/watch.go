// Package watch re-runs a callback when project files matching a set of
// glob patterns change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"github.com/yaklabco/fwhook/config"
	"github.com/yaklabco/fwhook/internal/log"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// ErrNoPatterns is returned by New when no pattern is given.
var ErrNoPatterns = errors.New("no watch patterns")

// ChangeFunc is called with the last changed path of a debounced burst.
type ChangeFunc func(ctx context.Context, changed string) error

// Watcher matches file events under Root against glob patterns.
type Watcher struct {
	root     string
	patterns []string
	globs    []glob.Glob
	debounce time.Duration
}

// New compiles patterns, which are relative to root and use '/' as the
// separator. A '*' does not cross directories; use '**' for that.
func New(root string, patterns []string, debounce time.Duration) (*Watcher, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	w := &Watcher{root: filepath.ToSlash(absRoot), debounce: debounce}
	for _, p := range lo.Uniq(patterns) {
		abs := path.Join(w.root, p)
		g, err := config.CompileWatchPattern(abs)
		if err != nil {
			return nil, fmt.Errorf("invalid watch pattern %q: %w", p, err)
		}
		w.patterns = append(w.patterns, abs)
		w.globs = append(w.globs, g)
	}
	return w, nil
}

// Match reports whether name, an absolute path, matches any pattern.
func (w *Watcher) Match(name string) bool {
	name = filepath.ToSlash(name)
	return lo.SomeBy(w.globs, func(g glob.Glob) bool { return g.Match(name) })
}

// Dirs returns the directories that must be watched: the non-wildcard
// prefix of every pattern.
func (w *Watcher) Dirs() []string {
	return lo.Uniq(lo.Map(w.patterns, func(p string, _ int) string {
		dir := p
		if idx := strings.IndexAny(p, "*?[]{}"); idx != -1 {
			dir = p[:idx]
		}
		if !strings.HasSuffix(dir, "/") {
			dir = path.Dir(dir)
		}
		return filepath.FromSlash(strings.TrimSuffix(dir, "/"))
	}))
}

// Run watches until ctx is done, calling onChange once per debounced burst
// of matching events. A failing onChange is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range w.Dirs() {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add %q to watcher: %w", dir, err)
		}
		slog.Debug("watching", slog.String(log.Dir, dir))
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var pending string
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.Match(event.Name) {
				continue
			}
			pending = event.Name
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", slog.Any(log.Error, err))
		case <-timer.C:
			slog.Info("change detected", slog.String(log.Path, pending))
			if err := onChange(ctx, pending); err != nil {
				slog.Error("rebuild failed", slog.String(log.Path, pending), slog.Any(log.Error, err))
			}
		}
	}
}

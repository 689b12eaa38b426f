package trigger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/siteforge/internal/ignore"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/workspace"
)

// Watcher requests a rebuild for every relevant change under the input root.
type Watcher struct {
	root       string
	outputRoot string
	defaults   []string
	next       Requester

	fs      *fsnotify.Watcher
	matcher *ignore.Matcher
}

// NewWatcher registers root and all non-ignored subdirectories. Events under
// outputRoot are never reported.
func NewWatcher(root, outputRoot string, defaults []string, next Requester) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{root: root, outputRoot: outputRoot, defaults: defaults, next: next, fs: fw}
	if err := w.reloadIgnore(); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := w.addDirsRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run forwards events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if w.outputRoot != "" && workspace.Contains(w.outputRoot, ev.Name) {
		return
	}
	if isSwapFile(filepath.Base(ev.Name)) {
		return
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	rel = filepath.ToSlash(rel)

	switch rel {
	case ignore.FileName:
		if err := w.reloadIgnore(); err != nil {
			slog.Warn("Ignore file unreadable", logfields.Error(err))
		}
		slog.Info("Ignore rules changed", logfields.Path(rel))
		w.next.RequestBuild()
		return
	case ignore.HooksFileName:
		slog.Warn("Hook script changed; restart to load it", logfields.Path(rel))
		return
	}

	isDir := false
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			isDir = true
		}
	}
	if w.matcher.Match(rel, isDir) || w.ignoredAncestor(rel) {
		return
	}
	if isDir {
		if err := w.addDirsRecursive(ev.Name); err != nil {
			slog.Warn("Watch add failed", logfields.Path(rel), logfields.Error(err))
		}
	}

	slog.Debug("File change detected", logfields.Path(rel), slog.String("op", ev.Op.String()))
	w.next.RequestBuild()
}

// ignoredAncestor covers events from directories registered before the
// ignore file started excluding them.
func (w *Watcher) ignoredAncestor(rel string) bool {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel)))
	for dir != "." && dir != "/" && dir != "" {
		if w.matcher.Match(dir, true) {
			return true
		}
		dir = filepath.ToSlash(filepath.Dir(filepath.FromSlash(dir)))
	}
	return false
}

func (w *Watcher) reloadIgnore() error {
	data, err := ignore.LoadFile(w.root)
	if err != nil {
		return err
	}
	w.matcher = ignore.Compile(w.defaults, data)
	return nil
}

func (w *Watcher) addDirsRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.outputRoot != "" && workspace.Contains(w.outputRoot, p) {
			return filepath.SkipDir
		}
		if rel, err := filepath.Rel(w.root, p); err == nil && rel != "." {
			if w.matcher.Match(filepath.ToSlash(rel), true) {
				return filepath.SkipDir
			}
		}
		if err := w.fs.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// isSwapFile reports editor temp and swap files.
func isSwapFile(base string) bool {
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		base == "4913"
}

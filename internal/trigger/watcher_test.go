package trigger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteforge/internal/ignore"
)

func startWatcher(t *testing.T, root, out string) *countingRequester {
	t.Helper()
	c := &countingRequester{}
	w, err := NewWatcher(root, out, ignore.DefaultPatterns, c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

func TestWatcher_FileCreateRequestsBuild(t *testing.T) {
	root := t.TempDir()
	c := startWatcher(t, root, "")

	require.NoError(t, os.WriteFile(filepath.Join(root, "page.md"), []byte("# hi"), 0o600))
	require.Eventually(t, func() bool { return c.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	c := startWatcher(t, root, "")

	sub := filepath.Join(root, "guide")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return c.count() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := c.count()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "intro.md"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return c.count() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_HandleFiltersEvents(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "_site")
	require.NoError(t, os.WriteFile(filepath.Join(root, ignore.FileName), []byte("drafts/\n*.tmp\n"), 0o600))

	c := &countingRequester{}
	w, err := NewWatcher(root, out, ignore.DefaultPatterns, c)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	skipped := []fsnotify.Event{
		{Name: filepath.Join(root, "page.md"), Op: fsnotify.Chmod},
		{Name: filepath.Join(out, "index.html"), Op: fsnotify.Write},
		{Name: filepath.Join(root, ".page.md.swp"), Op: fsnotify.Write},
		{Name: filepath.Join(root, "page.md~"), Op: fsnotify.Write},
		{Name: filepath.Join(root, "notes.tmp"), Op: fsnotify.Write},
		{Name: filepath.Join(root, "drafts", "wip.md"), Op: fsnotify.Write},
		{Name: filepath.Join(root, ignore.HooksFileName), Op: fsnotify.Write},
		{Name: root, Op: fsnotify.Write},
	}
	for _, ev := range skipped {
		w.handle(ev)
	}
	assert.Equal(t, 0, c.count())

	w.handle(fsnotify.Event{Name: filepath.Join(root, "page.md"), Op: fsnotify.Write})
	assert.Equal(t, 1, c.count())
}

func TestWatcher_IgnoreFileChangeReloadsRules(t *testing.T) {
	root := t.TempDir()
	c := &countingRequester{}
	w, err := NewWatcher(root, "", ignore.DefaultPatterns, c)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	draft := fsnotify.Event{Name: filepath.Join(root, "draft.md"), Op: fsnotify.Write}
	w.handle(draft)
	assert.Equal(t, 1, c.count())

	require.NoError(t, os.WriteFile(filepath.Join(root, ignore.FileName), []byte("draft.md\n"), 0o600))
	w.handle(fsnotify.Event{Name: filepath.Join(root, ignore.FileName), Op: fsnotify.Write})
	assert.Equal(t, 2, c.count(), "ignore file changes always rebuild")

	w.handle(draft)
	assert.Equal(t, 2, c.count())
}

func TestIsSwapFile(t *testing.T) {
	for _, name := range []string{"a.swp", "a.swx", "a~", ".#a", "#a#", "4913"} {
		assert.True(t, isSwapFile(name), name)
	}
	for _, name := range []string{"a.md", "#a", "index.html"} {
		assert.False(t, isSwapFile(name), name)
	}
}

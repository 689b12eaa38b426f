package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestManager_GeneratedMode(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager(tempBase)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.GetPath()
	if !strings.HasPrefix(filepath.Base(wsPath), "siteforge-") {
		t.Errorf("Expected siteforge-* directory, got: %s", wsPath)
	}
	if _, err := os.Stat(wsPath); err != nil {
		t.Fatalf("Workspace directory does not exist: %v", err)
	}
	if !mgr.Generated() {
		t.Error("Expected generated workspace")
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}
	if mgr.GetPath() != "" {
		t.Errorf("GetPath() should be empty after cleanup, got %q", mgr.GetPath())
	}
}

func TestManager_ExplicitModeIsNeverRemoved(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	mgr := NewExplicitManager(dir)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		t.Errorf("Explicit output directory was modified: %v", err)
	}
}

func TestManager_CleanupConcurrentAndRepeated(t *testing.T) {
	mgr := NewManager(t.TempDir())
	if err := mgr.Create(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mgr.Cleanup(); err != nil {
				t.Errorf("Cleanup() failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestManager_CleanupWithoutCreate(t *testing.T) {
	if err := NewManager("").Cleanup(); err != nil {
		t.Errorf("Cleanup() without Create should be a no-op, got %v", err)
	}
}

func TestContains(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "a", "b")
	cases := []struct {
		path string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "c"), true},
		{filepath.Join(root, "c", "d"), true},
		{filepath.Join(string(filepath.Separator), "a"), false},
		{filepath.Join(string(filepath.Separator), "a", "bc"), false},
		{filepath.Join(string(filepath.Separator), "a", "..b"), false},
		{filepath.Join(root, "..c"), true},
	}
	for _, tc := range cases {
		if got := Contains(root, tc.path); got != tc.want {
			t.Errorf("Contains(%q, %q) = %v, want %v", root, tc.path, got, tc.want)
		}
	}
}

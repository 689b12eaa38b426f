package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/siteforge/internal/logfields"
)

// Manager handles the output directory for one session.
type Manager struct {
	baseDir   string
	dir       string
	generated bool

	mu sync.Mutex
}

// NewManager returns a manager that generates a temporary directory under
// baseDir (os.TempDir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, generated: true}
}

// NewExplicitManager returns a manager for a caller-supplied directory.
// Cleanup never removes it.
func NewExplicitManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Create makes the directory. For generated workspaces a fresh
// siteforge-* directory is created on each call.
func (m *Manager) Create() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.generated {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		slog.Debug("Using output directory", logfields.Path(m.dir))
		return nil
	}

	dir, err := os.MkdirTemp(m.baseDir, "siteforge-")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Info("Created temporary output directory", logfields.Path(dir))
	return nil
}

// GetPath returns the workspace directory.
func (m *Manager) GetPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

// Generated reports whether the directory is owned by the manager.
func (m *Manager) Generated() bool { return m.generated }

// Cleanup removes a generated directory. It is safe to call more than once
// and from several goroutines.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.generated || m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Info("Removed temporary output directory", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// Contains reports whether path is dir itself or nested below it.
func Contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}

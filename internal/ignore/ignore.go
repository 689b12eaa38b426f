package ignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"golang.org/x/text/cases"
)

const (
	// FileName is the per-site ignore file read from the input root.
	FileName = ".siteforgeignore"
	// HooksFileName is the hook script read from the input root.
	HooksFileName = "siteforge.hooks.go"
	// ConfigFileName is the optional siteforge config file.
	ConfigFileName = "siteforge.yaml"
)

// DefaultPatterns are always compiled ahead of user patterns.
var DefaultPatterns = []string{
	FileName,
	HooksFileName,
	ConfigFileName,
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
	".DS_Store",
	"Thumbs.db",
	".env",
	".env.local",
}

// Matcher is a compiled, ordered rule set. It is safe for concurrent use.
type Matcher struct {
	matcher  gitignore.Matcher
	patterns []string
	fold     bool
}

// Option configures Compile.
type Option func(*Matcher)

// WithCaseFolding overrides the host default for case-insensitive matching.
func WithCaseFolding(fold bool) Option {
	return func(m *Matcher) { m.fold = fold }
}

// HostCaseInsensitive reports whether the host's native path comparison
// ignores case.
func HostCaseInsensitive() bool {
	return runtime.GOOS == "darwin" || runtime.GOOS == "windows"
}

// Compile builds a matcher from defaults followed by the lines of userFile.
// Blank lines and comments are skipped. userFile may be nil.
func Compile(defaults []string, userFile []byte, opts ...Option) *Matcher {
	m := &Matcher{fold: HostCaseInsensitive()}
	for _, opt := range opts {
		opt(m)
	}

	lines := make([]string, 0, len(defaults)+8)
	lines = append(lines, defaults...)
	lines = append(lines, splitLines(userFile)...)

	patterns := make([]gitignore.Pattern, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, line)
		patterns = append(patterns, gitignore.ParsePattern(m.foldString(line), nil))
	}
	m.matcher = gitignore.NewMatcher(patterns)
	return m
}

// Match reports whether rel (relative to the input root) is ignored.
// The root itself never matches.
func (m *Matcher) Match(rel string, isDir bool) bool {
	parts := split(m.foldString(rel))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// Matches is Match for callers that only have a path string: a trailing
// slash marks a directory.
func (m *Matcher) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	return m.Match(rel, strings.HasSuffix(rel, "/"))
}

// Patterns returns the effective rule list in evaluation order.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

func (m *Matcher) foldString(s string) string {
	if !m.fold {
		return s
	}
	return cases.Fold().String(s)
}

// LoadFile reads the ignore file at root. A missing file is not an error.
func LoadFile(root string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	return data, nil
}

func split(rel string) []string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.Trim(rel, "/")
	if rel == "" || rel == "." {
		return nil
	}
	parts := strings.Split(rel, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

// splitLines has no line length limit; CR is trimmed by the caller.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	return strings.Split(string(data), "\n")
}

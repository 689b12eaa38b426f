package site

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/siteforge/internal/ignore"
)

// RenderedExt is the extension every document is written with.
const RenderedExt = ".html"

// DefaultDocumentExts lists the extensions treated as renderable documents.
var DefaultDocumentExts = []string{".mdx"}

// Kind classifies a traversal entry.
type Kind int

const (
	KindDir Kind = iota
	KindDocument
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindDocument:
		return "document"
	default:
		return "file"
	}
}

// Entry is produced while walking the input tree.
type Entry struct {
	AbsPath string
	RelPath string
	Kind    Kind

	// real paths of this directory and its ancestors, for symlink cycles
	ancestors []string
}

// Classify decides whether a regular file is a document or a plain file.
// Extension comparison follows the host's path case rules.
func Classify(name string, documentExts []string) Kind {
	ext := filepath.Ext(name)
	if ext == "" {
		return KindFile
	}
	for _, d := range documentExts {
		if extEqual(ext, d) {
			return KindDocument
		}
	}
	return KindFile
}

// MapPath maps an input-relative path to its output-relative path. Documents
// keep their directory and base name but take RenderedExt; everything else is
// unchanged.
func MapPath(rel string, kind Kind) string {
	if kind != KindDocument {
		return rel
	}
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + RenderedExt
}

func extEqual(a, b string) bool {
	if ignore.HostCaseInsensitive() {
		return strings.EqualFold(a, b)
	}
	return a == b
}

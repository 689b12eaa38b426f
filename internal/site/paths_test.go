package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPath(t *testing.T) {
	cases := []struct {
		rel  string
		kind Kind
		want string
	}{
		{"index.mdx", KindDocument, "index.html"},
		{filepath.Join("guide", "intro.mdx"), KindDocument, filepath.Join("guide", "intro.html")},
		{filepath.Join("a.b", "c.d.mdx"), KindDocument, filepath.Join("a.b", "c.d.html")},
		{"logo.png", KindFile, "logo.png"},
		{"guide", KindDir, "guide"},
		{"notes.mdx.bak", KindFile, "notes.mdx.bak"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MapPath(tc.rel, tc.kind), "MapPath(%q, %s)", tc.rel, tc.kind)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindDocument, Classify("a.mdx", DefaultDocumentExts))
	assert.Equal(t, KindFile, Classify("a.md", DefaultDocumentExts))
	assert.Equal(t, KindDocument, Classify("a.md", []string{".mdx", ".md"}))
	assert.Equal(t, KindFile, Classify("Makefile", DefaultDocumentExts))
	assert.Equal(t, KindFile, Classify("mdx", DefaultDocumentExts))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "dir", KindDir.String())
	assert.Equal(t, "document", KindDocument.String())
	assert.Equal(t, "file", KindFile.String())
}

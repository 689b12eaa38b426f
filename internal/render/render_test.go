package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestGoldmark_RendersMarkdownAndStripsFrontmatter(t *testing.T) {
	r := New(DefaultSettings())

	out, err := r.Render(context.Background(), "---\ntitle: Home\n---\n# Hello\n\nSome *text*.\n", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, out, "<em>text</em>")
	assert.NotContains(t, out, "title: Home")
}

func TestGoldmark_MalformedFrontmatterFails(t *testing.T) {
	r := New(DefaultSettings())

	_, err := r.Render(context.Background(), "---\ntitle: x\n# never closed\n", t.TempDir())
	require.Error(t, err)
}

func TestGoldmark_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultSettings()).Render(ctx, "# x", t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func TestGoldmark_ExpandsRelativeImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "parts", "note.mdx"), "---\ntitle: part\n---\n**inlined note**\n")

	src := "import Note from \"./parts/note.mdx\"\nimport Chart from \"some-package\"\n\n# Page\n\n<Note />\n\n<Chart />\n"
	out, err := New(DefaultSettings()).Render(context.Background(), src, dir)
	require.NoError(t, err)

	assert.Contains(t, out, "<strong>inlined note</strong>")
	assert.NotContains(t, out, "import Note")
	assert.NotContains(t, out, "import Chart")
	assert.Contains(t, out, "<Chart />")
}

func TestGoldmark_NestedImportsResolveAgainstImporter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "outer.mdx"), "import Inner from \"./b/inner.mdx\"\n\nouter <Inner />\n")
	writeFile(t, filepath.Join(dir, "a", "b", "inner.mdx"), "inner-text\n")

	out, err := New(DefaultSettings()).Render(context.Background(), "import Outer from \"./a/outer.mdx\"\n\n<Outer />\n", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "outer inner-text")
}

func TestGoldmark_ImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mdx"), "import B from \"./b.mdx\"\n\n<B />\n")
	writeFile(t, filepath.Join(dir, "b.mdx"), "import A from \"./a.mdx\"\n\n<A />\n")

	_, err := New(DefaultSettings()).Render(context.Background(), "import A from \"./a.mdx\"\n\n<A />\n", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle")
}

func TestGoldmark_MissingImport(t *testing.T) {
	_, err := New(DefaultSettings()).Render(context.Background(), "import X from \"./missing.mdx\"\n\n<X />\n", t.TempDir())
	require.Error(t, err)
}

func TestGoldmark_ImportInsideFenceIsLiteral(t *testing.T) {
	src := "```js\nimport X from \"./x.mdx\"\n```\n"
	out, err := New(DefaultSettings()).Render(context.Background(), src, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "import X from")
}

func TestGoldmark_UnsafeSetting(t *testing.T) {
	src := "<div class=\"x\">raw</div>\n"

	out, err := New(DefaultSettings()).Render(context.Background(), src, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="x">raw</div>`)

	s := DefaultSettings()
	s.Unsafe = false
	out, err = New(s).Render(context.Background(), src, t.TempDir())
	require.NoError(t, err)
	assert.NotContains(t, out, `<div class="x">`)
}

func TestSettings_MapApplyRoundTrip(t *testing.T) {
	s := DefaultSettings()
	m := s.Map()
	m["typographer"] = true
	m["unsafe"] = false

	got, err := s.Apply(m)
	require.NoError(t, err)
	assert.True(t, got.Typographer)
	assert.False(t, got.Unsafe)
	assert.True(t, got.GFM)
}

func TestSettings_ApplyRejectsBadInput(t *testing.T) {
	_, err := DefaultSettings().Apply(map[string]any{"nope": true})
	require.Error(t, err)

	_, err = DefaultSettings().Apply(map[string]any{"gfm": "yes"})
	require.Error(t, err)
}

func TestFingerprint_StableAcrossKeyOrder(t *testing.T) {
	a, err := Fingerprint([]byte("---\ntitle: T\ntags: [x]\n---\nbody\n"))
	require.NoError(t, err)
	b, err := Fingerprint([]byte("---\ntags: [x]\ntitle: T\n---\nbody\n"))
	require.NoError(t, err)
	require.NotEmpty(t, a)
	require.Equal(t, a, b)

	c, err := Fingerprint([]byte("---\ntitle: T\ntags: [x]\n---\nother\n"))
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestGoldmark_HardWrapsSetting(t *testing.T) {
	src := "line one\nline two\n"

	out, err := New(DefaultSettings()).Render(context.Background(), src, t.TempDir())
	require.NoError(t, err)
	assert.NotContains(t, out, "<br>")

	s := DefaultSettings()
	s.HardWraps = true
	out, err = New(s).Render(context.Background(), src, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "line one<br>")
}

func TestGoldmark_ImportOrderIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mdx"), "A says <B />\n")
	writeFile(t, filepath.Join(dir, "b.mdx"), "BEE\n")

	src := "import A from \"./a.mdx\"\nimport B from \"./b.mdx\"\n\n<A />\n"
	r := New(DefaultSettings())
	for range 50 {
		out, err := r.Render(context.Background(), src, dir)
		require.NoError(t, err)
		require.Equal(t, "<p>A says BEE</p>\n", out)
	}
}

package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "key: value\n", string(fm))
	require.Equal(t, "# Title\n", string(body))
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "key: value\r\n", string(fm))
	require.Equal(t, "# Title\r\n", string(body))
}

func TestSplit_EmptyBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, "# Title\n", string(body))
}

func TestSplit_ClosingOnLastLine(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: x\n", string(fm))
	require.Empty(t, body)
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Hello\ntags: [a, b]\n---\nBody\n"))
	require.NoError(t, err)
	require.True(t, doc.Had)
	require.Equal(t, "Hello", doc.Title())
	require.Equal(t, "Body\n", string(doc.Body))
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [unclosed\n---\nBody\n"))
	require.Error(t, err)
}

func TestCanonical_SortsKeys(t *testing.T) {
	out, err := Canonical(map[string]any{"b": 1, "a": map[string]any{"z": true, "y": "s"}})
	require.NoError(t, err)
	require.Equal(t, "a:\n  y: s\n  z: true\nb: 1", out)

	empty, err := Canonical(nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

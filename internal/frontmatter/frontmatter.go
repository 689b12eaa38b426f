// Package frontmatter separates a leading YAML block from a document body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a frontmatter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter opening delimiter found but closing delimiter is missing")

// Document is a source document split into metadata and body.
type Document struct {
	Fields map[string]any
	Raw    []byte // frontmatter without delimiters
	Body   []byte
	Had    bool
}

// Title returns the string "title" field, if any.
func (d Document) Title() string {
	if t, ok := d.Fields["title"].(string); ok {
		return t
	}
	return ""
}

// Parse splits content and decodes the YAML block. Content without a leading
// `---` line is returned entirely as Body.
func Parse(content []byte) (Document, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Raw: raw, Body: body, Had: had, Fields: map[string]any{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, nil
	}
	if err := yaml.Unmarshal(raw, &doc.Fields); err != nil {
		return Document{}, fmt.Errorf("decode frontmatter: %w", err)
	}
	if doc.Fields == nil {
		doc.Fields = map[string]any{}
	}
	return doc, nil
}

// Split separates `---` delimited frontmatter from the body. LF and CRLF
// documents are both accepted.
func Split(content []byte) (frontmatter, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the very last line has no trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

package site

import (
	"html"
	"path/filepath"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const envelopeHead = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`

const envelopeMid = `</title>
</head>
<body>
`

const envelopeTail = `
</body>
</html>
`

// Envelope wraps a rendered fragment into a complete HTML document. The
// title is the text of the fragment's first h1, or the source file's stem.
func Envelope(fragment, sourcePath string) string {
	title := FirstHeading(fragment)
	if title == "" {
		base := filepath.Base(sourcePath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var b strings.Builder
	b.Grow(len(envelopeHead) + len(title) + len(envelopeMid) + len(fragment) + len(envelopeTail))
	b.WriteString(envelopeHead)
	b.WriteString(html.EscapeString(title))
	b.WriteString(envelopeMid)
	b.WriteString(strings.TrimRight(fragment, "\n"))
	b.WriteString(envelopeTail)
	return b.String()
}

// FirstHeading returns the whitespace-collapsed text of the first <h1> in
// fragment, or "" when there is none.
func FirstHeading(fragment string) string {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	depth := 0
	var text strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return ""
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.H1 {
				depth++
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if depth > 0 && atom.Lookup(name) == atom.H1 {
				return strings.Join(strings.Fields(text.String()), " ")
			}
		case xhtml.TextToken:
			if depth > 0 {
				text.Write(z.Text())
			}
		}
	}
}

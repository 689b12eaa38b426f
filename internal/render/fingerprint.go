package render

import (
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/siteforge/internal/frontmatter"
)

// Fingerprint computes a stable content hash over a document's canonical
// frontmatter and body. An existing fingerprint field is excluded.
func Fingerprint(source []byte) (string, error) {
	doc, err := frontmatter.Parse(source)
	if err != nil {
		return "", err
	}

	fields := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		if k == mdfp.FingerprintField {
			continue
		}
		fields[k] = v
	}
	fm, err := frontmatter.Canonical(fields)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(doc.Body)), nil
}

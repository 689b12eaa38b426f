// Package render converts source documents into HTML fragments.
//
// The default implementation strips YAML frontmatter, inlines MDX-style
// imports of sibling documents and converts the result with goldmark.
package render

// Package ignore decides which paths under the input root are excluded from a
// build. Rules use gitignore syntax: a fixed default set that always protects
// siteforge's own bookkeeping files, followed by the user's .siteforgeignore
// so that user negations can re-include anything a default excluded.
//
// Matching is pure string logic over paths relative to the input root; the
// matcher never touches the filesystem.
package ignore

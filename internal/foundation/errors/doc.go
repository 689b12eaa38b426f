// Package errors provides the classified error type used across siteforge.
//
// Errors carry a category (what part of the tool failed), a severity and a
// small structured context. The CLI adapter turns them into exit codes and
// operator-facing messages; the HTTP adapter maps them to status codes for the
// dev server's recovery middleware.
//
//	err := errors.NewError(errors.CategoryRender, "render failed").
//		WithContext("file", rel).
//		WithCause(cause).
//		Build()
package errors

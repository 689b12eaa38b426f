package errors

import (
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter maps classified errors onto HTTP responses.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates an adapter; a nil logger uses slog.Default.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// StatusCodeFor maps err to a status code. Unknown errors map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	c, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch c.Category() {
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a plain text error body and logs err.
// The dev server serves a static tree, so the body is text rather than JSON.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := a.StatusCodeFor(err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status) + "\n"))

	if err == nil {
		return
	}
	if c, ok := AsClassified(err); ok {
		a.logger.Log(r.Context(), levelFromSeverity(c.Severity()), c.Error(), "path", r.URL.Path)
		return
	}
	a.logger.Error(err.Error(), "path", r.URL.Path)
}

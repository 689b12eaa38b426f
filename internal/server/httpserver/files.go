package httpserver

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/livereload"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
)

const (
	indexDocument    = "index.html"
	notFoundDocument = "404.html"
	notFoundBody     = "404 Not Found"
)

// fileHandler resolves request paths against the output tree. Existence is
// checked per request because the tree is rebuilt underneath it.
type fileHandler struct {
	root       string
	injectLive bool
	errors     *ferrors.HTTPErrorAdapter
	logger     *slog.Logger
}

// NewFileHandler returns the output tree handler. injectLiveReload adds the
// live reload script tag to HTML responses.
func NewFileHandler(root string, injectLiveReload bool, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &fileHandler{
		root:       root,
		injectLive: injectLiveReload,
		errors:     ferrors.NewHTTPErrorAdapter(logger),
		logger:     logger,
	}
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel, ok := sanitize(r.URL.Path)
	if !ok {
		h.logger.Debug("Rejected path traversal", logfields.Path(r.URL.Path))
		h.notFound(w, r)
		return
	}

	dirLike := path.Ext(rel) == ""
	target := rel
	if dirLike {
		target = path.Join(rel, indexDocument)
	}

	abs := filepath.Join(h.root, filepath.FromSlash(target))
	if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
		h.serveFile(w, r, abs)
		return
	}

	if dirLike && !strings.HasSuffix(r.URL.Path, "/") {
		to := r.URL.Path + "/"
		if r.URL.RawQuery != "" {
			to += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, to, http.StatusMovedPermanently)
		return
	}

	h.notFound(w, r)
}

// sanitize turns a URL path into a slash-separated path relative to the
// root. It reports false when ".." would climb above the root.
func sanitize(urlPath string) (string, bool) {
	if strings.ContainsRune(urlPath, 0) || strings.Contains(urlPath, "\\") {
		return "", false
	}
	depth := 0
	parts := make([]string, 0, 8)
	for _, seg := range strings.Split(urlPath, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", false
			}
			parts = parts[:len(parts)-1]
		default:
			depth++
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/"), true
}

func (h *fileHandler) serveFile(w http.ResponseWriter, r *http.Request, abs string) {
	// #nosec G304 -- abs is confined to the output root by sanitize
	f, err := os.Open(abs)
	if err != nil {
		h.readError(w, r, abs, err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", contentTypeFor(abs))

	if h.injectLive && isHTML(abs) {
		data, err := io.ReadAll(f)
		if err != nil {
			w.Header().Del("Content-Type")
			h.readError(w, r, abs, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(livereload.Inject(data))
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Debug("Response copy interrupted", logfields.File(abs), logfields.Error(err))
	}
}

func (h *fileHandler) readError(w http.ResponseWriter, r *http.Request, abs string, err error) {
	h.errors.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read served file").
		WithContext("file", abs).Build())
}

func (h *fileHandler) notFound(w http.ResponseWriter, _ *http.Request) {
	// #nosec G304 -- fixed name under the output root
	data, err := os.ReadFile(filepath.Join(h.root, notFoundDocument))
	if err == nil {
		w.Header().Set("Content-Type", contentTypes[".html"])
		w.WriteHeader(http.StatusNotFound)
		if h.injectLive {
			data = livereload.Inject(data)
		}
		_, _ = w.Write(data)
		return
	}
	if !errors.Is(err, fs.ErrNotExist) {
		h.logger.Debug("Custom 404 page unreadable", logfields.Error(err))
	}
	w.Header().Set("Content-Type", contentTypes[".txt"])
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, notFoundBody)
}

package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder fields", func(t *testing.T) {
		cause := stderrors.New("permission denied")
		err := WrapError(cause, CategoryRender, "render failed").
			WithContext("file", "a.mdx").
			Build()

		assert.Equal(t, CategoryRender, err.Category())
		assert.Equal(t, SeverityError, err.Severity())
		assert.Equal(t, "render failed", err.Message())
		assert.ErrorIs(t, err, cause)

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "a.mdx", file)
	})

	t.Run("config errors are fatal", func(t *testing.T) {
		err := ConfigError("output nested in input").Build()
		assert.True(t, err.IsFatal())
		assert.True(t, HasCategory(err, CategoryConfig))
	})

	t.Run("found through wrapping", func(t *testing.T) {
		inner := HookError("hook returned error").Build()
		wrapped := fmt.Errorf("build: %w", inner)

		got, ok := AsClassified(wrapped)
		require.True(t, ok)
		assert.Equal(t, CategoryHook, got.Category())
		assert.Equal(t, CategoryHook, GetCategory(wrapped))
		assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := BuildError("build failed").Build()
		derived := base.WithContext("build_id", "abc")
		_, inBase := base.Context().Get("build_id")
		assert.False(t, inBase)
		id, _ := derived.Context().GetString("build_id")
		assert.Equal(t, "abc", id)
	})
}

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stderrors.New("plain"), 1},
		{ValidationError("bad").Build(), 2},
		{ConfigError("bad").Build(), 7},
		{RenderError("bad").Build(), 11},
		{ServerError("bind").Build(), 12},
		{InternalError("oops").Build(), 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.ExitCodeFor(tc.err), "err=%v", tc.err)
	}
}

func TestCLIErrorAdapterReport(t *testing.T) {
	var logs, out bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	a.out = &out

	err := ConfigError("input directory not found").WithContext("path", "/nope").Build()
	code := a.Report(err)

	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: input directory not found (/nope)\n", out.String())
	assert.Contains(t, logs.String(), "category=config")
}

func TestHTTPErrorAdapter(t *testing.T) {
	a := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, http.StatusOK, a.StatusCodeFor(nil))
	assert.Equal(t, http.StatusNotFound, a.StatusCodeFor(NewError(CategoryNotFound, "missing").Build()))
	assert.Equal(t, http.StatusInternalServerError, a.StatusCodeFor(stderrors.New("boom")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	a.WriteErrorResponse(rec, req, InternalError("panic").Build())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error\n", rec.Body.String())
}

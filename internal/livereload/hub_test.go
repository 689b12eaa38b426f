package livereload

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteforge/internal/site"
)

func connect(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func readUntil(r *bufio.Reader, needle string) bool {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return false
		}
		if strings.Contains(line, needle) {
			return true
		}
	}
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, time.Second, 5*time.Millisecond)
}

func TestHub_InitialConnectReceivesLastHash(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()
	hub.Broadcast("abc123")

	server := httptest.NewServer(hub)
	defer server.Close()

	r := connect(t, server.URL)
	assert.True(t, readUntil(r, `data: {"hash":"abc123"}`))
}

func TestHub_BuildCompletedBroadcastsSuccessfulBuilds(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	server := httptest.NewServer(hub)
	defer server.Close()

	r := connect(t, server.URL)
	waitClients(t, hub, 1)

	hub.BuildCompleted(context.Background(), site.Result{BuildID: "failed", Err: errors.New("x")})
	hub.BuildCompleted(context.Background(), site.Result{BuildID: "abandoned", Abandoned: true})
	hub.BuildCompleted(context.Background(), site.Result{BuildID: "good"})

	line := ""
	for !strings.HasPrefix(line, "data:") {
		var err error
		line, err = r.ReadString('\n')
		require.NoError(t, err)
	}
	assert.Equal(t, "data: {\"hash\":\"good\"}\n", line)
}

func TestHub_DuplicateHashIgnored(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()
	hub.Broadcast("same")
	hub.Broadcast("same")
	hub.Broadcast("")

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Equal(t, "same", hub.lastHash)
}

func TestHub_ShutdownDisconnectsClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	r := connect(t, server.URL)
	waitClients(t, hub, 1)

	hub.Shutdown()
	hub.Shutdown()
	assert.False(t, readUntil(r, "data:"))
	assert.Zero(t, hub.Clients())

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, EventsPath, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInject(t *testing.T) {
	page := []byte("<html><body><p>x</p></body></html>")
	assert.Equal(t, "<html><body><p>x</p>"+Tag+"</body></html>", string(Inject(page)))

	upper := []byte("<HTML><BODY>x</BODY></HTML>")
	assert.Equal(t, "<HTML><BODY>x"+Tag+"</BODY></HTML>", string(Inject(upper)))

	assert.Equal(t, "<p>x</p>"+Tag, string(Inject([]byte("<p>x</p>"))))
}

func TestScriptHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	ScriptHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ScriptPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), EventsPath)
}

// Package livereload pushes "site rebuilt" notifications to open browser
// tabs over server-sent events.
package livereload

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// Endpoint paths, under the reserved prefix.
const (
	Prefix     = "/__siteforge/"
	EventsPath = Prefix + "livereload"
	ScriptPath = Prefix + "livereload.js"
)

const heartbeatInterval = 30 * time.Second

// Hub manages SSE clients and fans out build ids.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*client
	closed   bool
	lastHash string
}

type client struct {
	id   int
	ch   chan string
	done chan struct{}
}

type message struct {
	Hash string `json:"hash"`
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: map[int]*client{}}
}

// ServeHTTP implements the SSE endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := &client{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	c.id = h.nextID
	h.nextID++
	h.clients[c.id] = c
	current := h.lastHash
	h.mu.Unlock()
	defer h.removeClient(c.id)

	bw := bufio.NewWriter(w)
	send := func(payload string) bool {
		if _, err := bw.WriteString(payload); err != nil {
			slog.Debug("livereload write", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	hello := ": connected\n\n"
	if current != "" {
		hello += event(current)
	}
	if !send(hello) {
		return
	}

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case hash := <-c.ch:
			if !send(event(hash)) {
				return
			}
		}
	}
}

func event(hash string) string {
	b, _ := json.Marshal(message{Hash: hash})
	return "data: " + string(b) + "\n\n"
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends hash to every client. Clients whose buffers are full are
// dropped; a repeated hash is ignored.
func (h *Hub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", "hash", hash, logfields.Count(len(snapshot)), "dropped", dropped)
}

// BuildCompleted broadcasts the build id of every successful, complete build.
func (h *Hub) BuildCompleted(_ context.Context, res site.Result) {
	if res.Err != nil || res.Abandoned {
		return
	}
	h.Broadcast(res.BuildID)
}

// Shutdown disconnects all clients and stops future broadcasts.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*client{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

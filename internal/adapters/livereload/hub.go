// Package livereload pushes reload events to browsers over server-sent events
// and serves the output tree during watch.
package livereload

import (
	"bufio"
	"net/http"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.ReloadNotifier = (*Hub)(nil)

const (
	clientBuffer      = 8
	heartbeatInterval = 30 * time.Second
	reloadMessage     = "data: reload\n\n"
)

// Observer receives hub activity. metrics.Recorder satisfies it.
type Observer interface {
	ObserveReload()
	SetClients(n int)
}

// Hub manages SSE clients and fans reload events out to them.
type Hub struct {
	mu       sync.Mutex
	nextID   int
	clients  map[int]*client
	observer Observer
	closed   bool
}

type client struct {
	ch   chan struct{}
	done chan struct{}
}

// NewHub creates a Hub. observer may be nil.
func NewHub(observer Observer) *Hub {
	return &Hub{clients: map[int]*client{}, observer: observer}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	id, c, ok := h.register()
	if !ok {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.remove(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(": connected\n\n") {
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
		case <-c.ch:
			if !send(reloadMessage) {
				return
			}
		}
	}
}

// BroadcastReload tells every connected client to reload. Clients whose
// buffer is full are dropped.
func (h *Hub) BroadcastReload() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	var dropped []int
	for id, c := range h.clients {
		select {
		case c.ch <- struct{}{}:
		default:
			dropped = append(dropped, id)
		}
	}
	h.mu.Unlock()

	for _, id := range dropped {
		h.remove(id)
	}
	if h.observer != nil {
		h.observer.ObserveReload()
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects all clients and ignores later broadcasts.
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
	h.setClients(0)
}

func (h *Hub) register() (int, *client, bool) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, nil, false
	}
	c := &client{ch: make(chan struct{}, clientBuffer), done: make(chan struct{})}
	id := h.nextID
	h.nextID++
	h.clients[id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.setClients(n)
	return id, c, true
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.setClients(n)
	}
}

func (h *Hub) setClients(n int) {
	if h.observer != nil {
		h.observer.SetClients(n)
	}
}

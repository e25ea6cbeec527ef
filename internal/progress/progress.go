// Package progress broadcasts recovery progress over a local WebSocket
// for long-running recoveries against multi-gigabyte images. It is pure
// observability: the Recovery Driver only ever calls the Reporter
// interface, never the other way around, so a stalled or disconnected
// client can never perturb a decode.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/forensiq/sqlrecover/internal/logging"
)

// Event is the newline-delimited JSON payload pushed to every connected
// client each time the driver reports progress: after each page of the
// linear sweep, after each free-list page, and after each recovered tuple.
type Event struct {
	RunID           string `json:"run_id"`
	PagesScanned    int    `json:"pages_scanned"`
	FreelistPages   int    `json:"freelist_pages"`
	TuplesRecovered int    `json:"tuples_recovered"`
	BytesTotal      int64  `json:"bytes_total"`
}

// Reporter receives best-effort progress notifications. core/recover/driver
// defines its own Reporter interface with the same three methods; Hub
// satisfies it.
type Reporter interface {
	PagesScanned(n int)
	FreelistPagesScanned(n int)
	TuplesRecovered(n int)
}

// Hub is a minimal WebSocket broadcast server: every connected client
// receives every event, with no replay of history. A full client send
// buffer is dropped rather than blocking the driver.
type Hub struct {
	runID      string
	bytesTotal int64

	mu      sync.RWMutex
	clients map[chan []byte]struct{}

	pagesScanned    int
	freelistPages   int
	tuplesRecovered int
}

// NewHub returns a Hub tagged with runID (for log/event correlation) and
// bytesTotal (the source image size, logged human-readable via
// dustin/go-humanize alongside each broadcast).
func NewHub(runID string, bytesTotal int64) *Hub {
	return &Hub{runID: runID, bytesTotal: bytesTotal, clients: make(map[chan []byte]struct{})}
}

func (h *Hub) PagesScanned(n int)         { h.mu.Lock(); h.pagesScanned = n; h.mu.Unlock(); h.broadcast() }
func (h *Hub) FreelistPagesScanned(n int) { h.mu.Lock(); h.freelistPages = n; h.mu.Unlock(); h.broadcast() }
func (h *Hub) TuplesRecovered(n int)      { h.mu.Lock(); h.tuplesRecovered = n; h.mu.Unlock(); h.broadcast() }

func (h *Hub) broadcast() {
	h.mu.RLock()
	event := Event{
		RunID:           h.runID,
		PagesScanned:    h.pagesScanned,
		FreelistPages:   h.freelistPages,
		TuplesRecovered: h.tuplesRecovered,
		BytesTotal:      h.bytesTotal,
	}
	h.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		logging.Error("progress: failed to marshal event", "error", err)
		return
	}

	logging.Debug("progress event", "run_id", h.runID, "pages_scanned", event.PagesScanned,
		"tuples", event.TuplesRecovered, "bytes_total", humanize.Bytes(uint64(h.bytesTotal)))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			// Slow client: drop this event rather than block the driver.
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a WebSocket and streams progress
// events to it until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("progress: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	for data := range ch {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// ListenAndServe starts the progress HTTP server on addr (e.g. ":8787").
// It runs until the process exits or the listener errors; callers invoke
// it in its own goroutine.
func (h *Hub) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/progress", h)
	logging.Info("progress: watch server listening", "addr", addr)
	return http.ListenAndServe(addr, logging.CombinedMiddleware(mux))
}

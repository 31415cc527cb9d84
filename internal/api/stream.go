package api

import (
	"net/http"
	"sync"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/monitor"
)

// Stream fans monitor documents out to connected SSE clients. It sits on
// the monitor's document fan-out, so every client sees exactly what the
// console output shows, framed as events named after the document kind.
type Stream struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

var _ monitor.DocSink = (*Stream)(nil)

// NewStream constructs an empty broker.
func NewStream() *Stream {
	return &Stream{clients: make(map[chan []byte]struct{})}
}

// Publish frames doc as an SSE event and broadcasts it. A client whose
// buffer is full misses the event rather than stalling the monitor.
func (b *Stream) Publish(kind monitor.DocKind, doc []byte) error {
	frame := make([]byte, 0, len(kind)+len(doc)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, kind...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, doc...)
	frame = append(frame, "\n\n"...)

	b.mu.Lock()
	clients := make([]chan []byte, 0, len(b.clients))
	for ch := range b.clients {
		clients = append(clients, ch)
	}
	b.mu.Unlock()

	for _, ch := range clients {
		select {
		case ch <- frame:
		default:
		}
	}
	return nil
}

// Subscribe registers a new client channel.
func (b *Stream) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client channel. The channel is not closed: a
// broadcast running off its own snapshot of the client list may still be
// sending, and a buffered send to an orphaned channel is harmless.
func (b *Stream) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// ClientCount reports how many clients are connected.
func (b *Stream) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// ServeHTTP streams framed documents until the client goes away.
func (b *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case frame := <-ch:
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

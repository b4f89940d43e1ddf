package webhook

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one relay trace event broadcast to /ws observers.
type Event struct {
	Kind   string    `json:"kind"` // inbound | reply
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Hub broadcasts relay events to connected WebSocket observers.
// Publishing never blocks the pipeline: events are dropped when the
// buffer is full or no dispatcher is running.
type Hub struct {
	events   chan Event
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewHub creates a trace hub with a buffered event queue.
func NewHub() *Hub {
	return &Hub{
		events: make(chan Event, 100),
		conns:  make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish queues an event for broadcast, dropping it if the queue is full.
func (h *Hub) Publish(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	select {
	case h.events <- evt:
	default:
	}
}

// Attach upgrades an HTTP request to a WebSocket observer connection.
func (h *Hub) Attach(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Trace] upgrade: %v", err)
		return
	}
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	// Reader loop detects disconnects; observers send nothing useful.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Run dispatches queued events to all observers until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case evt := <-h.events:
			h.broadcast(evt)
		}
	}
}

func (h *Hub) broadcast(evt Event) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteJSON(evt); err != nil {
			h.drop(conn)
		}
	}
}

// ObserverCount returns the number of attached observers.
func (h *Hub) ObserverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
	}
	h.conns = make(map[*websocket.Conn]bool)
}

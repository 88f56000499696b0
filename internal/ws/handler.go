// Package ws streams live events (log entries, heartbeat pulses) to
// dashboard clients over WebSocket.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumenlabs/companion/internal/heartbeat"
	"github.com/lumenlabs/companion/internal/logging"
	"github.com/lumenlabs/companion/internal/monitoring"
)

const (
	writeWait      = 10 * time.Second
	clientBacklog  = 64
	recentReplayed = 25
)

// Event is the envelope sent to clients
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Handler manages WebSocket subscribers
type Handler struct {
	upgrader websocket.Upgrader
	log      *logging.Logger
	ring     *logging.Ring
	metrics  *monitoring.Metrics

	mu      sync.Mutex
	clients map[chan Event]struct{}
}

// NewHandler creates a WebSocket handler over the log ring
func NewHandler(log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log,
		ring:    log.Ring(),
		metrics: metrics,
		clients: make(map[chan Event]struct{}),
	}
}

// Stream upgrades the connection and streams events until the client leaves
func (h *Handler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	events := make(chan Event, clientBacklog)
	h.register(events)
	defer h.unregister(events)

	logEntries, cancel := h.ring.Subscribe()
	defer cancel()

	// Replay a short backlog so dashboards start populated.
	for _, entry := range h.ring.Recent(recentReplayed) {
		h.offer(events, Event{Type: "log", Data: entry})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case entry, ok := <-logEntries:
			if !ok {
				return
			}
			h.offer(events, Event{Type: "log", Data: entry})
		case event := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// BroadcastPulse fans a heartbeat pulse out to all connected clients
func (h *Handler) BroadcastPulse(p heartbeat.Pulse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for events := range h.clients {
		h.offer(events, Event{Type: "heartbeat", Data: p})
	}
}

// ClientCount returns the number of connected clients
func (h *Handler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Handler) register(events chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[events] = struct{}{}
}

func (h *Handler) unregister(events chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, events)
}

// offer drops events when the client cannot keep up
func (h *Handler) offer(events chan Event, e Event) {
	select {
	case events <- e:
	default:
	}
}

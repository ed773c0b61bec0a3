package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"centerout/internal"
	"centerout/ports"

	"github.com/gin-gonic/gin"
)

// SSEClient represents a connected SSE observer. An empty Types set
// receives every event.
type SSEClient struct {
	Channel chan ports.TaskEvent
	Types   map[string]bool
}

func (c SSEClient) wants(eventType string) bool {
	return len(c.Types) == 0 || c.Types[eventType]
}

// SSEHub fans task events out to Server-Sent Events observers
type SSEHub struct {
	clients    map[chan ports.TaskEvent]SSEClient
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan ports.TaskEvent
	done       chan struct{}
	keepAlive  time.Duration
	logger     *internal.Logger
}

// NewSSEHub creates a new SSE hub
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:    make(map[chan ports.TaskEvent]SSEClient),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan ports.TaskEvent, 256),
		done:       make(chan struct{}),
		keepAlive:  30 * time.Second,
		logger:     logger.With("sse"),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client.Channel] = client
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Debug("client registered (total clients: %d)", n)
			h.fanOut(usersEvent(n))

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if _, exists := h.clients[client.Channel]; exists {
				delete(h.clients, client.Channel)
				close(client.Channel)
			}
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Debug("client unregistered (remaining clients: %d)", n)
			h.fanOut(usersEvent(n))

		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

func (h *SSEHub) fanOut(event ports.TaskEvent) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for ch, client := range h.clients {
		if !client.wants(event.Type) {
			continue
		}
		select {
		case ch <- event:
		default:
			// slow observers miss cursor frames
			h.logger.Trace("client channel full, skipping %s event", event.Type)
		}
	}
}

func usersEvent(n int) ports.TaskEvent {
	return ports.TaskEvent{
		Type:      ports.EventUsers,
		Data:      map[string]interface{}{"count": n},
		Timestamp: time.Now(),
	}
}

// Publish sends an event to every interested observer. It never blocks.
func (h *SSEHub) Publish(event ports.TaskEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event: %s", event.Type)
	}
}

// Close stops the hub loop.
func (h *SSEHub) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// HandleSSE streams task events. The optional types query parameter is a
// comma separated event type filter.
func (h *SSEHub) HandleSSE(c *gin.Context) {
	types := make(map[string]bool)
	for _, t := range strings.Split(c.Query("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")

	client := SSEClient{Channel: make(chan ports.TaskEvent, 64), Types: types}

	select {
	case h.register <- client:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- client:
		default:
		}
	}()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-client.Channel:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.Type, string(eventJSON))
			return true

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// ClientCount returns the number of connected observers
func (h *SSEHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

var _ ports.EventPublisher = (*SSEHub)(nil)

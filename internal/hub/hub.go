package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flowpad/internal/metrics"
)

// KeepAlive is how often idle streams receive a comment line
const KeepAlive = 30 * time.Second

// Sequenced is implemented by events that carry a position in their
// publisher's stream. A client drops sequenced events that are not newer
// than the initial message it was sent.
type Sequenced interface {
	Sequence() uint64
}

// message is an encoded event queued for one client
type message struct {
	data      []byte
	seq       uint64
	sequenced bool
}

// Client represents a connected SSE client
type Client struct {
	id     string
	events chan message
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan any
	done       chan struct{}

	initial func() any
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New creates a new Hub. collector may be nil.
func New(logger *zap.Logger, collector *metrics.Collector) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan any, 256),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    collector,
	}
}

// SetInitial installs a function whose result is sent to every client right
// after it connects
func (h *Hub) SetInitial(fn func() any) {
	h.initial = fn
}

// Run starts the hub's event loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.events)
			}
			h.mu.Unlock()
			h.setGauge(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.setGauge(count)
			h.logger.Info("SSE client connected", zap.String("client_id", client.id), zap.Int("total", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.setGauge(count)
			h.logger.Info("SSE client disconnected", zap.String("client_id", client.id), zap.Int("total", count))

		case event := <-h.broadcast:
			data, err := encode(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}
			msg := message{data: data}
			if s, ok := event.(Sequenced); ok {
				msg.seq, msg.sequenced = s.Sequence(), true
			}

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.events <- msg:
				default:
					// Client is slow, skip this message
					h.logger.Warn("SSE client is slow, skipping message", zap.String("client_id", client.id))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event any) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := &Client{
		id:     uuid.NewString(),
		events: make(chan message, 64),
	}

	select {
	case h.register <- client:
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	// The initial state is read after registering so no later event is
	// missed. Events queued before it was read are dropped below.
	var floor uint64
	var hasFloor bool
	fmt.Fprintf(w, ": connected\n\n")
	if h.initial != nil {
		initial := h.initial()
		if s, ok := initial.(Sequenced); ok {
			floor, hasFloor = s.Sequence(), true
		}
		if data, err := encode(initial); err == nil {
			_, _ = w.Write(data)
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if hasFloor && msg.sequenced && msg.seq <= floor {
				continue
			}
			if _, err := w.Write(msg.data); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func (h *Hub) setGauge(n int) {
	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(n))
	}
}

func encode(event any) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
}

package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"stockpulse/internal/infrastructure"
	"stockpulse/pkg/contracts"
	"stockpulse/pkg/contracts/domain"
	"stockpulse/pkg/contracts/events"
)

const (
	// Pending broadcasts kept while the run loop is busy
	broadcastQueueSize = 64

	// Outbound frames buffered per client
	clientQueueSize = 256
)

// outbound is a serialized event waiting to be fanned out
type outbound struct {
	msgType events.MessageType
	payload []byte
}

// Timing controls the keep-alive of every client
type Timing struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
}

// DefaultTiming pings every 54s and drops peers silent for 60s
func DefaultTiming() Timing {
	return Timing{
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
	}
}

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	logger  *slog.Logger
	metrics *OTelMetrics
	timing  Timing

	// datasetInfo describes the installed dataset in connect messages
	datasetInfo func() *domain.DatasetInfo

	// Counters
	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	// Control
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// HubOption customizes a Hub
type HubOption func(*Hub)

// WithHubMetrics records connection and broadcast metrics
func WithHubMetrics(m *OTelMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithTiming overrides DefaultTiming
func WithTiming(t Timing) HubOption {
	return func(h *Hub) {
		if t.PongWait > 0 && t.PingPeriod > 0 && t.PingPeriod < t.PongWait {
			h.timing.PongWait = t.PongWait
			h.timing.PingPeriod = t.PingPeriod
		}
		if t.WriteWait > 0 {
			h.timing.WriteWait = t.WriteWait
		}
	}
}

// WithDatasetInfo sets the source of the dataset shown to new clients
func WithDatasetInfo(fn func() *domain.DatasetInfo) HubOption {
	return func(h *Hub) { h.datasetInfo = fn }
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	hub := &Hub{
		broadcast:  make(chan outbound, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		timing:     DefaultTiming(),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(hub)
	}
	return hub
}

// Start starts the hub's run loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// run owns client membership; every send on a client queue happens here
func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "closed")

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := client.context()
	h.metrics.RecordConnection(ctx)
	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	info := events.ConnectionInfo{
		ClientID: client.id,
		Status:   "connected",
		Version:  contracts.Version,
	}
	if h.datasetInfo != nil {
		info.Dataset = h.datasetInfo()
	}
	data, err := json.Marshal(events.NewMessage(events.MessageTypeConnect, info, client.traceID))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal connect message", slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.WarnContext(ctx, "client buffer full, connect message dropped",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt), reason)
	h.logger.InfoContext(ctx, "client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) fanOut(msg outbound) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	ctx := context.Background()
	var slow []*Client
	for _, client := range clients {
		select {
		case client.send <- msg.payload:
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		h.metrics.RecordDroppedMessage(ctx, "client_buffer_full")
		h.removeClient(client, "slow_consumer")
	}

	h.mu.Lock()
	h.messagesSent += int64(len(clients) - len(slow))
	h.mu.Unlock()

	h.metrics.RecordBroadcast(ctx, string(msg.msgType))
	h.logger.Debug("broadcast delivered",
		slog.String("type", string(msg.msgType)),
		slog.Int("clients", len(clients)),
		slog.Int("dropped", len(slow)),
		slog.Int("payload_size", len(msg.payload)))
}

// Publish broadcasts an event to every connected client. It never blocks;
// when the queue is full the event is dropped and logged.
func (h *Hub) Publish(ctx context.Context, msgType events.MessageType, data interface{}) {
	traceID := infrastructure.GetTraceID(ctx)
	if traceID == "" {
		traceID = infrastructure.TraceIDFromContext(ctx)
	}

	payload, err := json.Marshal(events.NewMessage(msgType, data, traceID))
	if err != nil {
		h.logger.ErrorContext(ctx, "error marshaling event",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- outbound{msgType: msgType, payload: payload}:
	default:
		h.mu.Lock()
		h.messagesDropped++
		h.mu.Unlock()
		h.metrics.RecordDroppedMessage(ctx, "broadcast_queue_full")
		h.logger.WarnContext(ctx, "broadcast queue full, event dropped",
			slog.String("type", string(msgType)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub. It is a no-op once the hub stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop ends the run loop and closes every client queue
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// GetHubMetrics returns current hub counters
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
		"broadcast_queue":   len(h.broadcast),
	}
}

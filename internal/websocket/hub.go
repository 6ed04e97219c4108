// Package websocket streams extraction progress to browser clients. The hub
// fans stage events out to every connected client; slow clients are dropped
// rather than allowed to stall a broadcast.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"demandcli/internal/infrastructure"
)

// Message type constants
const (
	TypeConnection = "connection"
	TypeStage      = "extraction:stage"
	TypeComplete   = "extraction:complete"
	TypeError      = "extraction:error"
)

// Extraction stage names, broadcast in order as a run progresses
const (
	StageLoading     = "loading"
	StageDetecting   = "detecting"
	StageExtracting  = "extracting"
	StageForecasting = "forecasting"
	StageAggregating = "aggregating"
)

// StageEvent is the payload of an extraction:stage message
type StageEvent struct {
	ExtractionID string `json:"extraction_id"`
	Stage        string `json:"stage"`
	Message      string `json:"message,omitempty"`
	Products     int    `json:"products,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Start launches the hub's main loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run processes register, unregister and broadcast events until Stop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := clientContext(client)
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendConnected(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.InfoContext(clientContext(client), "client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					// Buffer full; disconnect rather than block the hub
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()

					h.logger.WarnContext(clientContext(client), "client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
		}
	}
}

func (h *Hub) sendConnected(ctx context.Context, client *Client) {
	msg := envelope{
		Type:      TypeConnection,
		Data:      map[string]any{"status": "connected", "client_id": client.id},
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   client.traceID,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case client.send <- jsonData:
	default:
		h.logger.WarnContext(ctx, "failed to send connection message, client buffer full",
			slog.String("client_id", client.id))
	}
}

// envelope is the wire shape of every hub message
type envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
}

// BroadcastStage notifies clients that an extraction run reached a stage
func (h *Hub) BroadcastStage(ctx context.Context, event StageEvent) {
	h.broadcastJSON(envelope{
		Type:      TypeStage,
		Data:      event,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
}

// BroadcastComplete notifies clients that an extraction run finished
func (h *Hub) BroadcastComplete(ctx context.Context, extractionID string, products int) {
	h.broadcastJSON(envelope{
		Type: TypeComplete,
		Data: map[string]any{
			"extraction_id": extractionID,
			"products":      products,
		},
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
}

// BroadcastError notifies clients that an extraction run failed
func (h *Hub) BroadcastError(ctx context.Context, extractionID, message string) {
	h.broadcastJSON(envelope{
		Type: TypeError,
		Data: map[string]any{
			"extraction_id": extractionID,
			"message":       message,
		},
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
}

func (h *Hub) broadcastJSON(msg envelope) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", msg.Type))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stop gracefully stops the hub and closes all client connections
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	close(h.quit)
}

func clientContext(client *Client) context.Context {
	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}
	return ctx
}

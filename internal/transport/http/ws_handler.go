package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"demandcli/internal/config"
	"demandcli/internal/infrastructure"
	ws "demandcli/internal/websocket"
)

// WSHandler upgrades HTTP connections and hands them to the progress hub
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a websocket handler
func NewWSHandler(hub *ws.Hub, cfg config.WebSocketConfig, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Progress events carry no secrets; the UI may be served
			// from another origin during development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

// ServeHTTP handles GET /ws
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	ws.ServeWS(h.hub, conn, infrastructure.GetTraceID(r.Context()))
}

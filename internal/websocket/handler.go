package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"stockpulse/internal/infrastructure"
)

// HandlerConfig configures the upgrade endpoint
type HandlerConfig struct {
	// AllowedOrigins is checked when a request carries an Origin header.
	// Empty allows every origin.
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// Handler upgrades requests and attaches them to a hub
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates the /ws endpoint
func NewHandler(hub *Hub, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:    hub,
		logger: logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Allow if no origin (same-origin or non-browser client)
			if origin == "" || len(cfg.AllowedOrigins) == 0 {
				return true
			}
			if slices.Contains(cfg.AllowedOrigins, origin) {
				return true
			}
			h.logger.WarnContext(r.Context(), "websocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", cfg.AllowedOrigins))
			return false
		},
	}
	return h
}

// ServeHTTP upgrades the connection and starts the client pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	h.logger.InfoContext(ctx, "websocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("user_agent", r.UserAgent()))

	// Upgrade writes its own error response on failure
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, NewConnectionWrapper(conn), reqID, h.logger)
	h.hub.Register(client)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(ctx, "websocket write pump panic", slog.Any("panic", rec))
			}
		}()
		client.WritePump()
	}()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(ctx, "websocket read pump panic", slog.Any("panic", rec))
			}
		}()
		client.ReadPump()
	}()
}

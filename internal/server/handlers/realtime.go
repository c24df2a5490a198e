package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agentstation/comicmap/internal/server/events"
	"github.com/agentstation/comicmap/internal/server/response"
	ws "github.com/agentstation/comicmap/internal/server/websocket"
)

// HandleWebSocket handles GET /api/v1/updates/ws.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	if !h.wsHub.Register(client) {
		_ = conn.Close()
		return
	}
	h.broker.Publish(events.ClientConnected, map[string]any{
		"client_id": client.ID(),
		"transport": "websocket",
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles GET /api/v1/updates/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}

// HandleNotFound answers unknown routes with the JSON envelope.
func (h *Handlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, "Route not found", r.URL.Path)
}

// HandleMethodNotAllowed answers known routes called with the wrong method.
func (h *Handlers) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusMethodNotAllowed, response.Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+r.Method+" is not supported for this endpoint",
	))
}

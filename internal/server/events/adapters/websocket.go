// Package adapters connects the event broker to the realtime transports.
package adapters

import (
	"github.com/agentstation/comicmap/internal/server/events"
	ws "github.com/agentstation/comicmap/internal/server/websocket"
)

// WebSocketSubscriber forwards broker events to the WebSocket hub.
type WebSocketSubscriber struct {
	hub *ws.Hub
}

// NewWebSocketSubscriber creates a new WebSocket subscriber.
func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Send implements events.Subscriber.
func (w *WebSocketSubscriber) Send(event events.Event) error {
	w.hub.Broadcast(ws.Message{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Data:      event.Data,
	})
	return nil
}

// Close is a no-op; the hub owns its connections.
func (w *WebSocketSubscriber) Close() error {
	return nil
}

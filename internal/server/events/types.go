// Package events fans collection changes out to the realtime transports.
//
// The client's change hooks publish into a Broker; WebSocket and SSE adapters
// subscribe to it so both streams carry the same events.
package events

import "time"

// EventType names a collection event.
type EventType string

// Event types published by the server.
const (
	// Collection changes, from the client hooks.
	ComicAdded   EventType = "comic.added"
	ComicUpdated EventType = "comic.updated"

	// A cycle triggered over HTTP finished.
	CycleCompleted EventType = "cycle.completed"

	// A realtime client connected.
	ClientConnected EventType = "client.connected"
)

// Event is one published change.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Package handlers implements the comicmap HTTP API.
package handlers

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/comicmap"
	"github.com/agentstation/comicmap/internal/server/cache"
	"github.com/agentstation/comicmap/internal/server/events"
	"github.com/agentstation/comicmap/internal/server/sse"
	ws "github.com/agentstation/comicmap/internal/server/websocket"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client         comicmap.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	startTime      time.Time
}

// New creates a new Handlers instance.
func New(
	client comicmap.Client,
	cache *cache.Cache,
	broker *events.Broker,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	startTime time.Time,
) *Handlers {
	return &Handlers{
		client:         client,
		cache:          cache,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		startTime:      startTime,
	}
}

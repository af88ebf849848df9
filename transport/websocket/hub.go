package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/awesome-cap/hashmap"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

// Hub is the registry of connected users. One connection per user; a new connection replaces
// the previous one.
type Hub struct {
	logger  *slog.Logger
	clients *hashmap.HashMap
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: hashmap.New(),
	}
}

func (that *Hub) register(c *client) {
	if previous, ok := that.clients.Get(c.userID); ok {
		previous.(*client).close()
	}
	that.clients.Set(c.userID, c)
}

func (that *Hub) unregister(c *client) {
	if current, ok := that.clients.Get(c.userID); ok && current.(*client) == c {
		that.clients.Del(c.userID)
	}
	c.close()
}

func (that *Hub) client(userID string) (*client, bool) {
	value, ok := that.clients.Get(userID)
	if !ok {
		return nil, false
	}
	return value.(*client), true
}

// Emit queues the event for every connected recipient. Users that are offline or too slow
// to drain their queue miss the event.
func (that *Hub) Emit(_ context.Context, userIDs []string, event entity.Event, payload any) {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	for _, userID := range userIDs {
		c, ok := that.client(userID)
		if !ok {
			continue
		}

		if !c.enqueue(data) {
			that.logger.Warn("event dropped", "event", event, "userID", userID)
		}
	}
}

// Close disconnects every client.
func (that *Hub) Close() {
	that.clients.Foreach(func(e *hashmap.Entry) {
		e.Value().(*client).close()
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"baton/types"
	"baton/websocket"
)

// EventsHandler handles WebSocket subscriptions to session events
type EventsHandler struct {
	hub websocket.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub websocket.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// HandleWebSocket upgrades the connection and subscribes it to one topic
func (h *EventsHandler) HandleWebSocket(c *gin.Context) {
	topic := c.Param("topic")
	switch topic {
	case types.TopicBeat, types.TopicTransport, types.TopicScan, types.TopicAll:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "topic must be one of: beat, transport, scan, all",
		})
		return
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, topic)
	h.hub.RegisterClient(client)

	client.StartPumps()
}

// HandleWebSocketAll subscribes the connection to every topic
func (h *EventsHandler) HandleWebSocketAll(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, types.TopicAll)
	h.hub.RegisterClient(client)

	client.StartPumps()
}

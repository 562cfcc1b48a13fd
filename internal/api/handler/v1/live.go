package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tourvia/groupbooking-api/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production!
	},
}

const (
	liveWriteWait  = 10 * time.Second
	liveMaxMsgSize = 512
)

// subscribeMessage is what clients send over the socket to manage which
// offerings they watch. One connection can watch many offerings.
type subscribeMessage struct {
	Type       string `json:"type"` // "subscribe" or "unsubscribe"
	OfferingID uint   `json:"offeringId"`
}

type liveClient struct {
	connID string
	conn   *websocket.Conn
	events <-chan realtime.Event
	hub    *realtime.Hub
}

type LiveHandler struct {
	hub *realtime.Hub
}

func NewLiveHandler(hub *realtime.Hub) *LiveHandler {
	return &LiveHandler{
		hub: hub,
	}
}

// HandleLive godoc
// @Summary      Open the live group-events stream
// @Description  Upgrades to a WebSocket; clients then send subscribe/unsubscribe messages per offering.
// @Tags         offerings
// @Produce      json
// @Success      101      {string}   string "Switching Protocols to WebSocket"
// @Failure      401      {object}   response.Err
// @Router       /offerings/live [get]
// @Security     BearerAuth
func (h *LiveHandler) HandleLive(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))

		return
	}

	connID := uuid.NewString()
	client := &liveClient{
		connID: connID,
		conn:   conn,
		events: h.hub.Register(connID),
		hub:    h.hub,
	}

	go client.writePump()
	go client.readPump()
}

// readPump consumes subscription messages until the peer goes away, then
// tears the connection down on the hub side as well.
func (c *liveClient) readPump() {
	defer func() {
		c.hub.ConnectionClosed(c.connID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(liveMaxMsgSize)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read failed", zap.String("conn_id", c.connID), zap.Error(err))
			}

			break
		}

		var msg subscribeMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.OfferingID == 0 {
			continue
		}

		switch msg.Type {
		case "subscribe":
			c.hub.Subscribe(c.connID, msg.OfferingID)
		case "unsubscribe":
			c.hub.Unsubscribe(c.connID, msg.OfferingID)
		}
	}
}

// writePump drains the hub channel onto the socket. The channel closing
// means the hub dropped the connection; a clean close frame follows.
func (c *liveClient) writePump() {
	defer c.conn.Close()

	for evt := range c.events {
		payload, err := json.Marshal(evt)
		if err != nil {
			zap.L().Error("failed to marshal event", zap.Error(err))

			continue
		}

		c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}

	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

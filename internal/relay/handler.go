package relay

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/bootstrap"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/config"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/response"
)

// Handler serves the allocation endpoint and the channel sockets.
type Handler struct {
	relay    *Relay
	hub      *Hub
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewHandler(relay *Relay, hub *Hub, wsCfg config.WebSocketConfig) *Handler {
	return &Handler{
		relay: relay,
		hub:   hub,
		wsCfg: wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: wsCfg.HandshakeTimeout,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST(bootstrap.EndpointPath, h.AllocateChannel)
	r.GET("/"+h.relay.prefix+"/:channel", h.Connect)
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "no such route")
	})
}

func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// AllocateChannel answers with the socket fragment of the relay's channel.
func (h *Handler) AllocateChannel(c *gin.Context) {
	l := log.Ctx(c.Request.Context())
	c.Set(log.FieldChannel, h.relay.ChannelID())

	socket := h.relay.Socket()
	l.Debug().Str("socket", socket).Msg("channel allocated")
	c.JSON(http.StatusOK, bootstrap.ChannelResponse{Socket: socket})
}

// Connect upgrades the request and joins the connection to the channel
// named by the path.
func (h *Handler) Connect(c *gin.Context) {
	channelID := c.Param("channel")
	c.Set(log.FieldChannel, channelID)
	l := log.Ctx(c.Request.Context())

	if !websocket.IsWebSocketUpgrade(c.Request) {
		response.BadRequest(c, "websocket upgrade required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New().String()
	logger := l.With().Str(log.FieldClientID, id).Str(log.FieldChannel, channelID).Logger()
	client := NewClient(id, channelID, h.hub, conn, h.wsCfg, logger)

	if !h.hub.Register(client) {
		logger.Warn().Msg("relay stopping, connection refused")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.handleFrame)
}

func (h *Handler) handleFrame(client *Client, frame Frame) {
	ctx := log.WithLogger(context.Background(), client.logger)
	if err := h.relay.Publish(ctx, client.ChannelID, frame); err != nil {
		client.logger.Warn().Err(err).Int(log.FieldBytes, len(frame.Data)).Msg("failed to relay frame")
	}
}

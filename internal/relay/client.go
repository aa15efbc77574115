package relay

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/config"
)

// Client is one WebSocket connection joined to a chat channel.
type Client struct {
	ID        string
	ChannelID string

	hub    *Hub
	conn   *websocket.Conn
	send   chan Frame
	cfg    config.WebSocketConfig
	logger zerolog.Logger
}

func NewClient(id, channelID string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig, logger zerolog.Logger) *Client {
	return &Client{
		ID:        id,
		ChannelID: channelID,
		hub:       hub,
		conn:      conn,
		send:      make(chan Frame, cfg.SendBuffer),
		cfg:       cfg,
		logger:    logger,
	}
}

// ReadPump hands every data frame to handler until the connection fails.
func (c *Client) ReadPump(handler func(*Client, Frame)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))

		handler(c, Frame{Kind: kind, Data: data})
	}
}

// WritePump writes queued frames and keepalive pings. It sends a going-away
// close frame once the hub drops the client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(frame.Kind, frame.Data); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package relay

import (
	"context"
	"sync"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
)

// Frame is one WebSocket data frame relayed verbatim.
type Frame struct {
	Kind int // websocket.TextMessage or websocket.BinaryMessage
	Data []byte
}

type channelFrame struct {
	ChannelID string
	Frame     Frame
}

// Hub tracks connected clients per chat channel and fans frames out to them.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	channels   map[string]map[string]*Client // channelID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *channelFrame
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *channelFrame, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	l := log.Ctx(ctx)
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.channels = make(map[string]map[string]*Client)
			h.mu.Unlock()
			l.Info().Msg("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			if _, ok := h.channels[client.ChannelID]; !ok {
				h.channels[client.ChannelID] = make(map[string]*Client)
			}
			h.channels[client.ChannelID][client.ID] = client
			h.mu.Unlock()
			l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldChannel, client.ChannelID).Msg("client joined channel")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				if members, ok := h.channels[client.ChannelID]; ok {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.channels, client.ChannelID)
					}
				}
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
			l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldChannel, client.ChannelID).Msg("client left channel")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.channels[msg.ChannelID] {
				select {
				case client.send <- msg.Frame:
				default:
					l.Warn().Str(log.FieldClientID, client.ID).Msg("client too slow, disconnecting")
					go h.Unregister(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds client to its channel. It reports false once the hub stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues frame for every client of channelID, the sender included.
func (h *Hub) Broadcast(channelID string, frame Frame) {
	select {
	case h.broadcast <- &channelFrame{ChannelID: channelID, Frame: frame}:
	case <-h.done:
	}
}

// ClientCount returns the number of clients joined to channelID.
func (h *Hub) ClientCount(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelID])
}

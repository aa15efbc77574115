package relay

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/config"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/pubsub"
)

// Relay allocates the chat channel and moves frames between clients and the
// pub/sub bus. Every frame a client sends is published; every published
// frame, from this instance or another, is broadcast by the hub.
type Relay struct {
	hub       *Hub
	ps        pubsub.PubSub
	origin    string
	prefix    string
	channelID string
}

// New creates a Relay. An empty cfg.ChannelID allocates a fresh uuid.
func New(hub *Hub, ps pubsub.PubSub, cfg config.ChannelConfig) *Relay {
	channelID := cfg.ChannelID
	if channelID == "" {
		channelID = uuid.New().String()
	}
	return &Relay{
		hub:       hub,
		ps:        ps,
		origin:    uuid.New().String(),
		prefix:    cfg.SocketPrefix,
		channelID: channelID,
	}
}

// ChannelID returns the channel handed out by the allocation endpoint.
func (r *Relay) ChannelID() string {
	return r.channelID
}

// Socket returns the path fragment clients connect to.
func (r *Relay) Socket() string {
	return r.prefix + "/" + r.channelID
}

// Start subscribes to frame fan-out and runs the hub until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	events, err := r.ps.SubscribePattern(ctx, pubsub.PatternFrames)
	if err != nil {
		return fmt.Errorf("failed to subscribe to frames: %w", err)
	}

	go r.hub.Run(ctx)
	go r.forward(ctx, events)

	l := log.Ctx(ctx)
	l.Info().Str(log.FieldChannel, r.channelID).Str("origin", r.origin).Msg("relay started")
	return nil
}

// Publish hands a client frame to every relay instance sharing the bus.
func (r *Relay) Publish(ctx context.Context, channelID string, frame Frame) error {
	channel := pubsub.FramesChannel(channelID)
	event, err := pubsub.NewEvent(pubsub.EventFrame, channel, pubsub.FramePayload{
		ChannelID: channelID,
		Origin:    r.origin,
		Kind:      frame.Kind,
		Data:      frame.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode frame event: %w", err)
	}
	if err := r.ps.Publish(ctx, channel, event); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}

func (r *Relay) forward(ctx context.Context, events <-chan *pubsub.Event) {
	l := log.Ctx(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Type != pubsub.EventFrame {
				continue
			}

			var payload pubsub.FramePayload
			if err := event.UnmarshalPayload(&payload); err != nil {
				l.Warn().Err(err).Str(log.FieldChannel, event.Channel).Msg("failed to decode frame event")
				continue
			}
			if payload.ChannelID == "" {
				id, err := pubsub.ChannelIDFromFrames(event.Channel)
				if err != nil {
					l.Warn().Err(err).Msg("frame event without channel")
					continue
				}
				payload.ChannelID = id
			}

			r.hub.Broadcast(payload.ChannelID, Frame{Kind: payload.Kind, Data: payload.Data})
		}
	}
}

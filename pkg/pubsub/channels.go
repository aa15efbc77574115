package pubsub

import (
	"fmt"
	"strings"
)

// Channel naming for relayed chat frames.
const (
	ChannelFrames = "tauchat:channel:%s:frames"
	PatternFrames = "tauchat:channel:*:frames"
)

// Event types carried on frame channels.
const (
	EventFrame = "frame"
)

// FramesChannel returns the channel relaying frames of one chat channel.
func FramesChannel(channelID string) string {
	return fmt.Sprintf(ChannelFrames, channelID)
}

// ChannelIDFromFrames extracts the chat channel id from a frames channel name.
func ChannelIDFromFrames(channel string) (string, error) {
	rest, ok := strings.CutPrefix(channel, "tauchat:channel:")
	if !ok {
		return "", fmt.Errorf("invalid frames channel: %s", channel)
	}
	id, ok := strings.CutSuffix(rest, ":frames")
	if !ok || id == "" {
		return "", fmt.Errorf("invalid frames channel: %s", channel)
	}
	return id, nil
}

// FramePayload is a relayed WebSocket frame.
type FramePayload struct {
	ChannelID string `json:"channel_id"`
	Origin    string `json:"origin"` // relay instance that received the frame
	Kind      int    `json:"kind"` // WebSocket frame opcode
	Data      []byte `json:"data"`
}

// matchPattern supports the single '*' wildcard used by PatternFrames.
func matchPattern(pattern, channel string) bool {
	prefix, suffix, ok := strings.Cut(pattern, "*")
	if !ok {
		return pattern == channel
	}
	return len(channel) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(channel, prefix) &&
		strings.HasSuffix(channel, suffix)
}

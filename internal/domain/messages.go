package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// ChannelTarget is the resolved streaming address of one allocated channel.
type ChannelTarget struct {
	Address string
}

func (t ChannelTarget) String() string {
	return t.Address
}

// ChatMessage is one chat line, either authored locally or decoded from a frame.
type ChatMessage struct {
	Sender string
	Body   string
	SentAt int64 // milliseconds since epoch
}

// NewChatMessage stamps body with sender and the given time.
func NewChatMessage(sender, body string, at time.Time) ChatMessage {
	return ChatMessage{
		Sender: sender,
		Body:   body,
		SentAt: at.UnixMilli(),
	}
}

// Time returns SentAt as a time.Time.
func (m ChatMessage) Time() time.Time {
	return time.UnixMilli(m.SentAt)
}

// AuthoredBy reports whether identity wrote m. Only the display name is
// compared, so two participants sharing a name both match.
func (m ChatMessage) AuthoredBy(identity string) bool {
	return m.Sender == identity
}

// Frame is the wire representation of a ChatMessage in both directions.
type Frame struct {
	Sender    string    `json:"sender"`
	Msg       string    `json:"msg"`
	Timestamp Timestamp `json:"timestamp"`
}

// Timestamp is milliseconds since epoch, encoded as a decimal string.
// Bare JSON numbers are accepted when decoding.
type Timestamp int64

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(ts), 10))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", string(data), err)
	}
	*ts = Timestamp(n)
	return nil
}

// EncodeFrame serializes m into a UTF-8 JSON text frame.
func EncodeFrame(m ChatMessage) ([]byte, error) {
	data, err := json.Marshal(Frame{
		Sender:    m.Sender,
		Msg:       m.Body,
		Timestamp: Timestamp(m.SentAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	return data, nil
}

// DecodeFrame turns one inbound frame into a ChatMessage in two stages:
// raw bytes to UTF-8 text, then text to the structured frame. The returned
// error is always a *FrameDecodeError naming the stage that failed.
func DecodeFrame(data []byte) (ChatMessage, error) {
	text, err := decodeText(data)
	if err != nil {
		return ChatMessage{}, &FrameDecodeError{Stage: StageText, Size: len(data), Err: err}
	}

	frame, err := decodeJSON(text)
	if err != nil {
		return ChatMessage{}, &FrameDecodeError{Stage: StageJSON, Size: len(data), Err: err}
	}

	return ChatMessage{
		Sender: frame.Sender,
		Body:   frame.Msg,
		SentAt: int64(frame.Timestamp),
	}, nil
}

func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

func decodeJSON(text string) (*Frame, error) {
	var frame *Frame
	if err := json.Unmarshal([]byte(text), &frame); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, ErrEmptyFrame
	}
	return frame, nil
}

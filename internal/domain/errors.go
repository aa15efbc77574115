package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEndpointUnavailable = errors.New("chat endpoint unavailable")
	ErrSessionClosed       = errors.New("session closed")
	ErrNotOpen             = errors.New("session not open")
	ErrSendQueueFull       = errors.New("send queue full")
	ErrMessageTooLarge     = errors.New("message exceeds frame size limit")
	ErrInvalidUTF8         = errors.New("frame is not valid UTF-8")
	ErrEmptyFrame          = errors.New("frame is empty")
)

// Decode stages of an inbound frame.
const (
	StageText = "text"
	StageJSON = "json"
)

// FrameDecodeError reports one inbound frame that could not be decoded.
// The frame is dropped; the session keeps running.
type FrameDecodeError struct {
	Stage string
	Size  int
	Err   error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("failed to decode frame (%s stage, %d bytes): %v", e.Stage, e.Size, e.Err)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Err
}

// TransportError wraps a socket-level failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

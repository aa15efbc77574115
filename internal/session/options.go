package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/config"
)

// Dialer opens the WebSocket transport. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// errorBuffer bounds undelivered error notifications; older ones are kept.
const errorBuffer = 16

// DefaultConfig mirrors the defaults of internal/config.
func DefaultConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PongWait:         60 * time.Second,
		WriteWait:        10 * time.Second,
		MaxMessageSize:   64 << 10,
		SendBuffer:       256,
	}
}

func withDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	def := DefaultConfig()
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	return cfg
}

type Option func(*Session)

// WithConfig sets transport timings and limits.
func WithConfig(cfg config.WebSocketConfig) Option {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// WithDialer replaces the default gorilla dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithClock sets the time source used to stamp outgoing messages.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func newDialer(cfg config.WebSocketConfig) *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
}

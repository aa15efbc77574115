package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	pkgconfig "github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/config"
	pkglog "github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/pubsub"
)

var validate = validator.New()

// DefaultHosts maps a local client hostname to the public relay that serves it.
var DefaultHosts = map[string]string{
	"localhost": "yz3dacrr0.g.tau.link",
}

type ClientConfig struct {
	Endpoint  EndpointConfig
	Client    ClientHostConfig
	Hosts     []HostMapping `validate:"dive"`
	WebSocket WebSocketConfig
	Log       pkglog.Config
}

// HostMapping sends clients running on Client to the relay at Relay.
// Hostnames contain dots, which viper treats as key separators, so the
// mapping is a list rather than a map.
type HostMapping struct {
	Client string `validate:"required"`
	Relay  string `validate:"required"`
}

// HostMap returns the mappings keyed by lower-cased client hostname.
func (c *ClientConfig) HostMap() map[string]string {
	out := make(map[string]string, len(c.Hosts))
	for _, h := range c.Hosts {
		out[strings.ToLower(h.Client)] = h.Relay
	}
	return out
}

type EndpointConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

type ClientHostConfig struct {
	// Host is the client's own host (host[:port]), the value a browser
	// would report as location.host.
	Host string `validate:"required"`
}

type WebSocketConfig struct {
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" validate:"gt=0"`
	PingInterval     time.Duration `mapstructure:"ping_interval" validate:"gt=0"`
	PongWait         time.Duration `mapstructure:"pong_wait" validate:"gtfield=PingInterval"`
	WriteWait        time.Duration `mapstructure:"write_wait" validate:"gt=0"`
	MaxMessageSize   int64         `mapstructure:"max_message_size" validate:"gt=0"`
	SendBuffer       int           `mapstructure:"send_buffer" validate:"gt=0"`
}

type RelayConfig struct {
	Server    ServerConfig
	Relay     ChannelConfig
	WebSocket WebSocketConfig
	PubSub    pubsub.Config
	Log       pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int `validate:"gt=0,lte=65535"`
}

type ChannelConfig struct {
	SocketPrefix string `mapstructure:"socket_prefix" validate:"required"`
	// ChannelID pins the allocated channel; empty means a fresh uuid per process.
	ChannelID string `mapstructure:"channel_id"`
}

func setWebSocketDefaults(v *viper.Viper) {
	v.SetDefault("websocket.handshake_timeout", "10s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 64<<10)
	v.SetDefault("websocket.send_buffer", 256)
}

func parseWebSocketDurations(v *viper.Viper, cfg *WebSocketConfig) {
	cfg.HandshakeTimeout = pkgconfig.Duration(v, "websocket.handshake_timeout", 10*time.Second)
	cfg.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
}

// LoadClient reads tauchat.yaml and the environment.
func LoadClient(paths ...string) (*ClientConfig, error) {
	v, err := pkgconfig.Load("tauchat", paths...)
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("endpoint.base_url", "http://localhost:8088")
	v.SetDefault("endpoint.timeout", "10s")
	v.SetDefault("client.host", "localhost")
	v.SetDefault("hosts", defaultHostList())
	setWebSocketDefaults(v)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.pretty", true)
	v.SetDefault("log.component", "tauchat")

	// Override from environment
	v.BindEnv("endpoint.base_url", "ENDPOINT_BASE_URL")
	v.BindEnv("client.host", "CLIENT_HOST")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client config: %w", err)
	}

	cfg.Endpoint.Timeout = pkgconfig.Duration(v, "endpoint.timeout", 10*time.Second)
	parseWebSocketDurations(v, &cfg.WebSocket)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return &cfg, nil
}

// LoadRelay reads relay.yaml and the environment.
func LoadRelay(paths ...string) (*RelayConfig, error) {
	v, err := pkgconfig.Load("relay", paths...)
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8088)
	v.SetDefault("relay.socket_prefix", "pubsub")
	v.SetDefault("relay.channel_id", "")
	setWebSocketDefaults(v)
	v.SetDefault("pubsub.driver", pubsub.DriverMemory)
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.password", "")
	v.SetDefault("pubsub.redis.db", 0)
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", "3s")
	v.SetDefault("pubsub.redis.write_timeout", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.component", "tauchat-relay")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("relay.channel_id", "RELAY_CHANNEL_ID")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg RelayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal relay config: %w", err)
	}

	parseWebSocketDurations(v, &cfg.WebSocket)
	cfg.PubSub.Redis.ReadTimeout = pkgconfig.Duration(v, "pubsub.redis.read_timeout", 3*time.Second)
	cfg.PubSub.Redis.WriteTimeout = pkgconfig.Duration(v, "pubsub.redis.write_timeout", 3*time.Second)
	cfg.Relay.SocketPrefix = strings.Trim(cfg.Relay.SocketPrefix, "/")

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid relay config: %w", err)
	}
	return &cfg, nil
}

func defaultHostList() []map[string]string {
	list := make([]map[string]string, 0, len(DefaultHosts))
	for client, relay := range DefaultHosts {
		list = append(list, map[string]string{"client": client, "relay": relay})
	}
	return list
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/pubsub"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := LoadClient(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8088", cfg.Endpoint.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Endpoint.Timeout)
	require.Equal(t, "localhost", cfg.Client.Host)
	require.Equal(t, map[string]string{"localhost": "yz3dacrr0.g.tau.link"}, cfg.HostMap())
	require.Equal(t, 30*time.Second, cfg.WebSocket.PingInterval)
	require.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
	require.Equal(t, int64(64<<10), cfg.WebSocket.MaxMessageSize)
	require.Equal(t, 256, cfg.WebSocket.SendBuffer)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadClient_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tauchat.yaml", `
endpoint:
  base_url: http://alloc.internal:9000
  timeout: 3s
hosts:
  - client: Dev.Local
    relay: relay.example.com
websocket:
  ping_interval: 5s
  pong_wait: 15s
`)
	t.Setenv("CLIENT_HOST", "dev.local:3000")

	cfg, err := LoadClient(dir)
	require.NoError(t, err)

	require.Equal(t, "http://alloc.internal:9000", cfg.Endpoint.BaseURL)
	require.Equal(t, 3*time.Second, cfg.Endpoint.Timeout)
	require.Equal(t, "dev.local:3000", cfg.Client.Host)
	require.Equal(t, map[string]string{"dev.local": "relay.example.com"}, cfg.HostMap())
	require.Equal(t, 5*time.Second, cfg.WebSocket.PingInterval)
	require.Equal(t, 15*time.Second, cfg.WebSocket.PongWait)
}

func TestLoadClient_Invalid(t *testing.T) {
	t.Setenv("ENDPOINT_BASE_URL", "not a url")

	_, err := LoadClient(t.TempDir())
	require.Error(t, err)
}

func TestLoadClient_IncompleteHostMapping(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tauchat.yaml", `
hosts:
  - client: localhost
`)

	_, err := LoadClient(dir)
	require.Error(t, err)
}

func TestLoadClient_PongWaitMustExceedPing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tauchat.yaml", `
websocket:
  ping_interval: 30s
  pong_wait: 10s
`)

	_, err := LoadClient(dir)
	require.Error(t, err)
}

func TestLoadRelay_Defaults(t *testing.T) {
	cfg, err := LoadRelay(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8088, cfg.Server.Port)
	require.Equal(t, "pubsub", cfg.Relay.SocketPrefix)
	require.Empty(t, cfg.Relay.ChannelID)
	require.Equal(t, pubsub.DriverMemory, cfg.PubSub.Driver)
	require.Equal(t, 3*time.Second, cfg.PubSub.Redis.ReadTimeout)
	require.Equal(t, "tauchat-relay", cfg.Log.Component)
}

func TestLoadRelay_Env(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "relay.yaml", `
relay:
  socket_prefix: /chat/
`)
	t.Setenv("PORT", "9100")
	t.Setenv("RELAY_CHANNEL_ID", "abc123")
	t.Setenv("PUBSUB_DRIVER", "redis")
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg, err := LoadRelay(dir)
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "chat", cfg.Relay.SocketPrefix)
	require.Equal(t, "abc123", cfg.Relay.ChannelID)
	require.Equal(t, pubsub.DriverRedis, cfg.PubSub.Driver)
	require.Equal(t, "redis:6379", cfg.PubSub.Redis.Address)
}

func TestLoadRelay_UnknownDriver(t *testing.T) {
	t.Setenv("PUBSUB_DRIVER", "kafka")

	_, err := LoadRelay(t.TempDir())
	require.Error(t, err)
}

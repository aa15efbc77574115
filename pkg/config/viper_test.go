package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	v, err := Load("does-not-exist", t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, v)
}

func TestLoad_ReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "endpoint:\n  base_url: http://files.example\nwebsocket:\n  write_wait: 3s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tauchat.yaml"), []byte(yaml), 0o600))

	t.Setenv("WEBSOCKET_PING_INTERVAL", "7s")

	v, err := Load("tauchat", dir)
	require.NoError(t, err)
	require.Equal(t, "http://files.example", v.GetString("endpoint.base_url"))
	require.Equal(t, 3*time.Second, Duration(v, "websocket.write_wait", time.Second))
	require.Equal(t, 7*time.Second, Duration(v, "websocket.ping_interval", time.Second))
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("a: [unterminated"), 0o600))

	_, err := Load("broken", dir)
	require.Error(t, err)
}

func TestDuration_FallsBack(t *testing.T) {
	v, err := Load("does-not-exist", t.TempDir())
	require.NoError(t, err)
	v.Set("x", "not-a-duration")
	require.Equal(t, 5*time.Second, Duration(v, "x", 5*time.Second))
	require.Equal(t, 5*time.Second, Duration(v, "missing", 5*time.Second))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TAUCHAT_TEST_VALUE", "set")
	require.Equal(t, "set", GetEnv("TAUCHAT_TEST_VALUE", "default"))
	require.Equal(t, "default", GetEnv("TAUCHAT_TEST_UNSET_VALUE", "default"))
}

package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/domain"
)

var defaultHosts = HostMap{"localhost": "yz3dacrr0.g.tau.link"}

func TestHostMap_Resolve(t *testing.T) {
	require.Equal(t, "yz3dacrr0.g.tau.link", defaultHosts.Resolve("localhost"))
	require.Equal(t, "yz3dacrr0.g.tau.link", defaultHosts.Resolve("localhost:3000"))
	require.Equal(t, "yz3dacrr0.g.tau.link", defaultHosts.Resolve("LOCALHOST"))
	require.Equal(t, "example.com", defaultHosts.Resolve("example.com"))
	require.Equal(t, "example.com:8443", defaultHosts.Resolve("example.com:8443"))
	require.Equal(t, "localhost", HostMap(nil).Resolve("localhost"))
}

func TestAddress(t *testing.T) {
	require.Equal(t, "ws://yz3dacrr0.g.tau.link/abc123", Address(defaultHosts.Resolve("localhost"), "abc123"))
	require.Equal(t, "ws://example.com/xyz", Address(defaultHosts.Resolve("example.com"), "xyz"))
}

func allocationServer(t *testing.T, calls *int32, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Method != http.MethodPost || r.URL.Path != EndpointPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveChannel_LocalhostMapping(t *testing.T) {
	var calls int32
	srv := allocationServer(t, &calls, http.StatusOK, `{"socket":"abc123"}`)

	r := NewResolver(srv.URL, "localhost", defaultHosts, time.Second)
	target, err := r.ResolveChannel(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ws://yz3dacrr0.g.tau.link/abc123", target.Address)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolveChannel_UnmappedHost(t *testing.T) {
	var calls int32
	srv := allocationServer(t, &calls, http.StatusOK, `{"socket":"xyz"}`)

	r := NewResolver(srv.URL+"/", "example.com", defaultHosts, time.Second)
	target, err := r.ResolveChannel(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ws://example.com/xyz", target.Address)
}

func TestResolveChannel_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"socket":"abc"}`},
		{"not found", http.StatusNotFound, ``},
		{"malformed json", http.StatusOK, `{"socket":`},
		{"missing socket", http.StatusOK, `{"channel":"abc"}`},
		{"empty socket", http.StatusOK, `{"socket":""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			srv := allocationServer(t, &calls, tc.status, tc.body)

			r := NewResolver(srv.URL, "localhost", defaultHosts, time.Second)
			target, err := r.ResolveChannel(context.Background())
			require.ErrorIs(t, err, domain.ErrEndpointUnavailable)
			require.Empty(t, target.Address)
			require.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retries")
		})
	}
}

func TestResolveChannel_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewResolver(url, "localhost", defaultHosts, time.Second)
	_, err := r.ResolveChannel(context.Background())
	require.ErrorIs(t, err, domain.ErrEndpointUnavailable)
}

func TestResolveChannel_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, "localhost", defaultHosts, 50*time.Millisecond)
	_, err := r.ResolveChannel(context.Background())
	require.ErrorIs(t, err, domain.ErrEndpointUnavailable)
}

func TestResolveChannel_WithHTTPClient(t *testing.T) {
	var calls int32
	srv := allocationServer(t, &calls, http.StatusOK, `{"socket":"abc"}`)

	r := NewResolver(srv.URL, "example.com", nil, time.Second, WithHTTPClient(srv.Client()))
	target, err := r.ResolveChannel(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ws://example.com/abc", target.Address)
}

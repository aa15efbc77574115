package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/domain"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
)

// EndpointPath is the allocation route on the backend.
const EndpointPath = "/chatendpoint"

// maxResponseBytes bounds the allocation response body.
const maxResponseBytes = 64 << 10

// ChannelResponse is the allocation backend's reply.
type ChannelResponse struct {
	Socket string `json:"socket"`
}

// Resolver asks the allocation backend for a channel and turns the answer
// into a streaming address.
type Resolver struct {
	baseURL    string
	clientHost string
	hosts      HostMap
	httpClient *http.Client
}

type Option func(*Resolver)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// NewResolver creates a Resolver posting to baseURL + EndpointPath.
// clientHost is the host the client itself runs on.
func NewResolver(baseURL, clientHost string, hosts HostMap, timeout time.Duration, opts ...Option) *Resolver {
	r := &Resolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientHost: clientHost,
		hosts:      hosts,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveChannel issues exactly one allocation request and builds the target.
// Every failure wraps domain.ErrEndpointUnavailable.
func (r *Resolver) ResolveChannel(ctx context.Context) (domain.ChannelTarget, error) {
	l := log.Ctx(ctx)
	url := r.baseURL + EndpointPath

	resp, err := r.allocate(ctx, url)
	if err != nil {
		l.Error().Err(err).Str(log.FieldEndpoint, url).Msg("channel allocation failed")
		return domain.ChannelTarget{}, err
	}

	target := domain.ChannelTarget{Address: Address(r.hosts.Resolve(r.clientHost), resp.Socket)}
	l.Info().Str(log.FieldEndpoint, url).Str(log.FieldAddress, target.Address).Msg("channel resolved")
	return target, nil
}

func (r *Resolver) allocate(ctx context.Context, url string) (*ChannelResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrEndpointUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: endpoint returned status %d", domain.ErrEndpointUnavailable, resp.StatusCode)
	}

	var body ChannelResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrEndpointUnavailable, err)
	}
	if body.Socket == "" {
		return nil, fmt.Errorf("%w: response has no socket", domain.ErrEndpointUnavailable)
	}

	return &body, nil
}

// Address joins the resolved host and the allocated socket fragment.
func Address(host, socket string) string {
	return fmt.Sprintf("ws://%s/%s", host, socket)
}

// Copyright 2026 FoodBlock Protocol
//
// Outbound HTTP client for peer federation
package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/logging"
)

// Client makes outbound federation calls to peers (§4.8). One Client
// serves every peer; peer_url varies per call.
type Client struct {
	http   *http.Client
	logger *logging.Logger
}

// NewClient returns a Client with the §5 15s-per-round-trip federation
// timeout.
func NewClient() *Client {
	return &Client{
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logging.New("Federation", logging.LevelInfo),
	}
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("federation: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("federation: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("federation: request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("federation: %s returned status %d", url, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("federation: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("federation: request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("federation: %s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FetchDiscovery retrieves and parses a peer's discovery document.
func (c *Client) FetchDiscovery(ctx context.Context, peerURL string) (*Discovery, error) {
	var d Discovery
	if err := c.getJSON(ctx, peerURL+"/.well-known/foodblock", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Handshake performs the §4.8 POST /handshake exchange.
func (c *Client) Handshake(ctx context.Context, peerURL string, req HandshakeRequest) (*HandshakeRequest, error) {
	var resp HandshakeRequest
	if err := c.postJSON(ctx, peerURL+"/.well-known/foodblock/handshake", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Push sends blocks to a peer (§4.8 POST /push).
func (c *Client) Push(ctx context.Context, peerURL string, req PushRequest) (*PushResult, error) {
	var resp PushResult
	if err := c.postJSON(ctx, peerURL+"/.well-known/foodblock/push", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pull fetches blocks from a peer since a cursor (§4.8 POST /pull).
func (c *Client) Pull(ctx context.Context, peerURL string, req PullRequest) (*PullResult, error) {
	var resp PullResult
	if err := c.postJSON(ctx, peerURL+"/.well-known/foodblock/pull", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

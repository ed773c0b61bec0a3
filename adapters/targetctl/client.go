package targetctl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"centerout/internal/errors"
	"centerout/ports"
)

// Client reads the target hint from a running Server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A zero timeout means two seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CurrentTarget fetches the hint for the next outward trial.
func (c *Client) CurrentTarget(ctx context.Context) (int, error) {
	return c.do(ctx, http.MethodGet, "/tgt")
}

// Next asks the server to advance the hint and returns the new target.
func (c *Client) Next(ctx context.Context) (int, error) {
	return c.do(ctx, http.MethodPost, "/tgt/next")
}

func (c *Client) do(ctx context.Context, method, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.ExternalServiceError("targets", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.ExternalServiceError("targets", fmt.Errorf("status %d", resp.StatusCode))
	}
	var body targetBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, errors.ExternalServiceError("targets", err)
	}
	return body.Tgt, nil
}

var _ ports.TargetRequester = (*Client)(nil)

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dm/motion-go/internal/model"
)

// MotionClient posts readings to a motion ingress endpoint.
type MotionClient interface {
	PostSample(ctx context.Context, s model.Sample) error
	Ping(ctx context.Context) error
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements MotionClient using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	config ClientConfig
}

const (
	endpointMotion = "/motion"
	endpointHealth = "/healthz"
)

// NewDefaultClient constructs a DefaultClient from the given config.
// It configures TLS skip-verify and request timeout from the config.
// Returns an error if BaseURL is empty.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	return &DefaultClient{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		config: cfg,
	}, nil
}

// BaseURL returns the configured base URL of the ingress endpoint.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// motionPayload is the wire form of a reading. The receiver stamps the time.
type motionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PostSample sends one reading as JSON to /motion.
func (c *DefaultClient) PostSample(ctx context.Context, s model.Sample) error {
	body, err := json.Marshal(motionPayload{X: s.X, Y: s.Y, Z: s.Z})
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, endpointMotion, bytes.NewReader(body))
	return err
}

// Ping checks that the endpoint is up by calling /healthz with a 1s timeout.
func (c *DefaultClient) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	_, err := c.do(pingCtx, http.MethodGet, endpointHealth, nil)
	return err
}

// do performs a request to the given path (relative to BaseURL).
// Returns the response body bytes or an error on non-2xx status.
func (c *DefaultClient) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	const maxResponseBytes = 64 * 1024
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

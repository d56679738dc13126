// Package payload delivers normalized records to the collector endpoint.
package payload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadrelay/internal/config"
	"leadrelay/internal/logger"
)

// Delivery errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrEmptyEndpoint        = errors.New("endpoint is empty")
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"

	// maxResponseBytes bounds what is kept of a collector response.
	maxResponseBytes = 512
)

// Client defines the interface for posting one encoded record.
type Client interface {
	Submit(ctx context.Context, endpoint, body string) (string, error)
}

// Ensure FormClient implements Client.
var _ Client = (*FormClient)(nil)

// FormClient posts form-encoded bodies over HTTP.
type FormClient struct {
	httpClient *http.Client
	userAgent  string
	logger     *logger.Logger
}

// NewFormClient creates a client from the delivery configuration.
func NewFormClient(cfg config.DeliveryConfig, log *logger.Logger) *FormClient {
	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultTimeoutSec) * time.Second
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}

	return &FormClient{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  ua,
		logger:     log,
	}
}

// Submit posts body to endpoint and returns the (truncated) response body.
// Any 2xx status is a success.
func (c *FormClient) Submit(ctx context.Context, endpoint, body string) (respBody string, err error) {
	if endpoint == "" {
		return "", ErrEmptyEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return string(data), fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, string(data))
	}

	if c.logger != nil {
		c.logger.Debug("Collector responded", "status", resp.StatusCode, "bytes", len(data))
	}

	return string(data), nil
}

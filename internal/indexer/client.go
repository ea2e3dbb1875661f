package indexer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CallResult is the transient outcome of one outbound call attempt.
// It lives only for the duration of one message's processing.
type CallResult struct {
	HTTPStatus *int
	LatencyMs  int
	Err        error
}

// Client issues the outbound Milliner calls. All pipelines share one
// client; the transport's connection limit bounds the number of
// simultaneously in-flight calls and is the system's backpressure,
// sized independently of message concurrency.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds the shared outbound client. poolSize caps
// connections per downstream host; timeout bounds each attempt, after
// which the attempt is classified as transient.
func NewClient(timeout time.Duration, poolSize int, logger *zap.Logger) *Client {
	transport := &http.Transport{
		MaxConnsPerHost:     poolSize,
		MaxIdleConns:        poolSize,
		MaxIdleConnsPerHost: poolSize,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Call performs one empty-body request. Headers are built fresh from
// the extracted event data; nothing from the inbound message is
// copied, so upstream authorization never crosses this boundary.
func (c *Client) Call(ctx context.Context, method, url string, headers map[string]string) *CallResult {
	result := &CallResult{}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		result.Err = fmt.Errorf("failed to create HTTP request: %w", err)
		return result
	}

	for name, value := range headers {
		if value != "" {
			req.Header.Set(name, value)
		}
	}

	startTime := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		result.LatencyMs = int(time.Since(startTime).Milliseconds())
		result.Err = fmt.Errorf("HTTP request failed: %w", err)
		return result
	}
	defer resp.Body.Close()

	// Drain so the connection goes back to the pool.
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 8192)); err != nil {
		c.logger.Warn("Failed to drain response body",
			zap.String("url", url),
			zap.Error(err),
		)
	}

	result.LatencyMs = int(time.Since(startTime).Milliseconds())
	result.HTTPStatus = &resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Err = &StatusError{Code: resp.StatusCode}
	}

	return result
}

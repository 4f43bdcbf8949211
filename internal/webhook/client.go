// Package webhook posts form snapshots to the downstream automation endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ikkim/dishshot-intake/internal/metrics"
	"github.com/ikkim/dishshot-intake/pkg/logger"
)

// Client delivers notifications in the background. Delivery failures are logged and
// counted, never returned.
type Client struct {
	url        string
	httpClient *http.Client
	wg         sync.WaitGroup
}

// NewClient returns a client that does nothing when url is empty.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify serializes payload and posts it from a goroutine. The caller's context only
// carries values; cancelling it does not stop the delivery.
func (c *Client) Notify(ctx context.Context, payload interface{}) {
	if c.url == "" {
		metrics.WebhookDeliveries.WithLabelValues("skipped").Inc()
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("Failed to encode webhook payload", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.WebhookDeliveries.WithLabelValues("encode_error").Inc()
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.post(context.WithoutCancel(ctx), body); err != nil {
			logger.Warn("Webhook delivery failed", map[string]interface{}{
				"url":   c.url,
				"error": err.Error(),
			})
			metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
			return
		}
		metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
	}()
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.Debug("Webhook responded", map[string]interface{}{
		"status": resp.StatusCode,
	})
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Wait blocks until every in-flight delivery has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
)

// WebhookSender POSTs a JSON payload to a subscriber-provided URL. A non-2xx
// response is a delivery failure; the next scheduled firing is the natural
// retry, so no in-firing retry happens here.
type WebhookSender interface {
	Send(ctx context.Context, url string, payload WebhookPayload) error
}

type HTTPWebhookSender struct {
	client *http.Client
}

func NewHTTPWebhookSender(cfg *cfgpkg.Config) *HTTPWebhookSender {
	timeout := cfg.Weather.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPWebhookSender{client: &http.Client{Timeout: timeout}}
}

func (s *HTTPWebhookSender) Send(ctx context.Context, url string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "weatherinbox/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

// deliverRequest is the JSON body posted to the external endpoint.
type deliverRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// WebhookSink delivers notifications by POSTing to an external endpoint.
// The base URL is injected from config so tests can point to a local mock.
type WebhookSink struct {
	baseURL    string
	httpClient *http.Client
}

func NewWebhookSink(baseURL string, timeout time.Duration) *WebhookSink {
	return &WebhookSink{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver posts the recipient's copy to the configured URL and treats any
// non-2xx response as a transient failure (the worker requeues).
func (s *WebhookSink) Deliver(ctx context.Context, msg *domain.TargetMessage) error {
	body, err := json.Marshal(deliverRequest{
		To:      msg.Email,
		Subject: msg.Title,
		Body:    msg.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single webhook POST.
const DefaultTimeout = 10 * time.Second

// Webhook posts alerts to a fixed URL.
//
// Delivery is fire-and-forget: the response status is not inspected and a
// failed request is not retried. Only transport errors are returned.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook posting to url. A nil client gets a default
// client with DefaultTimeout.
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Webhook{url: url, client: client}
}

// Send issues one POST with the alert payload.
func (w *Webhook) Send(ctx context.Context, content string) error {
	body, err := FormatPayload(content)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

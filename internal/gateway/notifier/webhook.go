package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"snatcher/internal/types"
)

// WebhookSubscriber POSTs notifications as JSON to a fixed URL.
type WebhookSubscriber struct {
	URL    string
	Client *http.Client
}

func NewWebhookSubscriber(url string) *WebhookSubscriber {
	return &WebhookSubscriber{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookSubscriber) Endpoint() string {
	return w.URL
}

func (w *WebhookSubscriber) Push(ctx context.Context, n types.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// 404/410 mean the endpoint was torn down; report it as gone so the
	// dispatcher drops this subscriber.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return fmt.Errorf("webhook status=%d: %w", resp.StatusCode, ErrSubscriberGone)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook status=%d", resp.StatusCode)
	}
	return nil
}

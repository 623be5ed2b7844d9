package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/i474232898/watch-weather-bridge/internal/relay"
)

// WebhookChannel posts messages to a companion endpoint that forwards them to
// the watch.
type WebhookChannel struct {
	client *http.Client
	url    string
}

func NewWebhookChannel(client *http.Client, url string) *WebhookChannel {
	return &WebhookChannel{client: client, url: url}
}

func (c *WebhookChannel) Send(ctx context.Context, msg relay.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected response code %d", resp.StatusCode)
	}
	return nil
}

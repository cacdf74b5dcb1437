package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/metric"
)

const webhookTimeout = 10 * time.Second

// Webhook delivers alerts as JSON POSTs. The payload shape depends on the
// configured type: Slack message, Teams MessageCard, or a plain envelope for
// generic HTTP receivers.
type Webhook struct {
	cfg    config.WebhookConfig
	client *http.Client
}

// NewWebhook creates a webhook notifier. The target URL is resolved from the
// environment on every delivery so rotated secrets take effect without a
// restart.
func NewWebhook(cfg config.WebhookConfig) *Webhook {
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

func (w *Webhook) Name() string { return "webhook-" + w.cfg.Type }

func (w *Webhook) Notify(ctx context.Context, a metric.Alert) error {
	url := w.cfg.URL()
	if url == "" {
		return fmt.Errorf("%w: webhook url env %q unset", ErrDeliveryFailed, w.cfg.URLEnv)
	}

	var body []byte
	switch w.cfg.Type {
	case "slack":
		body, _ = json.Marshal(map[string]string{
			"text": fmt.Sprintf("*[ALERT]* %s: value %.2f exceeded threshold %.2f at %s",
				a.Series, a.Value, a.Threshold, a.FiredAt.UTC().Format(time.RFC3339)),
		})
	case "teams":
		body, _ = json.Marshal(map[string]interface{}{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": "FF4F6A",
			"summary":    a.Series,
			"title":      fmt.Sprintf("pulsewatch alert: %s", a.Series),
			"text": fmt.Sprintf("value %.2f exceeded threshold %.2f at %s",
				a.Value, a.Threshold, a.FiredAt.UTC().Format(time.RFC3339)),
		})
	default: // "http"
		body, _ = json.Marshal(map[string]interface{}{"alert": a})
	}

	return w.post(ctx, url, body)
}

func (w *Webhook) Close() error { return nil }

func (w *Webhook) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http post: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: webhook returned HTTP %d", ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}

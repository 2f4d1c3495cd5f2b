package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"manimserve/logger"
	"manimserve/models"
	"manimserve/utils"
)

const (
	SecretHeader    = "x-webhook-secret"
	SignatureHeader = "X-Webhook-Signature"
	userAgent       = "manimserve/1.0"
)

// WebhookClient delivers async outcomes. Delivery is attempted once.
type WebhookClient struct {
	client *http.Client
	secret string
}

func NewWebhookClient(secret string, timeout time.Duration) *WebhookClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookClient{client: &http.Client{Timeout: timeout}, secret: secret}
}

// Deliver POSTs payload to url. A non-2xx answer is an error.
func (c *WebhookClient) Deliver(ctx context.Context, url string, payload models.WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.secret != "" {
		req.Header.Set(SecretHeader, c.secret)
		if sig, err := utils.SignPayload(body, []byte(c.secret)); err != nil {
			logger.Warnf("webhook for %s sent unsigned: %v", payload.AnimationID, err)
		} else {
			req.Header.Set(SignatureHeader, sig)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}
	return nil
}

// webhookPayload shapes a finished render for delivery.
func webhookPayload(id string, res models.RenderResult, err error) models.WebhookPayload {
	p := models.WebhookPayload{AnimationID: id}
	if err != nil {
		msg := message(err)
		p.Error = &msg
		return p
	}
	p.Success = true
	video := res.Upload.VideoURL
	p.VideoURL = &video
	if res.Upload.ThumbnailURL != "" {
		thumb := res.Upload.ThumbnailURL
		p.ThumbnailURL = &thumb
	}
	duration := res.Duration
	p.Duration = &duration
	return p
}

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ddnsup/internal/config"
	"ddnsup/internal/updater"
	"ddnsup/internal/version"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookNotifier posts events as JSON to a configured URL
type WebhookNotifier struct {
	config *config.WebhookConfig
	logger *zap.Logger
	client *http.Client
}

// WebhookPayload represents the standard webhook payload structure
type WebhookPayload struct {
	EventType string         `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Hostname  string         `json:"hostname"`
	Data      map[string]any `json:"data"`
}

// NewWebhookNotifier creates new webhook notifier
func NewWebhookNotifier(cfg *config.WebhookConfig, logger *zap.Logger) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}

	return &WebhookNotifier{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true,
				MaxIdleConnsPerHost: 2,
			},
		},
	}, nil
}

// NotifyUpdate sends an update event
func (n *WebhookNotifier) NotifyUpdate(ctx context.Context, event *updater.Event) error {
	oldAddr, _ := event.OldAddress.Value()
	newAddr, _ := event.NewAddress.Value()

	data := map[string]any{
		"success":     event.Success,
		"address":     event.Address,
		"old_address": oldAddr,
		"new_address": newAddr,
		"message":     event.Message,
		"reasons":     event.Reasons,
	}
	// Add common data from config without overriding event fields
	for k, v := range n.config.CommonData {
		if _, exists := data[k]; !exists {
			data[k] = v
		}
	}

	return n.send(ctx, WebhookPayload{
		EventType: eventType(event),
		EventID:   uuid.New().String(),
		Timestamp: event.Time,
		Hostname:  event.Hostname,
		Data:      data,
	})
}

// send delivers one payload; a single attempt, the next run retries anyway
func (n *WebhookNotifier) send(ctx context.Context, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, n.config.Method, n.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("webhook"))
	req.Header.Set("X-Ddnsup-Event", payload.EventType)
	req.Header.Set("X-Ddnsup-Delivery", payload.EventID)
	if n.config.Secret != "" {
		req.Header.Set("X-Ddnsup-Signature", "sha256="+calculateSignature(body, []byte(n.config.Secret)))
	}

	// Add custom headers from config
	for k, v := range n.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.logger.Debug("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	return nil
}

// calculateSignature returns the hex HMAC-SHA256 of payload
func calculateSignature(payload []byte, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

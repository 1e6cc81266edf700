package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ddnsup/internal/config"
	"ddnsup/internal/updater"

	"go.uber.org/zap"
)

// SlackNotifier represents Slack notifier
type SlackNotifier struct {
	config *config.SlackConfig
	logger *zap.Logger
	client *http.Client
}

// SlackMessage represents Slack message
type SlackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment represents Slack attachment
type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields,omitempty"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

// SlackField represents Slack field
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackNotifier creates new SlackNotifier
func NewSlackNotifier(cfg *config.SlackConfig, logger *zap.Logger) (*SlackNotifier, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("slack webhook URL is required")
	}

	return &SlackNotifier{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}, nil
}

// NotifyUpdate sends an update event
func (n *SlackNotifier) NotifyUpdate(ctx context.Context, event *updater.Event) error {
	color, title := "good", "DNS record updated"
	if !event.Success {
		color, title = "danger", "DNS record update failed"
	}

	fields := []SlackField{
		{Title: "Hostname", Value: event.Hostname, Short: true},
		{Title: "Address", Value: event.NewAddress.String(), Short: true},
	}
	if r := reasons(event); r != "" {
		fields = append(fields, SlackField{Title: "Reason", Value: r, Short: true})
	}

	return n.send(ctx, SlackMessage{
		Channel:   n.config.Channel,
		Username:  n.config.Username,
		IconEmoji: n.config.IconEmoji,
		Attachments: []SlackAttachment{{
			Color:     color,
			Title:     title,
			Text:      summary(event),
			Fields:    fields,
			Footer:    "ddnsup",
			Timestamp: event.Time.Unix(),
		}},
	})
}

// send sends a slack message
func (n *SlackNotifier) send(ctx context.Context, msg SlackMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.logger.Debug("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack api error: status code %d", resp.StatusCode)
	}

	return nil
}

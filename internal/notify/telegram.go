package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ddnsup/internal/config"
	"ddnsup/internal/updater"

	"go.uber.org/zap"
)

// TelegramNotifier represents Telegram notifier
type TelegramNotifier struct {
	config *config.TelegramConfig
	logger *zap.Logger
	client *http.Client
}

// TelegramMessage represents Telegram message
type TelegramMessage struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// NewTelegramNotifier creates new Telegram notifier
func NewTelegramNotifier(cfg *config.TelegramConfig, logger *zap.Logger) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || len(cfg.ChatIDs) == 0 {
		return nil, fmt.Errorf("telegram bot token and chat IDs are required")
	}

	return &TelegramNotifier{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true,
				MaxIdleConnsPerHost: 5,
			},
		},
	}, nil
}

// NotifyUpdate sends an update event to every chat; successes are sent silently
func (n *TelegramNotifier) NotifyUpdate(ctx context.Context, event *updater.Event) error {
	text := summary(event)
	if r := reasons(event); r != "" {
		text += "\nReason: " + r
	}
	return n.sendToAll(ctx, text, event.Success)
}

// sendToAll sends message to all chat IDs
func (n *TelegramNotifier) sendToAll(ctx context.Context, text string, silent bool) error {
	var errs []string

	for _, chatID := range n.config.ChatIDs {
		if err := n.sendMessage(ctx, chatID, text, silent); err != nil {
			errs = append(errs, fmt.Sprintf("chat_id %s: %v", chatID, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to send messages: %s", strings.Join(errs, "; "))
	}

	return nil
}

// sendMessage sends a message to a specific chat ID
func (n *TelegramNotifier) sendMessage(ctx context.Context, chatID, text string, silent bool) error {
	payload, err := json.Marshal(TelegramMessage{
		ChatID:              chatID,
		Text:                text,
		DisableNotification: silent,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	apiURL := strings.TrimSuffix(n.config.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", apiURL, n.config.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			// the URL carries the bot token
			err = uerr.Err
		}
		return fmt.Errorf("failed to send request to telegram api: %w", err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.logger.Debug("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Description == "" {
			return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("telegram API error: %s", errorResp.Description)
	}

	return nil
}

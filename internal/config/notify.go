package config

import (
	"fmt"
	"net/url"
	"time"
)

// NotifyConfig represents notification configuration
type NotifyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"` // per channel

	// OnSuccess and OnFailure select which provider outcomes are reported
	OnSuccess bool `mapstructure:"on_success"`
	OnFailure bool `mapstructure:"on_failure"`

	// Notification channels
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig represents the webhook notification configuration
type WebhookConfig struct {
	Enabled    bool              `mapstructure:"enabled"`
	URL        string            `mapstructure:"url"`
	Secret     string            `mapstructure:"secret"`
	Method     string            `mapstructure:"method"`
	Headers    map[string]string `mapstructure:"headers"`
	CommonData map[string]any    `mapstructure:"common_data"`
}

// SlackConfig represents Slack notification configuration
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
	Username   string `mapstructure:"username"`
	IconEmoji  string `mapstructure:"icon_emoji"`
}

// TelegramConfig represents the telegram notification configuration
type TelegramConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	BotToken string   `mapstructure:"bot_token"`
	ChatIDs  []string `mapstructure:"chat_ids"`
	APIURL   string   `mapstructure:"api_url"` // defaults to https://api.telegram.org
}

// Validate notification configuration and fill in defaults
func (cfg *NotifyConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if !cfg.OnSuccess && !cfg.OnFailure {
		cfg.OnSuccess, cfg.OnFailure = true, true
	}

	if cfg.Webhook.Enabled {
		if err := cfg.Webhook.Validate(); err != nil {
			return fmt.Errorf("invalid webhook config: %w", err)
		}
	}

	if cfg.Slack.Enabled {
		if err := cfg.Slack.Validate(); err != nil {
			return fmt.Errorf("invalid slack config: %w", err)
		}
	}

	if cfg.Telegram.Enabled {
		if err := cfg.Telegram.Validate(); err != nil {
			return fmt.Errorf("invalid telegram config: %w", err)
		}
	}

	return nil
}

// Validate validates webhook configuration
func (cfg *WebhookConfig) Validate() error {
	if err := validateHTTPURL(cfg.URL); err != nil {
		return err
	}
	if cfg.Method == "" {
		cfg.Method = "POST"
	}
	return nil
}

// Validate validates slack configuration
func (cfg *SlackConfig) Validate() error {
	if cfg.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is required")
	}
	return validateHTTPURL(cfg.WebhookURL)
}

// Validate validates telegram configuration
func (cfg *TelegramConfig) Validate() error {
	if cfg.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if len(cfg.ChatIDs) == 0 {
		return fmt.Errorf("at least one chat ID is required")
	}
	for _, id := range cfg.ChatIDs {
		if id == "" {
			return fmt.Errorf("chat ID cannot be empty")
		}
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid url %s: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %s must use HTTP(S) protocol", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %s has no host", raw)
	}
	return nil
}

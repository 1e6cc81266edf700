package notify

import (
	"context"
	"fmt"
	"strings"

	"ddnsup/internal/updater"
)

// NotifierType represents the type of notifier
type NotifierType string

const (
	NotifierWebhook  NotifierType = "webhook"
	NotifierSlack    NotifierType = "slack"
	NotifierTelegram NotifierType = "telegram"
)

// Notifier delivers update events to one channel
type Notifier interface {
	// NotifyUpdate sends an update event
	NotifyUpdate(ctx context.Context, event *updater.Event) error
}

// eventType names the event for machine consumers
func eventType(event *updater.Event) string {
	if event.Success {
		return "ddns.updated"
	}
	return "ddns.failed"
}

// summary renders a one-line human readable description
func summary(event *updater.Event) string {
	if event.Success {
		s := fmt.Sprintf("%s now points to %s", event.Hostname, event.Address)
		if event.Message != "" {
			s += " (" + event.Message + ")"
		}
		return s
	}
	return fmt.Sprintf("Failed to update %s: %s", event.Hostname, event.Message)
}

func reasons(event *updater.Event) string {
	parts := make([]string, len(event.Reasons))
	for i, r := range event.Reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

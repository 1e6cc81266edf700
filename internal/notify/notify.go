package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ddnsup/internal/config"
	"ddnsup/internal/updater"

	"go.uber.org/zap"
)

// Manager fans an event out to every enabled notifier. Delivery is
// synchronous because the process exits right after the run.
type Manager struct {
	config    *config.NotifyConfig
	logger    *zap.Logger
	notifiers map[NotifierType]Notifier
	mu        sync.RWMutex
}

// NewManager creates new notifier manager
func NewManager(cfg *config.NotifyConfig, logger *zap.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notify config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:    cfg,
		logger:    logger,
		notifiers: make(map[NotifierType]Notifier),
	}

	if !cfg.Enabled {
		return m, nil
	}

	// Initialize enabled notifiers
	if cfg.Webhook.Enabled {
		if n, err := NewWebhookNotifier(&cfg.Webhook, logger); err == nil {
			m.notifiers[NotifierWebhook] = n
		} else {
			logger.Error("Failed to initialize webhook notifier", zap.Error(err))
		}
	}

	if cfg.Slack.Enabled {
		if n, err := NewSlackNotifier(&cfg.Slack, logger); err == nil {
			m.notifiers[NotifierSlack] = n
		} else {
			logger.Error("Failed to initialize slack notifier", zap.Error(err))
		}
	}

	if cfg.Telegram.Enabled {
		if n, err := NewTelegramNotifier(&cfg.Telegram, logger); err == nil {
			m.notifiers[NotifierTelegram] = n
		} else {
			logger.Error("Failed to initialize telegram notifier", zap.Error(err))
		}
	}

	return m, nil
}

// Register adds or replaces a notifier
func (m *Manager) Register(t NotifierType, n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers[t] = n
}

// NotifyUpdate sends event to all notifiers concurrently, each bounded by
// the configured timeout, and joins their errors
func (m *Manager) NotifyUpdate(ctx context.Context, event *updater.Event) error {
	if !m.wants(event) {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	for t, n := range m.notifiers {
		wg.Add(1)
		go func(t NotifierType, n Notifier) {
			defer wg.Done()

			sendCtx, cancel := m.withTimeout(ctx)
			defer cancel()

			if err := n.NotifyUpdate(sendCtx, event); err != nil {
				m.logger.Error("Failed to send notification",
					zap.String("type", string(t)),
					zap.Error(err))
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", t, err))
				errMu.Unlock()
				return
			}
			m.logger.Debug("Notification sent", zap.String("type", string(t)))
		}(t, n)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (m *Manager) wants(event *updater.Event) bool {
	if !m.config.Enabled {
		return false
	}
	if event.Success {
		return m.config.OnSuccess
	}
	return m.config.OnFailure
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := m.config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// IsEnabled checks if notifications are enabled
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// IsNotifierEnabled checks if a notifier is enabled
func (m *Manager) IsNotifierEnabled(notifierType NotifierType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.notifiers[notifierType]
	return ok
}

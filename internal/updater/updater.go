// Package updater decides whether a DDNS record needs refreshing and, when it
// does, calls the provider once and records a confirmed update.
package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ddnsup/internal/provider"
	"ddnsup/internal/state"

	"go.uber.org/zap"
)

var (
	// ErrProviderFailure is returned when the provider did not apply the update
	ErrProviderFailure = errors.New("provider update failed")

	// ErrStateWrite is returned when a confirmed update could not be recorded
	ErrStateWrite = errors.New("failed to record last update")
)

// unknownError is reported when a failed provider reply carries no message
const unknownError = "unknown error"

// Provider applies the update remotely
type Provider interface {
	Update(ctx context.Context, hostname, token string) (provider.Result, error)
}

// StateStore keeps the time of the last successful update
type StateStore interface {
	ReadLastUpdate(ctx context.Context) state.UpdateState
	WriteLastUpdate(ctx context.Context, t time.Time) error
}

// Notifier is told about every provider call
type Notifier interface {
	NotifyUpdate(ctx context.Context, event *Event) error
}

// Outcome is the terminal state of a run
type Outcome int

const (
	// OutcomeSkipped means no update was needed
	OutcomeSkipped Outcome = iota
	// OutcomeUpdated means the provider confirmed the update
	OutcomeUpdated
	// OutcomeFailed means the provider was called and did not confirm
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUpdated:
		return "updated"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Request describes one run
type Request struct {
	Hostname    string
	Token       string
	OldAddress  Address
	NewAddress  Address
	Force       bool
	MaxInterval time.Duration
}

// Event describes a provider call for notifiers
type Event struct {
	Hostname   string
	OldAddress Address
	NewAddress Address
	Success    bool
	Address    string // confirmed by the provider
	Message    string
	Reasons    []Reason
	Time       time.Time
}

// Updater runs the decide, update, record sequence
type Updater struct {
	provider Provider
	store    StateStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Updater
type Option func(*Updater)

// WithNotifier reports provider calls to n
func WithNotifier(n Notifier) Option {
	return func(u *Updater) {
		u.notifier = n
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		u.now = now
	}
}

// New creates an Updater
func New(p Provider, store StateStore, logger *zap.Logger, opts ...Option) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	u := &Updater{
		provider: p,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run performs one invocation. The provider is called at most once and the
// state is written only after it confirms the update. The returned error
// wraps ErrProviderFailure or ErrStateWrite.
func (u *Updater) Run(ctx context.Context, req Request) (Outcome, error) {
	log := u.logger.With(zap.String("hostname", req.Hostname))

	now := u.now()
	last := u.store.ReadLastUpdate(ctx)

	d := Evaluate(Input{
		OldAddress:  req.OldAddress,
		NewAddress:  req.NewAddress,
		Force:       req.Force,
		MaxInterval: req.MaxInterval,
		LastUpdate:  last,
		Now:         now,
	})

	log.Debug("Update decision",
		zap.Stringer("old_address", req.OldAddress),
		zap.Stringer("new_address", req.NewAddress),
		zap.Bool("force", req.Force),
		zap.Duration("max_interval", req.MaxInterval),
		zap.Duration("since_last_update", d.Elapsed),
		zap.Stringer("decision", d))

	if !d.Update {
		log.Info("Not updating address")
		return OutcomeSkipped, nil
	}

	event := &Event{
		Hostname:   req.Hostname,
		OldAddress: req.OldAddress,
		NewAddress: req.NewAddress,
		Reasons:    d.Reasons,
		Time:       now,
	}

	res, err := u.provider.Update(ctx, req.Hostname, req.Token)
	if err != nil {
		res = provider.Failure(err.Error())
	}

	if !res.OK() {
		msg := res.Message
		if msg == "" {
			msg = unknownError
		}
		log.Error("Failed to update address", zap.String("message", msg))

		event.Message = msg
		u.notify(ctx, event)
		return OutcomeFailed, fmt.Errorf("%w: %s", ErrProviderFailure, msg)
	}

	log.Info("Updated address", zap.String("address", res.Address))

	event.Success = true
	event.Address = res.Address

	writeErr := u.store.WriteLastUpdate(ctx, now)
	if writeErr != nil {
		log.Error("Failed to record last update", zap.Error(writeErr))
		event.Message = writeErr.Error()
	}
	u.notify(ctx, event)

	if writeErr != nil {
		return OutcomeUpdated, fmt.Errorf("%w: %w", ErrStateWrite, writeErr)
	}
	return OutcomeUpdated, nil
}

func (u *Updater) notify(ctx context.Context, event *Event) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.NotifyUpdate(ctx, event); err != nil {
		u.logger.Warn("Failed to send update notification", zap.Error(err))
	}
}

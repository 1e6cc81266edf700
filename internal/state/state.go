// Package state persists the time of the last successful DDNS update.
//
// The value is a single epoch-seconds number stored as its decimal text form.
// Reads never fail: a missing or unusable value reads as zero ("never
// updated") and is reported as a warning. Writes replace the whole value and
// report every failure to the caller.
package state

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by a Backend that holds no value yet
	ErrNotFound = errors.New("no last update recorded")

	// ErrInvalidValue is reported when stored content is not a finite non-negative number
	ErrInvalidValue = errors.New("invalid last update data")
)

// UpdateState is the wall-clock time of the last successful provider update
type UpdateState struct {
	LastUpdateEpochSeconds float64
}

// Never is the state of a host that has no recorded update
var Never = UpdateState{}

// FromTime returns the state for a successful update at t
func FromTime(t time.Time) UpdateState {
	return UpdateState{LastUpdateEpochSeconds: float64(t.UnixNano()) / float64(time.Second)}
}

// Time returns the recorded update time
func (s UpdateState) Time() time.Time {
	sec, frac := math.Modf(s.LastUpdateEpochSeconds)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// IsZero reports whether no update has been recorded
func (s UpdateState) IsZero() bool {
	return s.LastUpdateEpochSeconds == 0
}

// String returns the persisted textual form
func (s UpdateState) String() string {
	return strconv.FormatFloat(s.LastUpdateEpochSeconds, 'f', -1, 64)
}

// Parse decodes the persisted textual form, surrounding whitespace allowed
func Parse(data []byte) (UpdateState, error) {
	text := strings.TrimSpace(string(data))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Never, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Never, fmt.Errorf("%w: %q", ErrInvalidValue, text)
	}
	return UpdateState{LastUpdateEpochSeconds: v}, nil
}

// Backend is a durable slot holding one opaque value
type Backend interface {
	// Get returns the stored value, or ErrNotFound when nothing was stored
	Get(ctx context.Context) ([]byte, error)

	// Put replaces the stored value as a whole
	Put(ctx context.Context, value []byte) error

	// Close releases backend resources
	Close() error

	// String describes the backend location for diagnostics
	String() string
}

// Store reads and writes UpdateState through a Backend
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// NewStore creates a Store over backend; warnings are written to logger
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		logger:  logger.With(zap.Stringer("state", backend)),
	}
}

// ReadLastUpdate returns the recorded state. A missing, unreadable or corrupt
// value yields Never and a warning, since no recorded update is the expected
// state of a first run.
func (s *Store) ReadLastUpdate(ctx context.Context) UpdateState {
	data, err := s.backend.Get(ctx)
	if err != nil {
		s.logger.Warn("Failed to read last update", zap.Error(err))
		return Never
	}

	st, err := Parse(data)
	if err != nil {
		s.logger.Warn("Invalid last update data", zap.Error(err))
		return Never
	}

	s.logger.Debug("Last update loaded",
		zap.Time("last_update", st.Time()),
		zap.Float64("epoch_seconds", st.LastUpdateEpochSeconds))
	return st
}

// WriteLastUpdate records a successful update at t
func (s *Store) WriteLastUpdate(ctx context.Context, t time.Time) error {
	st := FromTime(t)
	if err := s.backend.Put(ctx, []byte(st.String())); err != nil {
		return fmt.Errorf("failed to write last update to %s: %w", s.backend, err)
	}

	s.logger.Debug("Last update saved", zap.Float64("epoch_seconds", st.LastUpdateEpochSeconds))
	return nil
}

// Close closes the underlying backend
func (s *Store) Close() error {
	return s.backend.Close()
}

package state

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedStore(t *testing.T, b Backend) (*Store, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewStore(b, zap.New(core)), logs
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "integer", input: "1700000000", want: 1700000000},
		{name: "fraction", input: "1700000000.25", want: 1700000000.25},
		{name: "whitespace", input: "  42.5\n", want: 42.5},
		{name: "zero", input: "0", want: 0},
		{name: "empty", input: "", wantErr: true},
		{name: "text", input: "yesterday", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "nan", input: "NaN", wantErr: true},
		{name: "inf", input: "+Inf", wantErr: true},
		{name: "trailing data", input: "12 34", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Parse([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidValue))
				assert.Equal(t, Never, st)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.LastUpdateEpochSeconds)
		})
	}
}

func TestUpdateStateTime(t *testing.T) {
	ts := time.Unix(1700000000, 500_000_000)
	st := FromTime(ts)
	assert.Equal(t, 1700000000.5, st.LastUpdateEpochSeconds)
	assert.Equal(t, "1700000000.5", st.String())
	assert.True(t, st.Time().Equal(ts))
	assert.False(t, st.IsZero())
	assert.True(t, Never.IsZero())
}

func TestStoreReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ddns_last_update")
	store, logs := newObservedStore(t, NewFileBackend(path))

	st := store.ReadLastUpdate(context.Background())

	assert.Equal(t, UpdateState{LastUpdateEpochSeconds: 0}, st)
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Failed to read last update", warnings[0].Message)
}

func TestStoreReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ddns_last_update")
	require.NoError(t, os.WriteFile(path, []byte("not a number"), 0644))
	store, logs := newObservedStore(t, NewFileBackend(path))

	st := store.ReadLastUpdate(context.Background())

	assert.Equal(t, Never, st)
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Invalid last update data", warnings[0].Message)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not a number", string(data), "reading must not touch the stored value")
}

func TestStoreReadUnreadablePath(t *testing.T) {
	// a directory cannot be read as a file
	store, logs := newObservedStore(t, NewFileBackend(t.TempDir()))

	assert.Equal(t, Never, store.ReadLastUpdate(context.Background()))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ddns_last_update")
	store, _ := newObservedStore(t, NewFileBackend(path))

	ts := time.Unix(1700000123, 456_789_000)
	require.NoError(t, store.WriteLastUpdate(ctx, ts))

	first := store.ReadLastUpdate(ctx)
	second := store.ReadLastUpdate(ctx)

	assert.Equal(t, FromTime(ts), first)
	assert.Equal(t, first, second)
	assert.InDelta(t, 1700000123.456789, first.LastUpdateEpochSeconds, 1e-6)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FromTime(ts).String(), string(data))
}

func TestStoreWriteOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ddns_last_update")
	store, _ := newObservedStore(t, NewFileBackend(path))

	require.NoError(t, store.WriteLastUpdate(ctx, time.Unix(100, 0)))
	require.NoError(t, store.WriteLastUpdate(ctx, time.Unix(200, 0)))

	assert.Equal(t, float64(200), store.ReadLastUpdate(ctx).LastUpdateEpochSeconds)

	matches, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files must not be left behind")
}

func TestStoreWriteFailureIsReported(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "ddns_last_update")
	store, _ := newObservedStore(t, NewFileBackend(path))

	err := store.WriteLastUpdate(ctx, time.Unix(100, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestStoreWithFailingBackend(t *testing.T) {
	b := &stubBackend{getErr: errors.New("disk on fire"), putErr: errors.New("read-only file system")}
	store, logs := newObservedStore(t, b)

	assert.Equal(t, Never, store.ReadLastUpdate(context.Background()))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	err := store.WriteLastUpdate(context.Background(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, b.putErr)
}

func TestStoreNilLogger(t *testing.T) {
	store := NewStore(&stubBackend{value: []byte("12.5")}, nil)
	assert.Equal(t, 12.5, store.ReadLastUpdate(context.Background()).LastUpdateEpochSeconds)
	assert.NoError(t, store.Close())
}

func TestFromTimeLargeValues(t *testing.T) {
	st := FromTime(time.Unix(math.MaxInt32, 0))
	parsed, err := Parse([]byte(st.String()))
	require.NoError(t, err)
	assert.Equal(t, st, parsed)
}

type stubBackend struct {
	value  []byte
	getErr error
	putErr error
}

func (s *stubBackend) Get(context.Context) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.value, nil
}

func (s *stubBackend) Put(_ context.Context, v []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.value = v
	return nil
}

func (s *stubBackend) Close() error   { return nil }
func (s *stubBackend) String() string { return "stub" }

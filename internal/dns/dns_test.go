package dns

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordType(t *testing.T) {
	assert.Equal(t, "A", RecordType(netip.MustParseAddr("192.0.2.1")))
	assert.Equal(t, "A", RecordType(netip.MustParseAddr("::ffff:192.0.2.1")))
	assert.Equal(t, "AAAA", RecordType(netip.MustParseAddr("2001:db8::1")))
}

func TestNewRecord(t *testing.T) {
	rec, err := newRecord("Home.Example.com.", netip.MustParseAddr("::ffff:192.0.2.1"), 0)
	require.NoError(t, err)
	assert.Equal(t, Record{Name: "home.example.com", Type: "A", Content: "192.0.2.1", TTL: DefaultTTL}, rec)
	assert.Equal(t, "home.example.com 300 IN A 192.0.2.1", rec.String())

	_, err = newRecord("home.example.com", netip.Addr{}, 60)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = newRecord("home.example.com", netip.MustParseAddr("fe80::1%eth0"), 60)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	res, err := m.Upsert(ctx, "home.example.com", netip.MustParseAddr("192.0.2.1"), 60)
	require.NoError(t, err)
	assert.Equal(t, "home.example.com 60 IN A 192.0.2.1", res)

	_, err = m.Upsert(ctx, "home.example.com", netip.MustParseAddr("192.0.2.2"), 60)
	require.NoError(t, err)
	_, err = m.Upsert(ctx, "home.example.com", netip.MustParseAddr("2001:db8::2"), 60)
	require.NoError(t, err)

	a, ok := m.Lookup("HOME.example.com", "A")
	require.True(t, ok)
	assert.Equal(t, "192.0.2.2", a.Content)

	aaaa, ok := m.Lookup("home.example.com", "AAAA")
	require.True(t, ok)
	assert.Equal(t, "2001:db8::2", aaaa.Content)

	_, ok = m.Lookup("other.example.com", "A")
	assert.False(t, ok)
}

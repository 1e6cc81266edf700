package dns

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/cloudflare/cloudflare-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeZoneAPI struct {
	zoneList  []cloudflare.Zone
	existing  []cloudflare.DNSRecord
	listErr   error
	createErr error

	listedZone string
	listedType string
	deleted    []string
	created    []cloudflare.CreateDNSRecordParams
}

func (f *fakeZoneAPI) zones(context.Context) ([]cloudflare.Zone, error) {
	return f.zoneList, f.listErr
}

func (f *fakeZoneAPI) records(_ context.Context, zoneID, recordType, _ string) ([]cloudflare.DNSRecord, error) {
	f.listedZone, f.listedType = zoneID, recordType
	return f.existing, nil
}

func (f *fakeZoneAPI) deleteRecord(_ context.Context, _, recordID string) error {
	f.deleted = append(f.deleted, recordID)
	return nil
}

func (f *fakeZoneAPI) createRecord(_ context.Context, _ string, params cloudflare.CreateDNSRecordParams) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, params)
	return nil
}

var testZones = []cloudflare.Zone{
	{ID: "z1", Name: "example.com"},
	{ID: "z2", Name: "home.example.com"},
	{ID: "z3", Name: "ample.com"},
}

func TestCloudflareUpsertCreates(t *testing.T) {
	api := &fakeZoneAPI{
		zoneList: testZones,
		existing: []cloudflare.DNSRecord{{ID: "r1", Content: "192.0.2.9", TTL: 300}},
	}
	cf := newCloudflare(api, "", zaptest.NewLogger(t))

	res, err := cf.Upsert(context.Background(), "nas.home.example.com", netip.MustParseAddr("192.0.2.1"), 300)
	require.NoError(t, err)
	assert.Equal(t, "created: nas.home.example.com 300 IN A 192.0.2.1", res)

	assert.Equal(t, "z2", api.listedZone, "longest matching zone wins")
	assert.Equal(t, "A", api.listedType)
	assert.Equal(t, []string{"r1"}, api.deleted)
	require.Len(t, api.created, 1)
	assert.Equal(t, "nas.home.example.com", api.created[0].Name)
	assert.Equal(t, "192.0.2.1", api.created[0].Content)
	assert.Equal(t, 300, api.created[0].TTL)
}

func TestCloudflareUpsertUnchanged(t *testing.T) {
	api := &fakeZoneAPI{
		zoneList: testZones,
		existing: []cloudflare.DNSRecord{
			{ID: "r1", Content: "2001:db8::1", TTL: 300},
			{ID: "r2", Content: "2001:db8::1", TTL: 300},
		},
	}
	cf := newCloudflare(api, "", zaptest.NewLogger(t))

	res, err := cf.Upsert(context.Background(), "www.example.com", netip.MustParseAddr("2001:db8::1"), 300)
	require.NoError(t, err)
	assert.Equal(t, "unchanged: www.example.com 300 IN AAAA 2001:db8::1", res)
	assert.Equal(t, "z1", api.listedZone)
	assert.Equal(t, "AAAA", api.listedType)
	assert.Equal(t, []string{"r2"}, api.deleted, "duplicates are removed")
	assert.Empty(t, api.created)
}

func TestCloudflareZoneSelection(t *testing.T) {
	t.Run("suffix must be a label boundary", func(t *testing.T) {
		api := &fakeZoneAPI{zoneList: []cloudflare.Zone{{ID: "z3", Name: "ample.com"}}}
		cf := newCloudflare(api, "", zaptest.NewLogger(t))

		_, err := cf.Upsert(context.Background(), "example.com", netip.MustParseAddr("192.0.2.1"), 60)
		assert.ErrorIs(t, err, ErrZoneNotFound)
	})

	t.Run("configured zone", func(t *testing.T) {
		api := &fakeZoneAPI{zoneList: testZones}
		cf := newCloudflare(api, "example.com", zaptest.NewLogger(t))

		_, err := cf.Upsert(context.Background(), "nas.home.example.com", netip.MustParseAddr("192.0.2.1"), 60)
		require.NoError(t, err)
		assert.Equal(t, "z1", api.listedZone)
	})

	t.Run("configured zone must contain the hostname", func(t *testing.T) {
		api := &fakeZoneAPI{zoneList: testZones}
		cf := newCloudflare(api, "home.example.com", zaptest.NewLogger(t))

		_, err := cf.Upsert(context.Background(), "www.example.com", netip.MustParseAddr("192.0.2.1"), 60)
		assert.ErrorIs(t, err, ErrZoneNotFound)
	})

	t.Run("list failure", func(t *testing.T) {
		api := &fakeZoneAPI{listErr: errors.New("forbidden")}
		cf := newCloudflare(api, "", zaptest.NewLogger(t))

		_, err := cf.Upsert(context.Background(), "www.example.com", netip.MustParseAddr("192.0.2.1"), 60)
		assert.ErrorContains(t, err, "forbidden")
	})
}

func TestCloudflareCreateFailure(t *testing.T) {
	api := &fakeZoneAPI{zoneList: testZones, createErr: errors.New("quota exceeded")}
	cf := newCloudflare(api, "", zaptest.NewLogger(t))

	_, err := cf.Upsert(context.Background(), "www.example.com", netip.MustParseAddr("192.0.2.1"), 60)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestNewCloudflareRequiresToken(t *testing.T) {
	_, err := NewCloudflare("", "", nil)
	assert.Error(t, err)
}

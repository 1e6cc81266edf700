package dns

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChangeAPI struct {
	inputs []*route53.ChangeResourceRecordSetsInput
	err    error
}

func (f *fakeChangeAPI) ChangeResourceRecordSetsWithContext(_ aws.Context, input *route53.ChangeResourceRecordSetsInput, _ ...request.Option) (*route53.ChangeResourceRecordSetsOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &route53.ChangeResourceRecordSetsOutput{
		ChangeInfo: &route53.ChangeInfo{
			Id:     aws.String("/change/C123"),
			Status: aws.String(route53.ChangeStatusPending),
		},
	}, nil
}

func TestRoute53Upsert(t *testing.T) {
	api := &fakeChangeAPI{}
	r := newRoute53(api, "Z0123", zaptest.NewLogger(t))

	res, err := r.Upsert(context.Background(), "Home.Example.com.", netip.MustParseAddr("192.0.2.1"), 0)
	require.NoError(t, err)
	assert.Equal(t, "upserted: home.example.com 300 IN A 192.0.2.1 (change /change/C123 PENDING)", res)

	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "Z0123", aws.StringValue(in.HostedZoneId))
	require.Len(t, in.ChangeBatch.Changes, 1)

	change := in.ChangeBatch.Changes[0]
	assert.Equal(t, route53.ChangeActionUpsert, aws.StringValue(change.Action))
	set := change.ResourceRecordSet
	assert.Equal(t, "home.example.com", aws.StringValue(set.Name))
	assert.Equal(t, "A", aws.StringValue(set.Type))
	assert.Equal(t, int64(300), aws.Int64Value(set.TTL))
	require.Len(t, set.ResourceRecords, 1)
	assert.Equal(t, "192.0.2.1", aws.StringValue(set.ResourceRecords[0].Value))
}

func TestRoute53UpsertIPv6(t *testing.T) {
	api := &fakeChangeAPI{}
	r := newRoute53(api, "Z0123", zaptest.NewLogger(t))

	_, err := r.Upsert(context.Background(), "home.example.com", netip.MustParseAddr("2001:db8::1"), 60)
	require.NoError(t, err)

	set := api.inputs[0].ChangeBatch.Changes[0].ResourceRecordSet
	assert.Equal(t, "AAAA", aws.StringValue(set.Type))
	assert.Equal(t, int64(60), aws.Int64Value(set.TTL))
}

func TestRoute53UpsertFailure(t *testing.T) {
	api := &fakeChangeAPI{err: errors.New("AccessDenied")}
	r := newRoute53(api, "Z0123", zaptest.NewLogger(t))

	_, err := r.Upsert(context.Background(), "home.example.com", netip.MustParseAddr("192.0.2.1"), 60)
	assert.ErrorContains(t, err, "AccessDenied")
	assert.ErrorContains(t, err, "Z0123")

	_, err = r.Upsert(context.Background(), "home.example.com", netip.Addr{}, 60)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Len(t, api.inputs, 1, "invalid addresses never reach the API")
}

func TestNewRoute53RequiresZone(t *testing.T) {
	_, err := NewRoute53("", "", nil)
	assert.Error(t, err)
}

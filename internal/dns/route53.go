package dns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/route53"
	"go.uber.org/zap"
)

// changeAPI is the subset of the Route 53 client the backend calls
type changeAPI interface {
	ChangeResourceRecordSetsWithContext(ctx aws.Context, input *route53.ChangeResourceRecordSetsInput, opts ...request.Option) (*route53.ChangeResourceRecordSetsOutput, error)
}

// Route53 upserts records in one AWS Route 53 hosted zone
type Route53 struct {
	api    changeAPI
	zoneID string
	logger *zap.Logger
}

// NewRoute53 creates a backend for the hosted zone. Credentials come from
// the default AWS chain; region may be empty to use the environment's.
func NewRoute53(zoneID, region string, logger *zap.Logger) (*Route53, error) {
	if zoneID == "" {
		return nil, errors.New("route53 hosted zone ID is required")
	}

	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating aws session: %w", err)
	}

	return newRoute53(route53.New(sess), zoneID, logger), nil
}

func newRoute53(api changeAPI, zoneID string, logger *zap.Logger) *Route53 {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Route53{
		api:    api,
		zoneID: zoneID,
		logger: logger.Named("route53"),
	}
}

// Upsert submits a single UPSERT change for the record of addr's type
func (r *Route53) Upsert(ctx context.Context, hostname string, addr netip.Addr, ttl int) (string, error) {
	rec, err := newRecord(hostname, addr, ttl)
	if err != nil {
		return "", err
	}

	r.logger.Debug("Submitting change",
		zap.String("zone_id", r.zoneID),
		zap.Stringer("record", rec))

	out, err := r.api.ChangeResourceRecordSetsWithContext(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(r.zoneID),
		ChangeBatch: &route53.ChangeBatch{
			Comment: aws.String(recordComment),
			Changes: []*route53.Change{
				{
					Action: aws.String(route53.ChangeActionUpsert),
					ResourceRecordSet: &route53.ResourceRecordSet{
						Name: aws.String(rec.Name),
						Type: aws.String(rec.Type),
						TTL:  aws.Int64(int64(rec.TTL)),
						ResourceRecords: []*route53.ResourceRecord{
							{Value: aws.String(rec.Content)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error changing record set in zone %s: %w", r.zoneID, err)
	}

	result := "upserted: " + rec.String()
	if out != nil && out.ChangeInfo != nil {
		result = fmt.Sprintf("%s (change %s %s)", result,
			aws.StringValue(out.ChangeInfo.Id), aws.StringValue(out.ChangeInfo.Status))
	}
	r.logger.Info("Upserted record", zap.Stringer("record", rec), zap.String("result", result))
	return result, nil
}

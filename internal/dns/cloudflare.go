package dns

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"go.uber.org/zap"
)

const recordComment = "managed by ddnsup"

// zoneAPI is the subset of the Cloudflare API the backend calls
type zoneAPI interface {
	zones(ctx context.Context) ([]cloudflare.Zone, error)
	records(ctx context.Context, zoneID, recordType, name string) ([]cloudflare.DNSRecord, error)
	deleteRecord(ctx context.Context, zoneID, recordID string) error
	createRecord(ctx context.Context, zoneID string, params cloudflare.CreateDNSRecordParams) error
}

type cloudflareAPI struct {
	api *cloudflare.API
}

func (c cloudflareAPI) zones(ctx context.Context) ([]cloudflare.Zone, error) {
	return c.api.ListZones(ctx)
}

func (c cloudflareAPI) records(ctx context.Context, zoneID, recordType, name string) ([]cloudflare.DNSRecord, error) {
	records, _, err := c.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.ListDNSRecordsParams{
		Type: recordType,
		Name: name,
	})
	return records, err
}

func (c cloudflareAPI) deleteRecord(ctx context.Context, zoneID, recordID string) error {
	return c.api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), recordID)
}

func (c cloudflareAPI) createRecord(ctx context.Context, zoneID string, params cloudflare.CreateDNSRecordParams) error {
	_, err := c.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), params)
	return err
}

// Cloudflare manages records through the Cloudflare v4 API
type Cloudflare struct {
	api    zoneAPI
	zone   string
	logger *zap.Logger
}

// CloudflareOption configures the Cloudflare backend
type CloudflareOption func(*cloudflare.API)

// WithHTTPClient sets the client used for API calls
func WithHTTPClient(hc *http.Client) CloudflareOption {
	return func(api *cloudflare.API) {
		if hc != nil {
			_ = cloudflare.HTTPClient(hc)(api)
		}
	}
}

// NewCloudflare creates a backend authenticated by an API token. zone may be
// empty, in which case the longest zone name suffix of each hostname is used.
func NewCloudflare(token, zone string, logger *zap.Logger, opts ...CloudflareOption) (*Cloudflare, error) {
	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	for _, opt := range opts {
		opt(api)
	}
	return newCloudflare(cloudflareAPI{api: api}, zone, logger), nil
}

func newCloudflare(api zoneAPI, zone string, logger *zap.Logger) *Cloudflare {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cloudflare{
		api:    api,
		zone:   canonicalName(zone),
		logger: logger.Named("cloudflare"),
	}
}

// Upsert deletes stale records of addr's type and creates the new one. A
// record that already holds addr is left untouched.
func (cf *Cloudflare) Upsert(ctx context.Context, hostname string, addr netip.Addr, ttl int) (string, error) {
	rec, err := newRecord(hostname, addr, ttl)
	if err != nil {
		return "", err
	}

	zid, err := cf.zoneID(ctx, rec.Name)
	if err != nil {
		return "", fmt.Errorf("unable to get zone ID for %s: %w", rec.Name, err)
	}

	existing, err := cf.api.records(ctx, zid, rec.Type, rec.Name)
	if err != nil {
		return "", fmt.Errorf("unable to list %s records for %s: %w", rec.Type, rec.Name, err)
	}
	cf.logger.Debug("Found existing records",
		zap.String("name", rec.Name),
		zap.String("type", rec.Type),
		zap.Int("count", len(existing)))

	found := false
	for _, r := range existing {
		if !found && sameAddress(r.Content, addr) && r.TTL == rec.TTL {
			found = true
			continue
		}
		if err := cf.api.deleteRecord(ctx, zid, r.ID); err != nil {
			return "", fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
		}
		cf.logger.Debug("Deleted record", zap.String("id", r.ID), zap.String("content", r.Content))
	}

	if found {
		return "unchanged: " + rec.String(), nil
	}

	err = cf.api.createRecord(ctx, zid, cloudflare.CreateDNSRecordParams{
		Type:    rec.Type,
		Name:    rec.Name,
		Content: rec.Content,
		ZoneID:  zid,
		TTL:     rec.TTL,
		Comment: recordComment,
	})
	if err != nil {
		return "", fmt.Errorf("error creating DNS record: %w", err)
	}

	cf.logger.Info("Created record", zap.Stringer("record", rec))
	return "created: " + rec.String(), nil
}

func (cf *Cloudflare) zoneID(ctx context.Context, name string) (string, error) {
	zones, err := cf.api.zones(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}

	best, zid := 0, ""
	for _, z := range zones {
		zn := canonicalName(z.Name)
		if cf.zone != "" {
			if zn == cf.zone && inZone(name, zn) {
				return z.ID, nil
			}
			continue
		}
		if inZone(name, zn) && len(zn) > best {
			best, zid = len(zn), z.ID
		}
	}
	if zid == "" {
		return "", fmt.Errorf("%w: %q", ErrZoneNotFound, name)
	}
	return zid, nil
}

// inZone reports whether name equals zone or is a subdomain of it
func inZone(name, zone string) bool {
	return name == zone || strings.HasSuffix(name, "."+zone)
}

func sameAddress(content string, addr netip.Addr) bool {
	a, err := netip.ParseAddr(content)
	return err == nil && a.Unmap() == addr.Unmap()
}

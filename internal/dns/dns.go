// Package dns publishes address records for the update endpoint.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// DefaultTTL is the record TTL in seconds when none is configured
const DefaultTTL = 300

var (
	// ErrInvalidAddress is returned for an unset or zoned address
	ErrInvalidAddress = errors.New("invalid address")
	// ErrZoneNotFound is returned when no zone contains the hostname
	ErrZoneNotFound = errors.New("zone not found")
)

// Record is one published address record
type Record struct {
	Name    string
	Type    string
	Content string
	TTL     int
}

func (r Record) String() string {
	return fmt.Sprintf("%s %d IN %s %s", r.Name, r.TTL, r.Type, r.Content)
}

// Backend upserts the single address record of a hostname
type Backend interface {
	// Upsert replaces every record of addr's type for hostname with one
	// record pointing at addr and returns a short description of the change
	Upsert(ctx context.Context, hostname string, addr netip.Addr, ttl int) (string, error)
}

// RecordType returns A for IPv4 (including v4-mapped) and AAAA for IPv6
func RecordType(addr netip.Addr) string {
	if addr.Unmap().Is4() {
		return "A"
	}
	return "AAAA"
}

func newRecord(hostname string, addr netip.Addr, ttl int) (Record, error) {
	if !addr.IsValid() || addr.Zone() != "" {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	addr = addr.Unmap()
	return Record{
		Name:    canonicalName(hostname),
		Type:    RecordType(addr),
		Content: addr.String(),
		TTL:     ttl,
	}, nil
}

func canonicalName(hostname string) string {
	return strings.ToLower(strings.TrimSuffix(hostname, "."))
}

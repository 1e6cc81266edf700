package dns

import (
	"context"
	"net/netip"
	"sync"
)

// Memory keeps records in a map. It backs tests and dry runs.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory creates an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// Upsert stores the record, replacing any previous one of the same type
func (m *Memory) Upsert(_ context.Context, hostname string, addr netip.Addr, ttl int) (string, error) {
	rec, err := newRecord(hostname, addr, ttl)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.records[rec.Type+" "+rec.Name] = rec
	m.mu.Unlock()

	return rec.String(), nil
}

// Lookup returns the record of the given type for hostname
func (m *Memory) Lookup(hostname, recordType string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordType+" "+canonicalName(hostname)]
	return rec, ok
}

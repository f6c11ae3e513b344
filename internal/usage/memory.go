package usage

import (
	"context"
	"sync"

	"attune/internal/ports"
)

// MemoryTracker is an in-process allowance oracle and ledger, used by tests
// and the CLI. It implements both ports.AllowanceOracle and
// ports.UsageRecorder: recorded entries advance the tenant's used counter.
type MemoryTracker struct {
	mu      sync.RWMutex
	limits  map[string]int64
	used    map[string]int64
	entries []ports.UsageEntry
}

// NewMemoryTracker constructs a tracker with a shared default limit.
func NewMemoryTracker(defaultLimit int64) *MemoryTracker {
	return &MemoryTracker{
		limits: map[string]int64{"": defaultLimit},
		used:   map[string]int64{},
	}
}

// SetLimit overrides the limit for one tenant.
func (t *MemoryTracker) SetLimit(tenantID string, limit int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limits[tenantID] = limit
}

// Allowance implements ports.AllowanceOracle.
func (t *MemoryTracker) Allowance(_ context.Context, tenantID string) (ports.Allowance, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	limit, ok := t.limits[tenantID]
	if !ok {
		limit = t.limits[""]
	}
	return ports.Allowance{TenantID: tenantID, Limit: limit, Used: t.used[tenantID]}, nil
}

// Record implements ports.UsageRecorder.
func (t *MemoryTracker) Record(_ context.Context, entry ports.UsageEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	t.used[entry.TenantID] += int64(entry.Usage.TotalTokens)
	return nil
}

// Entries returns a copy of the recorded ledger.
func (t *MemoryTracker) Entries() []ports.UsageEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ports.UsageEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

package ports

import (
	"context"
	"time"
)

// Allowance is a tenant's model-usage budget as reported by the external
// usage-tracking collaborator. Units are total tokens.
type Allowance struct {
	TenantID string
	Limit    int64
	Used     int64
}

// Remaining returns the unconsumed part of the allowance.
func (a Allowance) Remaining() int64 {
	if a.Used >= a.Limit {
		return 0
	}
	return a.Limit - a.Used
}

// AllowanceOracle exposes the externally tracked usage counter. The oracle
// owns and serializes the counter; the engine only reads it.
type AllowanceOracle interface {
	Allowance(ctx context.Context, tenantID string) (Allowance, error)
}

// UsageEntry is one immutable ledger record of incurred model cost.
type UsageEntry struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	SessionID string     `json:"session_id,omitempty"`
	Model     string     `json:"model"`
	Reason    string     `json:"reason"`
	Usage     TokenUsage `json:"usage"`
	CreatedAt time.Time  `json:"created_at"`
}

// UsageRecorder appends ledger entries after a model call completed.
type UsageRecorder interface {
	Record(ctx context.Context, entry UsageEntry) error
}

// UsageGate is checked immediately before every model invocation. A denial
// short-circuits the operation before any cost is incurred and before any
// state mutation.
type UsageGate interface {
	Check(ctx context.Context, tenantID string) error
}

// Package usage gates model-invoking operations on a tenant's remaining
// allowance and appends incurred cost to an immutable ledger. The allowance
// counter itself is owned and serialized by the external usage-tracking
// collaborator; this package only reads it (pre-call, never post-call: cost
// must not be incurred once the limit is exceeded) and records what was spent.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attune/internal/errors"
	"attune/internal/logging"
	"attune/internal/ports"
)

// Guard implements ports.UsageGate over an allowance oracle.
type Guard struct {
	oracle   ports.AllowanceOracle
	recorder ports.UsageRecorder
	logger   logging.Logger
	now      func() time.Time
}

// NewGuard constructs a usage guard. recorder may be nil when the caller
// tracks cost elsewhere.
func NewGuard(oracle ports.AllowanceOracle, recorder ports.UsageRecorder, logger logging.Logger) *Guard {
	return &Guard{
		oracle:   oracle,
		recorder: recorder,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// WithNow injects a deterministic clock for tests.
func (g *Guard) WithNow(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// Check verifies the tenant still has allowance. Called immediately before
// every model invocation; a denial performs no state mutation and no model
// call is issued.
func (g *Guard) Check(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}
	allowance, err := g.oracle.Allowance(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("allowance lookup for tenant %s: %w", tenantID, err)
	}
	if allowance.Remaining() <= 0 {
		g.logger.Info("tenant %s denied: %d of %d tokens used", tenantID, allowance.Used, allowance.Limit)
		return &errors.UsageLimitExceededError{
			TenantID: tenantID,
			Limit:    allowance.Limit,
			Used:     allowance.Used,
		}
	}
	return nil
}

// Record appends one ledger entry for cost that was actually incurred.
// Recording failures are logged, not propagated: the model reply already
// exists and must not be lost over bookkeeping.
func (g *Guard) Record(ctx context.Context, tenantID, sessionID, model, reason string, u ports.TokenUsage) {
	if g.recorder == nil || u.TotalTokens == 0 {
		return
	}
	entry := ports.UsageEntry{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		SessionID: sessionID,
		Model:     model,
		Reason:    reason,
		Usage:     u,
		CreatedAt: g.now(),
	}
	if err := g.recorder.Record(ctx, entry); err != nil {
		g.logger.Warn("usage record for tenant %s failed: %v", tenantID, err)
	}
}

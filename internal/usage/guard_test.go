package usage

import (
	"context"
	"testing"
	"time"

	apperrors "attune/internal/errors"
	"attune/internal/ports"
)

func TestGuardCheckRequiresTenant(t *testing.T) {
	t.Parallel()
	tracker := NewMemoryTracker(1000)
	g := NewGuard(tracker, tracker, nil)
	if err := g.Check(context.Background(), ""); err == nil {
		t.Fatal("empty tenant accepted")
	}
}

func TestGuardCheckAllowsWithinLimit(t *testing.T) {
	t.Parallel()
	tracker := NewMemoryTracker(1000)
	g := NewGuard(tracker, tracker, nil)
	if err := g.Check(context.Background(), "acme"); err != nil {
		t.Fatalf("check within limit: %v", err)
	}
}

func TestGuardDeniesExhaustedTenant(t *testing.T) {
	t.Parallel()
	tracker := NewMemoryTracker(100)
	g := NewGuard(tracker, tracker, nil)

	g.Record(context.Background(), "acme", "s1", "test-model", "interview_turn",
		ports.TokenUsage{PromptTokens: 80, CompletionTokens: 20, TotalTokens: 100})

	err := g.Check(context.Background(), "acme")
	if !apperrors.IsUsageLimitExceeded(err) {
		t.Fatalf("err = %v, want usage limit exceeded", err)
	}
	typed := err.(*apperrors.UsageLimitExceededError)
	if typed.TenantID != "acme" || typed.Limit != 100 || typed.Used != 100 {
		t.Fatalf("error fields wrong: %+v", typed)
	}
}

func TestGuardPerTenantLimits(t *testing.T) {
	t.Parallel()
	tracker := NewMemoryTracker(1000)
	tracker.SetLimit("small", 10)
	g := NewGuard(tracker, tracker, nil)

	g.Record(context.Background(), "small", "s1", "test-model", "interview_turn",
		ports.TokenUsage{TotalTokens: 10})

	if err := g.Check(context.Background(), "small"); !apperrors.IsUsageLimitExceeded(err) {
		t.Fatalf("small tenant not denied: %v", err)
	}
	if err := g.Check(context.Background(), "other"); err != nil {
		t.Fatalf("other tenant denied by small tenant's spend: %v", err)
	}
}

func TestGuardRecordBuildsLedgerEntry(t *testing.T) {
	t.Parallel()
	tracker := NewMemoryTracker(1000)
	g := NewGuard(tracker, tracker, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.WithNow(func() time.Time { return fixed })

	g.Record(context.Background(), "acme", "s1", "test-model", "enhancement",
		ports.TokenUsage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42})

	entries := tracker.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(entries))
	}
	e := entries[0]
	if e.ID == "" {
		t.Fatal("entry has no id")
	}
	if e.TenantID != "acme" || e.SessionID != "s1" || e.Model != "test-model" || e.Reason != "enhancement" {
		t.Fatalf("entry fields wrong: %+v", e)
	}
	if !e.CreatedAt.Equal(fixed) {
		t.Fatalf("entry timestamp = %v, want %v", e.CreatedAt, fixed)
	}
	if e.Usage.TotalTokens != 42 {
		t.Fatalf("entry usage = %+v", e.Usage)
	}
}

func TestGuardRecordSkipsZeroUsage(t *testing.T) {
	t.Parallel()
	tracker := NewMemoryTracker(1000)
	g := NewGuard(tracker, tracker, nil)
	g.Record(context.Background(), "acme", "s1", "test-model", "interview_turn", ports.TokenUsage{})
	if len(tracker.Entries()) != 0 {
		t.Fatal("zero usage was recorded")
	}
}

func TestGuardNilRecorderIsNoop(t *testing.T) {
	t.Parallel()
	tracker := NewMemoryTracker(1000)
	g := NewGuard(tracker, nil, nil)
	// Must not panic.
	g.Record(context.Background(), "acme", "s1", "test-model", "interview_turn",
		ports.TokenUsage{TotalTokens: 5})
}

func TestAllowanceRemaining(t *testing.T) {
	t.Parallel()
	a := ports.Allowance{Limit: 100, Used: 40}
	if a.Remaining() != 60 {
		t.Fatalf("remaining = %d, want 60", a.Remaining())
	}
	over := ports.Allowance{Limit: 100, Used: 150}
	if over.Remaining() != 0 {
		t.Fatalf("overspent remaining = %d, want 0", over.Remaining())
	}
}

package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"attune/internal/conversation"
	"attune/internal/synthesis"
)

func TestMemoryStorePutGet(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	ctx := context.Background()

	record := Record{
		ID:              "s1",
		Kind:            KindInterview,
		TenantID:        "acme",
		ParticipantName: "Sam",
		History:         []conversation.Utterance{conversation.Assistant("welcome")},
	}
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ParticipantName != "Sam" || got.Kind != KindInterview {
		t.Fatalf("record wrong: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps not stamped")
	}
	if got.History[0].Timestamp == nil {
		t.Fatal("utterance timestamp not stamped on persist")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreUpdatePreservesCreation(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	ctx := context.Background()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)
	now := created
	store.WithNow(func() time.Time { return now })

	if err := store.Put(ctx, Record{ID: "s1"}); err != nil {
		t.Fatal(err)
	}
	now = later
	if err := store.Put(ctx, Record{ID: "s1", TenantID: "acme"}); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(ctx, "s1")
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("updated at = %v, want %v", got.UpdatedAt, later)
	}
	if got.TenantID != "acme" {
		t.Fatal("update lost")
	}
}

func TestMemoryStoreListOrdersByCreation(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	store.WithNow(func() time.Time { return now })

	_ = store.Put(ctx, Record{ID: "second"})
	now = base.Add(-time.Hour)
	_ = store.Put(ctx, Record{ID: "first"})

	records, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ID != "first" || records[1].ID != "second" {
		t.Fatalf("order wrong: %v, %v", records[0].ID, records[1].ID)
	}
}

func TestRecordStatus(t *testing.T) {
	t.Parallel()
	incomplete := Record{State: &conversation.ConversationState{Complete: false}}
	if incomplete.Status() != synthesis.StatusIncomplete {
		t.Fatalf("status = %s", incomplete.Status())
	}
	noState := Record{}
	if noState.Status() != synthesis.StatusIncomplete {
		t.Fatalf("status = %s", noState.Status())
	}
	done := Record{State: &conversation.ConversationState{Complete: true}}
	if done.Status() != synthesis.StatusCompleted {
		t.Fatalf("status = %s", done.Status())
	}
}

func TestStoreSourceFetchesInterviews(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, Record{
		ID:              "s1",
		Kind:            KindInterview,
		ParticipantName: "Sam",
		ParticipantRole: "executive",
		State:           &conversation.ConversationState{Complete: true},
		History:         []conversation.Utterance{conversation.User("an answer")},
	})
	_ = store.Put(ctx, Record{ID: "s1/reflection", Kind: KindReflection})

	source := NewStoreSource(store)
	got, err := source.FetchTranscript(ctx, "s1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != synthesis.StatusCompleted || got.Role != "executive" || len(got.History) != 1 {
		t.Fatalf("transcript wrong: %+v", got)
	}

	if _, err := source.FetchTranscript(ctx, "s1/reflection"); err == nil {
		t.Fatal("reflection session accepted as an interview transcript")
	}
	if _, err := source.FetchTranscript(ctx, "missing"); err == nil {
		t.Fatal("missing session fetched")
	}
}

func TestFileSourceFetchesJSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.json")

	want := synthesis.StakeholderTranscript{
		SessionID: "s9",
		Role:      "contributor",
		Status:    synthesis.StatusCompleted,
		History:   []conversation.Utterance{conversation.User("an answer")},
	}
	raw, _ := json.Marshal(want)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileSource().FetchTranscript(context.Background(), path)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.SessionID != "s9" || got.Role != "contributor" || len(got.History) != 1 {
		t.Fatalf("transcript wrong: %+v", got)
	}
}

func TestFileSourceDefaultsSessionIDToPath(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "anon.json")
	if err := os.WriteFile(path, []byte(`{"role": "operations", "status": "completed", "history": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewFileSource().FetchTranscript(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SessionID != path {
		t.Fatalf("session id = %q, want the file path", got.SessionID)
	}
}

func TestFileSourceErrors(t *testing.T) {
	t.Parallel()
	source := NewFileSource()
	if _, err := source.FetchTranscript(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file fetched")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte("not json"), 0o644)
	if _, err := source.FetchTranscript(context.Background(), bad); err == nil {
		t.Fatal("malformed file fetched")
	}
}

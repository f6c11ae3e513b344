package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"attune/internal/synthesis"
)

// StoreSource resolves transcripts from a session store. It is the interview
// variant of the synthesis.TranscriptSource capability.
type StoreSource struct {
	store Store
}

// NewStoreSource constructs a store-backed transcript source.
func NewStoreSource(store Store) *StoreSource {
	return &StoreSource{store: store}
}

// FetchTranscript implements synthesis.TranscriptSource.
func (s *StoreSource) FetchTranscript(ctx context.Context, ref string) (synthesis.StakeholderTranscript, error) {
	record, err := s.store.Get(ctx, ref)
	if err != nil {
		return synthesis.StakeholderTranscript{}, err
	}
	if record.Kind != KindInterview {
		return synthesis.StakeholderTranscript{}, fmt.Errorf("session %s is a %s session, not an interview", ref, record.Kind)
	}
	return synthesis.StakeholderTranscript{
		SessionID:       record.ID,
		ParticipantName: record.ParticipantName,
		Role:            record.ParticipantRole,
		Status:          record.Status(),
		History:         record.History,
	}, nil
}

// FileSource resolves transcripts from JSON files, the import variant of the
// capability: refs are file paths holding a serialized StakeholderTranscript.
type FileSource struct{}

// NewFileSource constructs a file-backed transcript source.
func NewFileSource() *FileSource { return &FileSource{} }

// FetchTranscript implements synthesis.TranscriptSource.
func (f *FileSource) FetchTranscript(_ context.Context, ref string) (synthesis.StakeholderTranscript, error) {
	raw, err := os.ReadFile(ref)
	if err != nil {
		return synthesis.StakeholderTranscript{}, fmt.Errorf("read transcript %s: %w", ref, err)
	}
	var t synthesis.StakeholderTranscript
	if err := json.Unmarshal(raw, &t); err != nil {
		return synthesis.StakeholderTranscript{}, fmt.Errorf("parse transcript %s: %w", ref, err)
	}
	if t.SessionID == "" {
		t.SessionID = ref
	}
	return t, nil
}

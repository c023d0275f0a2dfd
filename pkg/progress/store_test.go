package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pindm/pkg/logger"
	"pindm/pkg/pinterest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress.json")
	store, err := NewStore(path, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestRecordAndHas(t *testing.T) {
	store := newTestStore(t)

	key := "sender1_msg1_https://i.pinimg.com/originals/ab/cd/ef.jpg"
	if store.Has(key) {
		t.Error("Fresh store should not contain any keys")
	}

	if err := store.Record(key, "msg1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if !store.Has(key) {
		t.Error("Recorded key should be present")
	}
	if store.LastProcessedMessageID() != "msg1" {
		t.Errorf("Unexpected last message id: %q", store.LastProcessedMessageID())
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	key := "s_m_https://i.pinimg.com/originals/a.jpg"
	for i := 0; i < 3; i++ {
		if err := store.Record(key, "m"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	if store.Count() != 1 {
		t.Errorf("Expected a single entry after repeated records, got %d", store.Count())
	}
}

func TestDistinctImagesSameMessage(t *testing.T) {
	store := newTestStore(t)

	// Two attachments from the same message differ only by image URL and
	// must be tracked independently
	first := pinterest.AttachmentRecord{
		SenderID: "s1", MessageID: "m1",
		ImageURL: "https://i.pinimg.com/originals/aa.jpg",
	}
	second := pinterest.AttachmentRecord{
		SenderID: "s1", MessageID: "m1",
		ImageURL: "https://i.pinimg.com/originals/bb.jpg",
	}

	if first.DedupKey() == second.DedupKey() {
		t.Fatal("Distinct image URLs must produce distinct dedup keys")
	}

	if err := store.Record(first.DedupKey(), first.MessageID); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if store.Has(second.DedupKey()) {
		t.Error("Second attachment must not be considered downloaded")
	}
	if err := store.Record(second.DedupKey(), second.MessageID); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if store.Count() != 2 {
		t.Errorf("Expected 2 entries, got %d", store.Count())
	}
}

func TestPersistenceAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	store, err := NewStore(path, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Record("s_m1_url1", "m1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record("s_m2_url2", "m2"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	reopened, err := NewStore(path, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	if !reopened.Has("s_m1_url1") || !reopened.Has("s_m2_url2") {
		t.Error("Reopened store must contain previously recorded keys")
	}
	if reopened.LastProcessedMessageID() != "m2" {
		t.Errorf("Unexpected last message id after reload: %q", reopened.LastProcessedMessageID())
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	if err := store.Record("s_m_url", "m"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if store.Count() != 0 {
		t.Errorf("Expected empty store after clear, got %d entries", store.Count())
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("Progress file should be removed after clear")
	}
	if store.Has("s_m_url") {
		t.Error("Cleared key should not be present")
	}
}

func TestOnDiskFormat(t *testing.T) {
	store := newTestStore(t)

	if err := store.Record("b_key", "m1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record("a_key", "m2"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("Failed to read progress file: %v", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("Failed to decode progress file: %v", err)
	}

	if len(state.DownloadedImages) != 2 {
		t.Fatalf("Expected 2 keys on disk, got %d", len(state.DownloadedImages))
	}
	if state.DownloadedImages[0] != "a_key" || state.DownloadedImages[1] != "b_key" {
		t.Errorf("Expected sorted keys on disk, got %v", state.DownloadedImages)
	}
	if state.LastProcessedMessageID != "m2" {
		t.Errorf("Unexpected last processed message id: %q", state.LastProcessedMessageID)
	}
	if state.Version != 1 {
		t.Errorf("Unexpected version: %d", state.Version)
	}
}

package audit

import (
	"context"
	"testing"

	"github.com/fentz26/dosewatch/internal/store"
)

func TestJournalRecord(t *testing.T) {
	s, err := store.New(store.MemoryDSN)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	j := NewJournal(s)
	d, err := j.Record(context.Background(), "reminder.snooze", map[string]string{"medicine_id": "1"}, "success", "1", "")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if d.InputsHash != hashInputs(map[string]string{"medicine_id": "1"}) {
		t.Errorf("Unexpected inputs hash %s", d.InputsHash)
	}
	if len(d.InputsHash) != 64 {
		t.Errorf("Expected hex sha256, got %q", d.InputsHash)
	}
}

func TestJournalNil(t *testing.T) {
	var j *Journal
	d, err := j.Record(context.Background(), "noop", nil, "success", "", "")
	if err != nil || d != nil {
		t.Errorf("Expected nil journal to discard, got %v, %v", d, err)
	}
}

func TestHashInputs_Unmarshalable(t *testing.T) {
	if got := hashInputs(make(chan int)); got != "hash_error" {
		t.Errorf("Expected hash_error, got %s", got)
	}
}

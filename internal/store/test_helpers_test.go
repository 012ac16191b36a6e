package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore opens a throwaway store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCycle creates a cycle with a fixed creation time.
func createTestCycle(id, scenario string) Cycle {
	return Cycle{
		ID:        id,
		Scenario:  scenario,
		CreatedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

// createTestDispatch creates a dispatch with minimal required fields.
func createTestDispatch(cycleID string, seq int, eventType, target string) Dispatch {
	return Dispatch{
		CycleID:   cycleID,
		Seq:       seq,
		Sink:      "dispatch",
		EventType: eventType,
		Target:    target,
	}
}

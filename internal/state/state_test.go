package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	if len(s.EnabledOverlays()) != 0 {
		t.Errorf("overlays = %v, want none", s.EnabledOverlays())
	}
	if s.IsNewsRead("2026-08-01-profile-upgrade") {
		t.Error("empty store reports item read")
	}
}

func TestOverlayLifecyclePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	enabledAt := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	syncedAt := enabledAt.Add(2 * time.Minute)

	s1, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s1.EnableOverlay("guru", enabledAt); err != nil {
		t.Fatalf("EnableOverlay() error = %v", err)
	}
	if err := s1.RecordSync("guru", syncedAt, true); err != nil {
		t.Fatalf("RecordSync() error = %v", err)
	}

	s2, err := Load(path)
	if err != nil {
		t.Fatalf("reload Load() error = %v", err)
	}
	rec, ok := s2.Overlay("guru")
	if !ok {
		t.Fatal("overlay record lost across reload")
	}
	if !rec.EnabledAt.Equal(enabledAt) {
		t.Errorf("EnabledAt = %v, want %v", rec.EnabledAt, enabledAt)
	}
	if !rec.LastSync.Equal(syncedAt) {
		t.Errorf("LastSync = %v, want %v", rec.LastSync, syncedAt)
	}
	if rec.SyncFailed {
		t.Error("successful sync left SyncFailed set")
	}
}

func TestRecordSyncFailureKeepsOverlayEnabled(t *testing.T) {
	s := newTestStore(t)
	enabledAt := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	if err := s.EnableOverlay("guru", enabledAt); err != nil {
		t.Fatalf("EnableOverlay() error = %v", err)
	}
	if err := s.RecordSync("guru", enabledAt.Add(time.Minute), false); err != nil {
		t.Fatalf("RecordSync() error = %v", err)
	}

	rec, ok := s.Overlay("guru")
	if !ok {
		t.Fatal("failed sync removed the overlay record")
	}
	if !rec.SyncFailed {
		t.Error("SyncFailed not set after failed sync")
	}
	if !rec.LastSync.IsZero() {
		t.Errorf("LastSync = %v, want zero for never-synced overlay", rec.LastSync)
	}

	// A later success clears the flag.
	okAt := enabledAt.Add(time.Hour)
	if err := s.RecordSync("guru", okAt, true); err != nil {
		t.Fatalf("RecordSync() error = %v", err)
	}
	rec, _ = s.Overlay("guru")
	if rec.SyncFailed {
		t.Error("SyncFailed not cleared by successful sync")
	}
	if !rec.LastSync.Equal(okAt) {
		t.Errorf("LastSync = %v, want %v", rec.LastSync, okAt)
	}
}

func TestRemoveOverlay(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	if err := s.EnableOverlay("guru", at); err != nil {
		t.Fatalf("EnableOverlay() error = %v", err)
	}
	if err := s.RemoveOverlay("guru"); err != nil {
		t.Fatalf("RemoveOverlay() error = %v", err)
	}
	if _, ok := s.Overlay("guru"); ok {
		t.Error("overlay still present after removal")
	}
	if err := s.RemoveOverlay("guru"); err != nil {
		t.Errorf("removing absent overlay error = %v", err)
	}
}

func TestMarkAllNewsReadIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ids := []string{"2026-07-01-news-a", "2026-08-01-news-b"}
	if err := s.MarkAllNewsRead(ids); err != nil {
		t.Fatalf("MarkAllNewsRead() error = %v", err)
	}
	if err := s.MarkAllNewsRead(ids); err != nil {
		t.Fatalf("second MarkAllNewsRead() error = %v", err)
	}

	for _, id := range ids {
		if !s.IsNewsRead(id) {
			t.Errorf("item %s not read", id)
		}
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload Load() error = %v", err)
	}
	for _, id := range ids {
		if !reloaded.IsNewsRead(id) {
			t.Errorf("item %s lost across reload", id)
		}
	}
}

func TestPurgeNewsRead(t *testing.T) {
	s := newTestStore(t)

	if err := s.MarkNewsRead("2026-08-01-news-a"); err != nil {
		t.Fatalf("MarkNewsRead() error = %v", err)
	}
	if err := s.MarkAdvisoryRead("202608-01"); err != nil {
		t.Fatalf("MarkAdvisoryRead() error = %v", err)
	}

	if err := s.PurgeNewsRead(); err != nil {
		t.Fatalf("PurgeNewsRead() error = %v", err)
	}
	if s.IsNewsRead("2026-08-01-news-a") {
		t.Error("news read mark survived purge")
	}
	if !s.IsAdvisoryRead("202608-01") {
		t.Error("purging news read marks touched advisory marks")
	}
}

func TestLoadCorruptedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("overlays: [not: a: map"), 0644); err != nil {
		t.Fatalf("writing corrupted state: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() on corrupted file error = %v, want recovery", err)
	}
	if got := s.EnabledOverlays(); len(got) != 0 {
		t.Errorf("EnabledOverlays() = %v, want empty after recovery", got)
	}

	// The unreadable file is kept aside, not silently destroyed.
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("corrupted file not moved aside: %v", err)
	}

	// The recovered store is writable again.
	if err := s.MarkNewsRead("2026-01-01-item"); err != nil {
		t.Fatalf("MarkNewsRead() after recovery error = %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after recovery error = %v", err)
	}
	if !reloaded.IsNewsRead("2026-01-01-item") {
		t.Error("mark written after recovery did not persist")
	}
}

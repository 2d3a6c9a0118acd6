package whatsapp

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAuthFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCleanerRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"creds.json", "session.tmp", "db.lock", "temp-creds"} {
		writeAuthFile(t, dir, name)
	}

	cleaner := NewCleaner(CleanerConfig{
		Dir: dir, Interval: time.Hour, MaxPreKeys: 100, MaxDirSizeMB: 50,
	})
	cleaner.Cleanup()

	stats := cleaner.Stats()
	if stats.FileCount != 1 {
		t.Fatalf("expected only creds.json to survive, have %d files", stats.FileCount)
	}
	if _, err := os.Stat(filepath.Join(dir, "creds.json")); err != nil {
		t.Fatalf("creds.json was removed: %v", err)
	}
}

func TestCleanerTrimsOldestPreKeys(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 10; i++ {
		writeAuthFile(t, dir, fmt.Sprintf("pre-key-%d.json", i))
	}

	cleaner := NewCleaner(CleanerConfig{
		Dir: dir, Interval: time.Hour, MaxPreKeys: 4, MaxDirSizeMB: 50,
	})
	cleaner.Cleanup()

	stats := cleaner.Stats()
	if stats.PreKeyCount != 4 {
		t.Fatalf("expected 4 pre-keys after trim, have %d", stats.PreKeyCount)
	}

	// The highest-numbered keys are the ones the bridge still uses.
	for i := 7; i <= 10; i++ {
		if _, err := os.Stat(filepath.Join(dir, fmt.Sprintf("pre-key-%d.json", i))); err != nil {
			t.Fatalf("recent pre-key %d was removed: %v", i, err)
		}
	}
}

func TestCleanerMissingDirIsHarmless(t *testing.T) {
	cleaner := NewCleaner(CleanerConfig{
		Dir: filepath.Join(t.TempDir(), "nope"), Interval: time.Hour, MaxPreKeys: 4, MaxDirSizeMB: 50,
	})
	cleaner.Cleanup()

	if stats := cleaner.Stats(); stats.FileCount != 0 {
		t.Fatalf("unexpected stats for missing dir: %+v", stats)
	}
}

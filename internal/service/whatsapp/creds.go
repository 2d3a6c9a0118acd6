package whatsapp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CredsStore persists credential material the bridge reports. A missed
// write means the next restart falls back to full pairing, so every
// update is flushed to disk immediately.
type CredsStore struct {
	dir string
}

// NewCredsStore ensures the auth directory exists.
func NewCredsStore(dir string) (*CredsStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creds: create auth dir: %w", err)
	}
	return &CredsStore{dir: dir}, nil
}

// Dir returns the auth directory path.
func (s *CredsStore) Dir() string { return s.dir }

// Save writes one named credential blob. The temp-then-rename dance keeps
// a crash from leaving a truncated credential file.
func (s *CredsStore) Save(name string, data []byte) error {
	name = sanitizeCredName(name)
	if name == "" {
		return fmt.Errorf("creds: empty credential name")
	}

	tmp := filepath.Join(s.dir, "temp-"+name)
	final := filepath.Join(s.dir, name+".json")

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("creds: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("creds: commit %s: %w", name, err)
	}
	return nil
}

// Wipe deletes the whole auth directory. Used by forced re-pairing.
func (s *CredsStore) Wipe() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("creds: wipe auth dir: %w", err)
	}
	return os.MkdirAll(s.dir, 0o700)
}

// sanitizeCredName keeps credential names inside the auth directory.
func sanitizeCredName(name string) string {
	name = strings.TrimSuffix(name, ".json")
	name = strings.ReplaceAll(name, string(os.PathSeparator), "-")
	return strings.TrimSpace(name)
}

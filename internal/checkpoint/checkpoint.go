// Package checkpoint persists the single "last processed UID" value that
// bounds the incremental header fetch between invocations.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joshsymonds/mailreap/internal/imap"
)

// Store reads and writes one UID in one file. A missing file means no
// checkpoint, which is a normal first-run condition, not an error.
type Store struct {
	Path string
}

// DefaultPath places the checkpoint under the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "mailreap", "last_uid"), nil
}

// Load returns the checkpointed UID and whether one exists.
func (s *Store) Load() (imap.UID, bool, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint %s: %w", s.Path, err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("invalid checkpoint %q in %s: %w", trimmed, s.Path, err)
	}
	return imap.UID(value), true, nil
}

// Save writes the checkpoint, creating the parent directory when needed.
func (s *Store) Save(uid imap.UID) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	data := []byte(strconv.FormatUint(uint64(uid), 10) + "\n")
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", s.Path, err)
	}
	return nil
}

package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsFirstRun(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "last_uid")}
	uid, ok, err := s.Load()
	if err != nil {
		t.Fatalf("missing checkpoint must not error: %v", err)
	}
	if ok || uid != 0 {
		t.Fatalf("expected no checkpoint, got uid=%d ok=%v", uid, ok)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	// The parent directory does not exist yet; Save must create it.
	s := &Store{Path: filepath.Join(t.TempDir(), "mailreap", "last_uid")}
	if err := s.Save(12345); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	uid, ok, err := s.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok || uid != 12345 {
		t.Fatalf("round trip lost the value: uid=%d ok=%v", uid, ok)
	}
}

func TestLoadToleratesWhitespaceAndEmpty(t *testing.T) {
	dir := t.TempDir()

	padded := filepath.Join(dir, "padded")
	if err := os.WriteFile(padded, []byte("  77 \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	uid, ok, err := (&Store{Path: padded}).Load()
	if err != nil || !ok || uid != 77 {
		t.Fatalf("padded value: uid=%d ok=%v err=%v", uid, ok, err)
	}

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	uid, ok, err = (&Store{Path: empty}).Load()
	if err != nil || ok || uid != 0 {
		t.Fatalf("empty file should read as no checkpoint: uid=%d ok=%v err=%v", uid, ok, err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_uid")
	if err := os.WriteFile(path, []byte("not-a-number\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := (&Store{Path: path}).Load(); err == nil {
		t.Fatal("garbage checkpoint must error")
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "last_uid")}
	if err := s.Save(10); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(20); err != nil {
		t.Fatal(err)
	}
	uid, ok, err := s.Load()
	if err != nil || !ok || uid != 20 {
		t.Fatalf("expected the later value: uid=%d ok=%v err=%v", uid, ok, err)
	}
}

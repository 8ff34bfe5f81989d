package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	baseerr "github.com/hexrift/gitrip/pkg/common/err"
	"github.com/hexrift/gitrip/pkg/objects"
)

func TestOpenCreatesGitDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dump")

	s, err := Open(out, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	info, err := os.Stat(s.GitDir())
	if err != nil || !info.IsDir() {
		t.Errorf(".git not created: %v", err)
	}
}

func TestOpenRefusesNonEmptyDir(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "stale"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(out, false); err == nil {
		t.Fatal("Open should refuse a non-empty directory without reuse")
	}

	if _, err := Open(out, true); err != nil {
		t.Errorf("Open with reuse should succeed: %v", err)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	s, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("ref: refs/heads/main\n")
	if err := s.WriteFile("HEAD", data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := s.ReadFile("HEAD")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("round trip = %q, want %q", got, data)
	}
}

func TestWriteFileNested(t *testing.T) {
	s, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.WriteFile("refs/heads/main", []byte("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391\n")); err != nil {
		t.Fatalf("WriteFile nested: %v", err)
	}

	if _, err := os.Stat(filepath.Join(s.GitDir(), "refs", "heads", "main")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	s, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.ReadFile("packed-refs")
	if !baseerr.IsCode(err, baseerr.CodeAbsent) {
		t.Errorf("missing file should carry CodeAbsent, got %v", err)
	}
}

func TestWriteObjectIdempotent(t *testing.T) {
	s, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}

	id := objects.ObjectID("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	if err := s.WriteObject(id, []byte("first")); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	if !s.HasObject(id) {
		t.Fatal("object should exist after write")
	}

	// Objects are immutable; a second write with different bytes is a no-op.
	if err := s.WriteObject(id, []byte("second")); err != nil {
		t.Fatalf("second WriteObject: %v", err)
	}
	got, err := s.ReadObject(id)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("object content = %q, want original bytes", got)
	}
}

func TestWriteObjectLayout(t *testing.T) {
	s, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}

	id := objects.ObjectID("4b825dc642cb6eb9a060e54bf8d69288fbee4904")
	if err := s.WriteObject(id, []byte("data")); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(s.GitDir(), "objects", "4b", "825dc642cb6eb9a060e54bf8d69288fbee4904")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("object not at canonical path: %v", err)
	}
}

func TestWriteObjectRejectsInvalidID(t *testing.T) {
	s, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteObject("nothex", []byte("x")); err == nil {
		t.Error("invalid id should be rejected")
	}
}

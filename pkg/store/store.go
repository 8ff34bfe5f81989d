package store

import (
	"fmt"
	"os"
	"path/filepath"

	baseerr "github.com/hexrift/gitrip/pkg/common/err"
	"github.com/hexrift/gitrip/pkg/common/fileops"
	"github.com/hexrift/gitrip/pkg/gitpath"
	"github.com/hexrift/gitrip/pkg/objects"
)

const pkgName = "store"

// Store is the on-disk mirror of the target's .git directory being
// reconstructed. Everything fetched is written byte-for-byte at the layout
// a standard git client expects, so the user can run checkout/log against
// the result directly.
//
//	<out>/.git/HEAD
//	<out>/.git/refs/heads/main
//	<out>/.git/objects/e6/9de29b...
type Store struct {
	gitDir string
}

// Open prepares the output directory. The directory is created if missing.
// A non-empty directory is refused unless reuse is set, since dumping into
// an unrelated tree is almost always a mistake; with reuse, a previous
// partial dump is extended idempotently.
func Open(outDir string, reuse bool) (*Store, error) {
	if outDir == "" {
		return nil, baseerr.New(pkgName, baseerr.CodeInvalidInput, "open", "output directory is required", nil)
	}

	if !reuse {
		empty, err := fileops.IsEmptyDir(outDir)
		if err != nil {
			return nil, baseerr.Wrap(err, pkgName, baseerr.CodeStore, "open")
		}
		if !empty {
			return nil, baseerr.New(pkgName, baseerr.CodeInvalidInput, "open",
				fmt.Sprintf("output directory %s is not empty (use --force to reuse it)", outDir), nil)
		}
	}

	gitDir := filepath.Join(outDir, ".git")
	if err := fileops.EnsureDir(gitDir); err != nil {
		return nil, baseerr.Wrap(err, pkgName, baseerr.CodeStore, "open")
	}

	return &Store{gitDir: gitDir}, nil
}

// GitDir returns the absolute-ish path of the mirrored .git directory.
func (s *Store) GitDir() string {
	return s.gitDir
}

// WriteFile writes fetched bytes verbatim at their relative location.
// The write is atomic, so an interrupted run never leaves a torn file.
func (s *Store) WriteFile(rel gitpath.RelPath, data []byte) error {
	target := filepath.Join(s.gitDir, filepath.FromSlash(rel.String()))

	if err := fileops.EnsureParentDir(target); err != nil {
		return baseerr.Wrap(err, pkgName, baseerr.CodeStore, "write_file")
	}
	if err := fileops.AtomicWrite(target, data, 0644); err != nil {
		return baseerr.Wrap(err, pkgName, baseerr.CodeStore, "write_file")
	}
	return nil
}

// ReadFile reads a previously written file back, e.g. for resolving a
// symbolic HEAD against an already-fetched ref. Missing files return
// os.ErrNotExist wrapped with CodeAbsent.
func (s *Store) ReadFile(rel gitpath.RelPath) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.gitDir, filepath.FromSlash(rel.String())))
	if os.IsNotExist(err) {
		return nil, baseerr.Wrap(err, pkgName, baseerr.CodeAbsent, "read_file")
	}
	if err != nil {
		return nil, baseerr.Wrap(err, pkgName, baseerr.CodeStore, "read_file")
	}
	return data, nil
}

// WriteObject stores the raw compressed bytes of a loose object. Objects
// are content-addressed and immutable, so an object already present on disk
// is left untouched; that is what makes re-runs cheap and safe.
func (s *Store) WriteObject(id objects.ObjectID, compressed []byte) error {
	rel, err := id.Path()
	if err != nil {
		return baseerr.Wrap(err, pkgName, baseerr.CodeInvalidInput, "write_object")
	}

	target := filepath.Join(s.gitDir, filepath.FromSlash(rel.String()))
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	if err := fileops.EnsureParentDir(target); err != nil {
		return baseerr.Wrap(err, pkgName, baseerr.CodeStore, "write_object")
	}
	if err := fileops.AtomicWrite(target, compressed, 0444); err != nil {
		return baseerr.Wrap(err, pkgName, baseerr.CodeStore, "write_object")
	}
	return nil
}

// HasObject reports whether the loose object is already on disk.
func (s *Store) HasObject(id objects.ObjectID) bool {
	rel, err := id.Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(s.gitDir, filepath.FromSlash(rel.String())))
	return err == nil
}

// ReadObject reads back the raw compressed bytes of a stored object.
func (s *Store) ReadObject(id objects.ObjectID) ([]byte, error) {
	rel, err := id.Path()
	if err != nil {
		return nil, baseerr.Wrap(err, pkgName, baseerr.CodeInvalidInput, "read_object")
	}
	return s.ReadFile(rel)
}

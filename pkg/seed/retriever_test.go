package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hexrift/gitrip/pkg/gitpath"
	"github.com/hexrift/gitrip/pkg/remote"
	"github.com/hexrift/gitrip/pkg/store"
)

// fakeGitServer serves a map of .git-relative paths.
func fakeGitServer(t *testing.T, files map[string]string) *remote.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	target, err := remote.ParseTarget(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	return remote.NewClient(target, remote.WithJobs(4), remote.WithRetries(1))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunRetrievesExposedSubset(t *testing.T) {
	client := fakeGitServer(t, map[string]string{
		"/.git/HEAD":            "ref: refs/heads/main\n",
		"/.git/refs/heads/main": "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391\n",
	})
	st := newTestStore(t)

	res, err := NewRetriever(client, st, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := res.Files[gitpath.Head]; !ok {
		t.Error("HEAD should have been retrieved")
	}
	if _, ok := res.Files["refs/heads/main"]; !ok {
		t.Error("refs/heads/main should have been retrieved")
	}
	if len(res.Missing) == 0 {
		t.Error("most dictionary entries should be missing on this server")
	}

	// Retrieved files land verbatim in the store.
	data, err := st.ReadFile(gitpath.Head)
	if err != nil || string(data) != "ref: refs/heads/main\n" {
		t.Errorf("stored HEAD = %q, err %v", data, err)
	}
}

func TestRunFollowsImpliedRefs(t *testing.T) {
	// The branch name is one no guess list would contain; only the HEAD
	// indirection reveals it.
	client := fakeGitServer(t, map[string]string{
		"/.git/HEAD":                         "ref: refs/heads/fix/ISSUE-9412\n",
		"/.git/refs/heads/fix/ISSUE-9412":    "4b825dc642cb6eb9a060e54bf8d69288fbee4904\n",
		"/.git/logs/refs/heads/fix/ISSUE-9412": "entry\n",
	})
	st := newTestStore(t)

	res, err := NewRetriever(client, st, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := res.Files["refs/heads/fix/ISSUE-9412"]; !ok {
		t.Error("ref named by HEAD should have been fetched in the second pass")
	}
	if _, ok := res.Files["logs/refs/heads/fix/ISSUE-9412"]; !ok {
		t.Error("reflog of the implied ref should have been fetched too")
	}
}

func TestRunFollowsPackedRefNames(t *testing.T) {
	client := fakeGitServer(t, map[string]string{
		"/.git/HEAD": "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391\n",
		"/.git/packed-refs": "# pack-refs with: peeled fully-peeled\n" +
			"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa refs/heads/exotic-name\n",
		"/.git/refs/heads/exotic-name": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n",
	})
	st := newTestStore(t)

	res, err := NewRetriever(client, st, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := res.Files["refs/heads/exotic-name"]; !ok {
		t.Error("ref named in packed-refs should have been fetched")
	}
}

func TestRunFetchesListedPacks(t *testing.T) {
	client := fakeGitServer(t, map[string]string{
		"/.git/HEAD":                          "ref: refs/heads/main\n",
		"/.git/objects/info/packs":            "P pack-deadbeef.pack\n",
		"/.git/objects/pack/pack-deadbeef.pack": "PACKdata",
		"/.git/objects/pack/pack-deadbeef.idx":  "IDXdata",
	})
	st := newTestStore(t)

	res, err := NewRetriever(client, st, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := res.Files["objects/pack/pack-deadbeef.pack"]; !ok {
		t.Error("listed pack file should have been fetched verbatim")
	}
	if _, ok := res.Files["objects/pack/pack-deadbeef.idx"]; !ok {
		t.Error("pack index twin should have been fetched")
	}
}

func TestRunNothingExposed(t *testing.T) {
	client := fakeGitServer(t, map[string]string{})
	st := newTestStore(t)

	res, err := NewRetriever(client, st, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run itself never fails on absence: %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("no files should be retrieved, got %d", len(res.Files))
	}

	// Nothing written either.
	entries, err := os.ReadDir(filepath.Join(st.GitDir()))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("store should be empty, got %d entries", len(entries))
	}
}

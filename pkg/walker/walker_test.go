package walker

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hexrift/gitrip/pkg/objects"
	"github.com/hexrift/gitrip/pkg/remote"
	"github.com/hexrift/gitrip/pkg/store"
)

const (
	idCommit = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	idParent = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	idTree   = "cccccccccccccccccccccccccccccccccccccccc"
	idSub    = "dddddddddddddddddddddddddddddddddddddddd"
	idBlob   = "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	idGone   = "1111111111111111111111111111111111111111"
)

type fakeObjects struct {
	data map[string][]byte
	hits atomic.Int64
}

func (f *fakeObjects) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/.git/")
		body, ok := f.data[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		f.hits.Add(1)
		w.Write(body)
	})
}

func (f *fakeObjects) add(t *testing.T, id string, objType objects.ObjectType, content []byte) {
	t.Helper()
	compressed, err := objects.Compress(objects.Serialize(objType, content))
	if err != nil {
		t.Fatalf("compress fixture: %v", err)
	}
	f.data["objects/"+id[:2]+"/"+id[2:]] = compressed
}

func rawID(t *testing.T, id string) []byte {
	t.Helper()
	raw, err := hex.DecodeString(id)
	if err != nil {
		t.Fatalf("decode id fixture: %v", err)
	}
	return raw
}

func treeContent(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e[0])
		buf.WriteByte(0)
		buf.Write(rawID(t, e[1]))
	}
	return buf.Bytes()
}

func commitContent(tree string, parents ...string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", tree)
	for _, p := range parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	buf.WriteString("author A <a@example.com> 1700000000 +0000\n\nmsg\n")
	return buf.Bytes()
}

// graphFixture builds a small history where the same blob is reachable
// through two trees, exercising the visited set.
func graphFixture(t *testing.T) *fakeObjects {
	t.Helper()
	f := &fakeObjects{data: make(map[string][]byte)}
	f.add(t, idCommit, objects.CommitType, commitContent(idTree, idParent))
	f.add(t, idParent, objects.CommitType, commitContent(idSub))
	f.add(t, idTree, objects.TreeType, treeContent(t,
		[2]string{"100644 readme.md", idBlob},
		[2]string{"40000 lib", idSub},
	))
	f.add(t, idSub, objects.TreeType, treeContent(t,
		[2]string{"100644 main.go", idBlob},
	))
	f.add(t, idBlob, objects.BlobType, []byte("package main\n"))
	return f
}

func newWalker(t *testing.T, serverURL string, st *store.Store) *Walker {
	t.Helper()
	target, err := remote.ParseTarget(serverURL)
	if err != nil {
		t.Fatalf("ParseTarget: %v", err)
	}
	return New(remote.NewClient(target, remote.WithRetries(1)), st, 4)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	return st
}

func TestWalkDiamondFetchesEachObjectOnce(t *testing.T) {
	f := graphFixture(t)
	server := httptest.NewServer(f.handler())
	defer server.Close()

	st := newTestStore(t)
	w := newWalker(t, server.URL, st)

	stats := w.Walk(context.Background(), []objects.ObjectID{objects.ObjectID(idCommit)})

	if stats.Fetched != 5 {
		t.Errorf("Fetched = %d, want 5", stats.Fetched)
	}
	if stats.Unreachable != 0 || stats.Corrupt != 0 {
		t.Errorf("unexpected failures: %+v", stats)
	}
	if got := f.hits.Load(); got != 5 {
		t.Errorf("server served %d objects, want 5 (shared blob must be fetched once)", got)
	}
	for _, id := range []string{idCommit, idParent, idTree, idSub, idBlob} {
		if !st.HasObject(objects.ObjectID(id)) {
			t.Errorf("object %s missing from store", id[:7])
		}
	}
}

func TestWalkCountsUnreachableObjects(t *testing.T) {
	f := &fakeObjects{data: make(map[string][]byte)}
	f.add(t, idCommit, objects.CommitType, commitContent(idGone))

	server := httptest.NewServer(f.handler())
	defer server.Close()

	st := newTestStore(t)
	w := newWalker(t, server.URL, st)

	stats := w.Walk(context.Background(), []objects.ObjectID{objects.ObjectID(idCommit)})

	if stats.Fetched != 1 {
		t.Errorf("Fetched = %d, want 1", stats.Fetched)
	}
	if stats.Unreachable != 1 {
		t.Errorf("Unreachable = %d, want 1", stats.Unreachable)
	}
}

func TestWalkCountsCorruptObjects(t *testing.T) {
	f := &fakeObjects{data: make(map[string][]byte)}
	f.data["objects/"+idCommit[:2]+"/"+idCommit[2:]] = []byte("not a zlib stream")

	server := httptest.NewServer(f.handler())
	defer server.Close()

	st := newTestStore(t)
	w := newWalker(t, server.URL, st)

	stats := w.Walk(context.Background(), []objects.ObjectID{objects.ObjectID(idCommit)})

	if stats.Corrupt != 1 {
		t.Errorf("Corrupt = %d, want 1", stats.Corrupt)
	}
	// Raw bytes are still saved for offline salvage.
	if !st.HasObject(objects.ObjectID(idCommit)) {
		t.Error("corrupt object bytes should still be stored")
	}
}

func TestWalkRerunReadsFromStore(t *testing.T) {
	f := graphFixture(t)
	server := httptest.NewServer(f.handler())
	defer server.Close()

	dir := t.TempDir()
	st, err := store.Open(dir, false)
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}

	w := newWalker(t, server.URL, st)
	w.Walk(context.Background(), []objects.ObjectID{objects.ObjectID(idCommit)})
	first := f.hits.Load()

	reused, err := store.Open(dir, true)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	w2 := newWalker(t, server.URL, reused)
	stats := w2.Walk(context.Background(), []objects.ObjectID{objects.ObjectID(idCommit)})

	if f.hits.Load() != first {
		t.Errorf("re-run hit the server %d more times, want 0", f.hits.Load()-first)
	}
	if stats.Fetched != 5 {
		t.Errorf("re-run Fetched = %d, want 5 from disk", stats.Fetched)
	}
}

func TestWalkIgnoresInvalidFrontierEntries(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	st := newTestStore(t)
	w := newWalker(t, server.URL, st)

	stats := w.Walk(context.Background(), []objects.ObjectID{
		"",
		"not-hex",
		objects.ObjectID(strings.Repeat("0", 40)),
	})
	if stats.Fetched != 0 || stats.Unreachable != 0 {
		t.Errorf("invalid entries should be dropped silently, got %+v", stats)
	}
	if w.Visited() != 0 {
		t.Errorf("Visited = %d, want 0", w.Visited())
	}
}

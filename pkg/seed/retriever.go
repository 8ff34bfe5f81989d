package seed

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hexrift/gitrip/pkg/common/logger"
	"github.com/hexrift/gitrip/pkg/gitpath"
	"github.com/hexrift/gitrip/pkg/remote"
	"github.com/hexrift/gitrip/pkg/store"
)

// Result is what seed retrieval recovered.
type Result struct {
	// Files maps every retrieved path to its raw bytes.
	Files map[gitpath.RelPath][]byte

	// Missing lists dictionary paths the server did not expose.
	Missing []gitpath.RelPath
}

// Retriever downloads the well-known metadata files that bootstrap
// reference and index discovery, writing each one verbatim into the store.
type Retriever struct {
	client   *remote.Client
	store    *store.Store
	wordlist *Wordlist
	log      *slog.Logger
}

// NewRetriever creates a seed retriever. A nil wordlist means the built-in
// dictionary.
func NewRetriever(client *remote.Client, st *store.Store, wordlist *Wordlist) *Retriever {
	if wordlist == nil {
		wordlist = DefaultWordlist()
	}
	return &Retriever{
		client:   client,
		store:    st,
		wordlist: wordlist,
		log:      logger.With("component", "seed"),
	}
}

// Run probes the dictionary, then follows what the retrieved files
// structurally imply: ref names found inside HEAD, packed-refs and
// info/refs, and pack file names listed in objects/info/packs. Absence of
// any individual file is expected and non-fatal; partially exposed servers
// are the common case.
func (r *Retriever) Run(ctx context.Context) (*Result, error) {
	res := &Result{Files: make(map[gitpath.RelPath][]byte)}

	r.fetchBatch(ctx, r.wordlist.Paths(), res)

	implied := r.impliedPaths(res.Files)
	if len(implied) > 0 {
		r.log.Debug("following implied paths", "count", len(implied))
		r.fetchBatch(ctx, implied, res)
	}

	return res, nil
}

// fetchBatch fetches paths not yet retrieved and stores the hits.
func (r *Retriever) fetchBatch(ctx context.Context, paths []gitpath.RelPath, res *Result) {
	var pending []gitpath.RelPath
	for _, p := range paths {
		if _, done := res.Files[p]; !done {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return
	}

	for path, fetched := range r.client.FetchMany(ctx, pending) {
		switch {
		case fetched.Found():
			if err := r.store.WriteFile(path, fetched.Data); err != nil {
				r.log.Warn("failed to store seed file", "path", path, "error", err)
				continue
			}
			r.log.Info("retrieved", "path", path, "bytes", len(fetched.Data))
			res.Files[path] = fetched.Data
		default:
			r.log.Debug("seed file not exposed", "path", path, "status", fetched.Status.String())
			res.Missing = append(res.Missing, path)
		}
	}
}

// impliedPaths extracts further paths the retrieved files name: loose refs
// and their reflogs for every refname seen, plus pack files listed by the
// dumb-protocol pack index.
func (r *Retriever) impliedPaths(files map[gitpath.RelPath][]byte) []gitpath.RelPath {
	var implied []gitpath.RelPath
	add := func(p gitpath.RelPath) {
		if _, done := files[p]; !done {
			implied = append(implied, p)
		}
	}

	for _, name := range impliedRefNames(files) {
		ref, err := gitpath.RefPath(name)
		if err != nil {
			continue
		}
		add(ref)
		add(gitpath.LogPath(ref))
	}

	if listing, ok := files[gitpath.InfoPacks]; ok {
		for _, name := range packNames(listing) {
			add(gitpath.RelPath(gitpath.PackDir + "/" + name))
		}
	}

	return implied
}

// impliedRefNames scans HEAD, packed-refs and info/refs for ref names.
func impliedRefNames(files map[gitpath.RelPath][]byte) []string {
	var names []string

	if head, ok := files[gitpath.Head]; ok {
		line := strings.TrimSpace(string(head))
		if target, ok := strings.CutPrefix(line, "ref: "); ok {
			names = append(names, strings.TrimSpace(target))
		}
	}

	if packed, ok := files[gitpath.PackedRefs]; ok {
		for _, line := range strings.Split(string(packed), "\n") {
			fields := strings.Fields(line)
			if len(fields) == 2 && !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "^") {
				names = append(names, fields[1])
			}
		}
	}

	if info, ok := files[gitpath.InfoRefs]; ok {
		for _, line := range strings.Split(string(info), "\n") {
			fields := strings.Fields(line)
			if len(fields) == 2 {
				names = append(names, fields[1])
			}
		}
	}

	return names
}

// packNames parses the objects/info/packs listing: one "P <name>" line per
// pack. The .idx twin of every .pack is included since git needs both.
func packNames(listing []byte) []string {
	var names []string
	for _, line := range strings.Split(string(listing), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[0] != "P" {
			continue
		}
		name := fields[1]
		if !strings.HasPrefix(name, "pack-") {
			continue
		}
		names = append(names, name)
		if idx, ok := strings.CutSuffix(name, ".pack"); ok {
			names = append(names, idx+".idx")
		}
	}
	return names
}

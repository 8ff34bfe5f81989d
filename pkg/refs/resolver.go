package refs

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/hexrift/gitrip/pkg/common/logger"
	"github.com/hexrift/gitrip/pkg/gitpath"
	"github.com/hexrift/gitrip/pkg/objects"
)

// Fetcher is the one extra capability the resolver needs: fetching a ref
// file HEAD points at when the seed pass did not already retrieve it.
type Fetcher interface {
	Fetch(ctx context.Context, path gitpath.RelPath) ([]byte, bool)
}

// Resolver turns the retrieved seed files into the set of object
// identifiers that seed the graph walk. Every source is best-effort:
// malformed or truncated files are the norm on partially exposed servers
// and are skipped without failing the run.
type Resolver struct {
	fetcher Fetcher
	log     *slog.Logger
}

// NewResolver creates a resolver. fetcher may be nil, in which case a
// symbolic HEAD pointing at an unretrieved ref is simply skipped.
func NewResolver(fetcher Fetcher) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		log:     logger.With("component", "refs"),
	}
}

// Resolve collects identifiers from every ref-bearing file in the seed set:
// HEAD (symbolic or detached), loose refs, packed-refs, info/refs and
// reflogs. The result is deduplicated and sorted for deterministic output.
func (r *Resolver) Resolve(ctx context.Context, files map[gitpath.RelPath][]byte) []objects.ObjectID {
	found := make(map[objects.ObjectID]bool)
	add := func(id objects.ObjectID) {
		if id.IsValid() && !id.IsZero() {
			found[id] = true
		}
	}

	for path, data := range files {
		switch {
		case path == gitpath.Head || path == "refs/remotes/origin/HEAD":
			r.resolveHead(ctx, data, files, add)
		case path == gitpath.PackedRefs:
			parsePackedRefs(data, add)
		case path == gitpath.InfoRefs:
			parseInfoRefs(data, add)
		case path.IsRef():
			parseLooseRef(data, add)
		case path.IsReflog():
			parseReflog(data, add)
		}
	}

	ids := make([]objects.ObjectID, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	r.log.Info("resolved references", "identifiers", len(ids))
	return ids
}

// resolveHead handles both forms of HEAD: a direct identifier (detached)
// or a "ref: refs/heads/X" indirection, resolved against the seed set
// first and by one extra fetch as a fallback.
func (r *Resolver) resolveHead(ctx context.Context, data []byte, files map[gitpath.RelPath][]byte, add func(objects.ObjectID)) {
	line := strings.TrimSpace(string(data))

	target, symbolic := strings.CutPrefix(line, "ref: ")
	if !symbolic {
		if id, err := objects.ParseObjectID(line); err == nil {
			add(id)
		}
		return
	}

	refPath, err := gitpath.RefPath(strings.TrimSpace(target))
	if err != nil {
		r.log.Debug("HEAD points at an invalid ref name", "target", target)
		return
	}

	if content, ok := files[refPath]; ok {
		parseLooseRef(content, add)
		return
	}

	if r.fetcher == nil {
		return
	}
	if content, ok := r.fetcher.Fetch(ctx, refPath); ok {
		parseLooseRef(content, add)
	}
}

// parseLooseRef reads a loose ref file: a bare identifier, or another
// "ref: " indirection (which carries no identifier itself and is skipped;
// the target ref is probed separately by the seed retriever).
func parseLooseRef(data []byte, add func(objects.ObjectID)) {
	line := strings.TrimSpace(string(data))
	if strings.HasPrefix(line, "ref: ") {
		return
	}
	if id, err := objects.ParseObjectID(line); err == nil {
		add(id)
	}
}

// parsePackedRefs reads "<identifier> <refname>" lines. "#" lines are
// comments; "^" lines carry the peeled target of the preceding annotated
// tag, which is an identifier worth collecting too.
func parsePackedRefs(data []byte, add func(objects.ObjectID)) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if peeled, ok := strings.CutPrefix(line, "^"); ok {
			if id, err := objects.ParseObjectID(peeled); err == nil {
				add(id)
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		if id, err := objects.ParseObjectID(fields[0]); err == nil {
			add(id)
		}
	}
}

// parseInfoRefs reads the dumb-protocol listing: "<identifier>\t<refname>".
func parseInfoRefs(data []byte, add func(objects.ObjectID)) {
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		if id, err := objects.ParseObjectID(fields[0]); err == nil {
			add(id)
		}
	}
}

// parseReflog reads reflog lines: "<old> <new> <author> ...". Both sides
// are collected since commits rewound away may be reachable only through
// their historical reflog entries. The zero identifier of a branch's first
// entry is filtered by the caller.
func parseReflog(data []byte, add func(objects.ObjectID)) {
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		for _, raw := range fields[:2] {
			if id, err := objects.ParseObjectID(raw); err == nil {
				add(id)
			}
		}
	}
}

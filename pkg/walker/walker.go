package walker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hexrift/gitrip/pkg/common/logger"
	"github.com/hexrift/gitrip/pkg/objects"
	"github.com/hexrift/gitrip/pkg/remote"
	"github.com/hexrift/gitrip/pkg/store"
)

// Stats summarizes a graph walk.
type Stats struct {
	// Fetched counts objects retrieved (or found already on disk) and
	// stored this run.
	Fetched int

	// Unreachable counts identifiers whose loose object the server did
	// not expose. They may exist only inside a packfile.
	Unreachable int

	// Corrupt counts objects that were fetched but failed to decompress
	// or parse. Their bytes are kept on disk anyway in case a later git
	// invocation can do better.
	Corrupt int
}

// Walker expands a frontier of object identifiers into the full reachable
// object graph, fetching each loose object at most once and mirroring its
// raw bytes into the store.
//
// Commits and trees share ancestors and subtrees freely, so the graph is
// traversed with an explicit visited set and work queue rather than
// recursion; deep histories would otherwise both blow the stack and fetch
// shared objects repeatedly.
type Walker struct {
	client *remote.Client
	store  *store.Store
	jobs   int
	log    *slog.Logger

	mu      sync.Mutex
	visited map[objects.ObjectID]bool
	stats   Stats
}

// New creates a walker. jobs bounds how many fetches are in flight.
func New(client *remote.Client, st *store.Store, jobs int) *Walker {
	if jobs <= 0 {
		jobs = remote.DefaultJobs
	}
	return &Walker{
		client:  client,
		store:   st,
		jobs:    jobs,
		log:     logger.With("component", "walker"),
		visited: make(map[objects.ObjectID]bool),
	}
}

// Walk drains the frontier and everything transitively reachable from it.
// Per-object failures (absent, corrupt) are counted, never fatal.
func (w *Walker) Walk(ctx context.Context, frontier []objects.ObjectID) Stats {
	var wg sync.WaitGroup
	sem := make(chan struct{}, w.jobs)

	for _, id := range frontier {
		w.enqueue(ctx, id, &wg, sem)
	}
	wg.Wait()

	w.mu.Lock()
	stats := w.stats
	w.mu.Unlock()

	w.log.Info("graph walk finished",
		"fetched", stats.Fetched,
		"unreachable", stats.Unreachable,
		"corrupt", stats.Corrupt)
	return stats
}

// enqueue schedules an identifier unless it was already scheduled. Marking
// the visited set before the goroutine starts is what guarantees each
// identifier is fetched at most once even with expansions racing.
func (w *Walker) enqueue(ctx context.Context, id objects.ObjectID, wg *sync.WaitGroup, sem chan struct{}) {
	if !id.IsValid() || id.IsZero() {
		return
	}

	w.mu.Lock()
	if w.visited[id] {
		w.mu.Unlock()
		return
	}
	w.visited[id] = true
	w.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()

		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return
		}

		w.process(ctx, id, wg, sem)
	}()
}

// process fetches, stores and expands one object.
func (w *Walker) process(ctx context.Context, id objects.ObjectID, wg *sync.WaitGroup, sem chan struct{}) {
	compressed, ok := w.obtain(ctx, id)
	if !ok {
		return
	}

	w.count(func(s *Stats) { s.Fetched++ })

	decoded, err := objects.Decode(compressed)
	if err != nil {
		w.log.Warn("object did not decode", "id", id.Short(), "error", err)
		w.count(func(s *Stats) { s.Corrupt++ })
		return
	}

	refs, err := decoded.References()
	if err != nil {
		w.log.Warn("object has malformed references", "id", id.Short(), "type", decoded.Type, "error", err)
		w.count(func(s *Stats) { s.Corrupt++ })
		// Partial references are still worth chasing.
	}
	for _, ref := range refs {
		w.enqueue(ctx, ref, wg, sem)
	}
}

// obtain returns the raw compressed object, from disk on a re-run or from
// the network otherwise, storing fresh fetches as a side effect.
func (w *Walker) obtain(ctx context.Context, id objects.ObjectID) ([]byte, bool) {
	if w.store.HasObject(id) {
		data, err := w.store.ReadObject(id)
		if err == nil {
			return data, true
		}
		w.log.Warn("stored object unreadable, refetching", "id", id.Short(), "error", err)
	}

	path, err := id.Path()
	if err != nil {
		return nil, false
	}

	res := w.client.Fetch(ctx, path)
	if !res.Found() {
		w.log.Debug("loose object not exposed", "id", id.Short(), "status", res.Status.String())
		w.count(func(s *Stats) { s.Unreachable++ })
		return nil, false
	}

	// Raw compressed bytes go to disk unmodified; git re-inflates on
	// demand and this tool never needs to re-compress.
	if err := w.store.WriteObject(id, res.Data); err != nil {
		w.log.Warn("failed to store object", "id", id.Short(), "error", err)
	}

	return res.Data, true
}

func (w *Walker) count(update func(*Stats)) {
	w.mu.Lock()
	update(&w.stats)
	w.mu.Unlock()
}

// Visited reports how many distinct identifiers were scheduled, for
// summary output.
func (w *Walker) Visited() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.visited)
}

package dumper

import (
	"context"
	"log/slog"

	baseerr "github.com/hexrift/gitrip/pkg/common/err"
	"github.com/hexrift/gitrip/pkg/common/logger"
	"github.com/hexrift/gitrip/pkg/gitpath"
	"github.com/hexrift/gitrip/pkg/index"
	"github.com/hexrift/gitrip/pkg/objects"
	"github.com/hexrift/gitrip/pkg/refs"
	"github.com/hexrift/gitrip/pkg/remote"
	"github.com/hexrift/gitrip/pkg/seed"
	"github.com/hexrift/gitrip/pkg/store"
	"github.com/hexrift/gitrip/pkg/walker"
)

// Options tune a dump run. The zero value gives sane defaults.
type Options struct {
	// Jobs bounds concurrent requests. Zero means remote.DefaultJobs.
	Jobs int

	// Retries is the per-request attempt budget for transport failures.
	// Zero means remote.DefaultRetries.
	Retries int

	// UserAgent overrides the request User-Agent when non-empty.
	UserAgent string

	// WordlistPath names an optional TOML file whose paths and branch
	// names extend the built-in dictionary.
	WordlistPath string

	// Force allows dumping into a non-empty output directory, skipping
	// objects already on disk.
	Force bool
}

// Summary reports what a dump run recovered.
type Summary struct {
	Target             string
	OutputDir          string
	SeedsFound         int
	SeedsMissing       int
	Refs               int
	IndexEntries       int
	ObjectsFetched     int
	ObjectsUnreachable int
	ObjectsCorrupt     int
}

// clientFetcher adapts the HTTP client to the ref resolver's one-shot
// fetch interface.
type clientFetcher struct {
	client *remote.Client
}

func (f clientFetcher) Fetch(ctx context.Context, path gitpath.RelPath) ([]byte, bool) {
	res := f.client.Fetch(ctx, path)
	if !res.Found() {
		return nil, false
	}
	return res.Data, true
}

// Dump reconstructs a local .git directory from an exposed remote one.
//
// The pipeline is seed retrieval, reference resolution, index parsing and
// a graph walk over everything the references and index mention. Every
// stage tolerates partial exposure; the run only fails outright when the
// target serves none of the seed files at all, which means there is no
// exposure to work with.
func Dump(ctx context.Context, rawTarget, outDir string, opts Options) (*Summary, error) {
	log := logger.With("component", "dumper")

	target, err := remote.ParseTarget(rawTarget)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(outDir, opts.Force)
	if err != nil {
		return nil, err
	}

	var clientOpts []remote.Option
	if opts.Jobs > 0 {
		clientOpts = append(clientOpts, remote.WithJobs(opts.Jobs))
	}
	if opts.Retries > 0 {
		clientOpts = append(clientOpts, remote.WithRetries(opts.Retries))
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, remote.WithUserAgent(opts.UserAgent))
	}
	client := remote.NewClient(target, clientOpts...)

	wordlist := seed.DefaultWordlist()
	if opts.WordlistPath != "" {
		if err := wordlist.LoadWordlist(opts.WordlistPath); err != nil {
			return nil, err
		}
	}

	log.Info("starting dump", "target", target.Base(), "output", st.GitDir())

	seeds, err := seed.NewRetriever(client, st, wordlist).Run(ctx)
	if err != nil {
		return nil, err
	}
	if len(seeds.Files) == 0 {
		return nil, baseerr.New("dumper", baseerr.CodeNoExposure, "seed",
			"target does not expose a .git directory", nil)
	}

	summary := &Summary{
		Target:       target.Base(),
		OutputDir:    st.GitDir(),
		SeedsFound:   len(seeds.Files),
		SeedsMissing: len(seeds.Missing),
	}

	ids := refs.NewResolver(clientFetcher{client}).Resolve(ctx, seeds.Files)
	summary.Refs = len(ids)

	frontier := append([]objects.ObjectID(nil), ids...)
	if data, ok := seeds.Files[gitpath.Index]; ok {
		frontier = append(frontier, indexBlobs(data, summary, log)...)
	}

	if len(frontier) == 0 {
		log.Warn("no object identifiers recovered, nothing to walk")
		return summary, nil
	}

	stats := walker.New(client, st, opts.Jobs).Walk(ctx, frontier)
	summary.ObjectsFetched = stats.Fetched
	summary.ObjectsUnreachable = stats.Unreachable
	summary.ObjectsCorrupt = stats.Corrupt

	return summary, nil
}

// indexBlobs extracts blob identifiers from a retrieved index file. Parse
// failures are downgraded: whatever entries survived still feed the walk.
func indexBlobs(data []byte, summary *Summary, log *slog.Logger) []objects.ObjectID {
	idx, err := index.Parse(data)
	if err != nil {
		log.Warn("index only partially parsed", "error", err)
	}
	if idx == nil {
		return nil
	}
	summary.IndexEntries = len(idx.Entries)
	return idx.BlobIDs()
}

package seed

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	baseerr "github.com/hexrift/gitrip/pkg/common/err"
	"github.com/hexrift/gitrip/pkg/gitpath"
)

const pkgName = "seed"

// branchGuesses are branch names worth probing blind. Servers expose no
// directory listings, so ref discovery beyond this list depends on what
// HEAD, packed-refs and info/refs happen to reveal.
var branchGuesses = []string{
	"master",
	"main",
	"develop",
	"dev",
	"staging",
	"production",
	"release",
}

// tagGuesses are tag names worth probing blind.
var tagGuesses = []string{
	"v1.0",
	"v1.0.0",
	"v0.1.0",
	"1.0",
	"latest",
}

// Wordlist is the dictionary of well-known paths the retriever probes.
// It is data, not logic: callers can extend it from a file without
// touching the resolver or walker.
type Wordlist struct {
	paths []gitpath.RelPath
	seen  map[gitpath.RelPath]bool
}

// NewWordlist creates an empty dictionary.
func NewWordlist() *Wordlist {
	return &Wordlist{seen: make(map[gitpath.RelPath]bool)}
}

// Add appends a path, silently dropping duplicates.
func (w *Wordlist) Add(p gitpath.RelPath) {
	if w.seen[p] {
		return
	}
	w.seen[p] = true
	w.paths = append(w.paths, p)
}

// AddBranch appends the loose ref, remote-tracking ref and reflog paths
// for a branch name.
func (w *Wordlist) AddBranch(name string) error {
	ref, err := gitpath.RefPath(gitpath.RefsHeads + "/" + name)
	if err != nil {
		return err
	}
	remote, err := gitpath.RefPath(gitpath.RefsRemotes + "/origin/" + name)
	if err != nil {
		return err
	}

	w.Add(ref)
	w.Add(gitpath.LogPath(ref))
	w.Add(remote)
	w.Add(gitpath.LogPath(remote))
	return nil
}

// Paths returns the dictionary in insertion order.
func (w *Wordlist) Paths() []gitpath.RelPath {
	return w.paths
}

// Len returns the number of distinct paths.
func (w *Wordlist) Len() int {
	return len(w.paths)
}

// DefaultWordlist builds the built-in dictionary: top-level metadata files,
// ref and reflog guesses for common branch names, and tag guesses.
func DefaultWordlist() *Wordlist {
	w := NewWordlist()

	for _, p := range []gitpath.RelPath{
		gitpath.Head,
		gitpath.Config,
		gitpath.Description,
		gitpath.CommitEditMsg,
		gitpath.FetchHead,
		gitpath.OrigHead,
		gitpath.MergeHead,
		gitpath.Index,
		gitpath.PackedRefs,
		gitpath.InfoRefs,
		gitpath.InfoExclude,
		gitpath.InfoPacks,
		gitpath.LogsHead,
		gitpath.RefsStash,
		"refs/remotes/origin/HEAD",
	} {
		w.Add(p)
	}

	for _, branch := range branchGuesses {
		// The guess list is static and every name validates.
		_ = w.AddBranch(branch)
	}

	for _, tag := range tagGuesses {
		if ref, err := gitpath.RefPath(gitpath.RefsTags + "/" + tag); err == nil {
			w.Add(ref)
		}
	}

	return w
}

// wordlistFile is the TOML schema for user-supplied extensions:
//
//	[seed]
//	paths = ["refs/heads/hotfix", "logs/refs/heads/hotfix"]
//	branches = ["trunk"]
type wordlistFile struct {
	Seed struct {
		Paths    []string `toml:"paths"`
		Branches []string `toml:"branches"`
	} `toml:"seed"`
}

// LoadWordlist merges a TOML wordlist file into the dictionary. Entries
// that are absolute or escape the .git directory are rejected rather than
// skipped, since a bad wordlist is caller error, not target noise.
func (w *Wordlist) LoadWordlist(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return baseerr.Wrap(err, pkgName, baseerr.CodeInvalidInput, "load_wordlist")
	}

	var file wordlistFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return baseerr.Wrap(err, pkgName, baseerr.CodeParse, "load_wordlist")
	}

	for _, raw := range file.Seed.Paths {
		p, err := gitpath.New(raw)
		if err != nil {
			return baseerr.New(pkgName, baseerr.CodeInvalidInput, "load_wordlist",
				fmt.Sprintf("bad wordlist entry %q", raw), err)
		}
		w.Add(p)
	}

	for _, branch := range file.Seed.Branches {
		if err := w.AddBranch(branch); err != nil {
			return baseerr.New(pkgName, baseerr.CodeInvalidInput, "load_wordlist",
				fmt.Sprintf("bad wordlist branch %q", branch), err)
		}
	}

	return nil
}

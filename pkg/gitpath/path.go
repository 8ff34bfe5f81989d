package gitpath

import (
	"fmt"
	"path"
	"strings"
)

// RelPath is a forward-slash relative path inside a .git directory.
// It is used both as the suffix appended to the target URL and as the
// location of the mirrored file in the output store, so it must never
// be absolute and must never escape the directory.
type RelPath string

// Well-known top-level files inside a .git directory.
const (
	Head          RelPath = "HEAD"
	Config        RelPath = "config"
	Description   RelPath = "description"
	CommitEditMsg RelPath = "COMMIT_EDITMSG"
	FetchHead     RelPath = "FETCH_HEAD"
	OrigHead      RelPath = "ORIG_HEAD"
	MergeHead     RelPath = "MERGE_HEAD"
	Index         RelPath = "index"
	PackedRefs    RelPath = "packed-refs"
	InfoRefs      RelPath = "info/refs"
	InfoExclude   RelPath = "info/exclude"
	InfoPacks     RelPath = "objects/info/packs"
	LogsHead      RelPath = "logs/HEAD"
)

// Reference namespace prefixes.
const (
	RefsHeads   = "refs/heads"
	RefsTags    = "refs/tags"
	RefsRemotes = "refs/remotes"
	RefsStash   = "refs/stash"
	LogsPrefix  = "logs"
	PackDir     = "objects/pack"
)

// New validates s and returns it as a RelPath.
func New(s string) (RelPath, error) {
	cleaned := path.Clean(strings.TrimSpace(s))
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("empty path")
	}
	if strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("path %q is absolute", s)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path %q escapes the repository directory", s)
	}
	return RelPath(cleaned), nil
}

// String returns the path as a plain string.
func (p RelPath) String() string {
	return string(p)
}

// Join appends further elements to the path.
func (p RelPath) Join(elems ...string) RelPath {
	parts := append([]string{string(p)}, elems...)
	return RelPath(path.Join(parts...))
}

// IsRef reports whether the path lives under the refs/ namespace.
func (p RelPath) IsRef() bool {
	return strings.HasPrefix(string(p), "refs/")
}

// IsReflog reports whether the path is a reflog (logs/HEAD or logs/refs/...).
func (p RelPath) IsReflog() bool {
	return p == LogsHead || strings.HasPrefix(string(p), LogsPrefix+"/")
}

// RefPath builds the loose ref path for a full ref name such as
// "refs/heads/main". The name is validated like any other RelPath.
func RefPath(name string) (RelPath, error) {
	p, err := New(name)
	if err != nil {
		return "", fmt.Errorf("invalid ref name: %w", err)
	}
	if !p.IsRef() && p != Head {
		return "", fmt.Errorf("ref name %q is outside the refs namespace", name)
	}
	return p, nil
}

// LogPath returns the reflog path mirroring a ref path.
func LogPath(ref RelPath) RelPath {
	return RelPath(path.Join(LogsPrefix, string(ref)))
}

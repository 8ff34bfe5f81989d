package remote

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hexrift/gitrip/pkg/gitpath"
)

// Target is the normalized base URL of an exposed .git directory.
// It always ends with "/.git/" so a relative path can be appended without
// any further joining logic.
type Target struct {
	raw  string
	base string
}

var gitSuffixRe = regexp.MustCompile(`/\.git/?$`)

// ParseTarget normalizes a user-supplied URL into a Target.
//
// Accepted inputs include:
// - https://host/app
// - https://host/app/.git
// - host/app (scheme defaults to http)
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, fmt.Errorf("target URL is required")
	}

	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Target{}, fmt.Errorf("parse target URL: %w", err)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("target URL must include a host")
	}

	u.Path = gitSuffixRe.ReplaceAllString(u.Path, "")
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return Target{
		raw:  raw,
		base: u.String() + "/.git/",
	}, nil
}

// URL joins a relative path onto the .git base.
func (t Target) URL(path gitpath.RelPath) string {
	return t.base + path.String()
}

// Base returns the normalized .git root URL.
func (t Target) Base() string {
	return t.base
}

// String returns the normalized base, suitable for logs.
func (t Target) String() string {
	return t.base
}

// Package contest models contests and fetches their problem lists from the contest
// info API.
package contest

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Contest identifies one contest. Values are immutable once constructed.
type Contest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// New builds a contest whose URL is derived from baseURL and slug.
// An empty name falls back to the slug.
func New(slug, name, baseURL string) Contest {
	if name == "" {
		name = slug
	}
	return Contest{
		Slug: slug,
		Name: name,
		URL:  URL(baseURL, slug),
	}
}

// URL returns the canonical contest page URL.
func URL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/contest/" + slug + "/"
}

// MalformedInputError reports a contest identifier or URL that cannot be resolved
// to a slug.
type MalformedInputError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("invalid contest input %q: %s (pass a slug like 'weekly-contest-489' or a full contest URL)",
		e.Input, e.Reason)
}

var (
	slugPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	contestPathPart = regexp.MustCompile(`/contest/([^/]+)/?`)
)

// ParseInput resolves a bare slug, a "/contest/<slug>/" path or a full contest URL
// to a contest slug.
func ParseInput(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", &MalformedInputError{Input: input, Reason: "empty input"}
	}

	var slug string
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "leetcode.com/contest/") {
		raw := trimmed
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return "", &MalformedInputError{Input: input, Reason: err.Error()}
		}
		m := contestPathPart.FindStringSubmatch(u.Path)
		if m == nil {
			return "", &MalformedInputError{Input: input, Reason: "url has no /contest/<slug>/ path"}
		}
		slug = m[1]
	} else {
		slug = strings.TrimPrefix(trimmed, "/contest/")
		slug = strings.TrimSuffix(slug, "/")
	}

	if !slugPattern.MatchString(slug) {
		return "", &MalformedInputError{Input: input, Reason: fmt.Sprintf("unrecognized slug %q", slug)}
	}

	return slug, nil
}

// Validate checks that c carries a usable slug.
func (c Contest) Validate() error {
	if !slugPattern.MatchString(c.Slug) {
		return &MalformedInputError{Input: c.Slug, Reason: "unrecognized slug"}
	}
	return nil
}

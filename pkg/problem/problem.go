// Package problem retrieves the solved status of individual problems through the
// GraphQL questionData query.
package problem

import (
	"strings"
)

// SolvedStatus is the remote status value that means accepted.
const SolvedStatus = "ac"

// Problem is the status snapshot of one problem for the querying account.
type Problem struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	FrontendID string `json:"frontend_id"`
	Difficulty string `json:"difficulty"`
	// RawStatus is the remote status verbatim; empty when it was null or absent.
	RawStatus string `json:"raw_status,omitempty"`
	Solved    bool   `json:"solved"`
	URL       string `json:"url"`
}

// IsSolved reports whether a raw status denotes an accepted problem.
func IsSolved(rawStatus string) bool {
	return strings.EqualFold(rawStatus, SolvedStatus)
}

// URL returns the canonical problem page URL.
func URL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/problems/" + slug + "/"
}

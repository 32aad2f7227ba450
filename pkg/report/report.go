// Package report holds the aggregated outcome of one pipeline run.
package report

import (
	"time"

	"github.com/Sternrassler/contest-status/pkg/contest"
	"github.com/Sternrassler/contest-status/pkg/problem"
	"github.com/rs/xid"
)

// NoteNoQuestions is recorded for contests whose info response listed no problems.
const NoteNoQuestions = "No questions found in contest API response"

// Outcome is the result of one problem lookup. Exactly one of Problem and Err is set;
// an Outcome with Err means the status is unknown.
type Outcome struct {
	Question contest.Question
	Problem  *problem.Problem
	Err      error
}

// Known reports whether the status lookup succeeded.
func (o Outcome) Known() bool {
	return o.Err == nil && o.Problem != nil
}

// Solved reports whether the problem is confirmed solved.
func (o Outcome) Solved() bool {
	return o.Known() && o.Problem.Solved
}

// Entry is the report section of one contest. Err is set when the contest's problem
// list could not be fetched; Note explains an empty but successful result.
type Entry struct {
	Contest  contest.Contest
	Problems []Outcome
	Note     string
	Err      error
}

// Total returns the number of problems in the contest.
func (e Entry) Total() int {
	return len(e.Problems)
}

// Solved returns the number of confirmed solved problems.
func (e Entry) Solved() int {
	n := 0
	for _, o := range e.Problems {
		if o.Solved() {
			n++
		}
	}
	return n
}

// Unknown returns the number of problems whose status lookup failed.
func (e Entry) Unknown() int {
	n := 0
	for _, o := range e.Problems {
		if !o.Known() {
			n++
		}
	}
	return n
}

// Failed reports whether the contest itself could not be fetched.
func (e Entry) Failed() bool {
	return e.Err != nil
}

// Report is built once per run and not modified afterwards.
type Report struct {
	RunID       xid.ID
	GeneratedAt time.Time
	Entries     []Entry
}

// New creates a report for entries, stamped with a fresh run ID and the current time.
func New(entries []Entry) *Report {
	return &Report{
		RunID:       xid.New(),
		GeneratedAt: time.Now().UTC(),
		Entries:     entries,
	}
}

// Lookup returns the entry of the contest with the given slug.
func (r *Report) Lookup(slug string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Contest.Slug == slug {
			return e, true
		}
	}
	return Entry{}, false
}

// Totals sums solved, total, unknown and failed-contest counts across entries.
func (r *Report) Totals() (solved, total, unknown, failedContests int) {
	for _, e := range r.Entries {
		solved += e.Solved()
		total += e.Total()
		unknown += e.Unknown()
		if e.Failed() {
			failedContests++
		}
	}
	return solved, total, unknown, failedContests
}

// Row is one problem of the flat, cross-contest view.
type Row struct {
	ContestName  string `json:"contest"`
	ContestSlug  string `json:"contest_slug"`
	ContestTitle string `json:"contest_problem_title"`
	ProblemID    string `json:"problem_id"`
	Difficulty   string `json:"difficulty"`
	Solved       bool   `json:"solved"`
	Known        bool   `json:"known"`
	RawStatus    string `json:"status,omitempty"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	URL          string `json:"url"`
	Error        string `json:"error,omitempty"`
}

// Flat returns one row per problem across all contests, in report order.
func (r *Report) Flat() []Row {
	var rows []Row
	for _, e := range r.Entries {
		for _, o := range e.Problems {
			row := Row{
				ContestName:  e.Contest.Name,
				ContestSlug:  e.Contest.Slug,
				ContestTitle: o.Question.Title,
				Title:        o.Question.Title,
				Slug:         o.Question.TitleSlug,
			}
			if o.Known() {
				p := o.Problem
				row.ProblemID = p.FrontendID
				row.Difficulty = p.Difficulty
				row.Solved = p.Solved
				row.Known = true
				row.RawStatus = p.RawStatus
				row.Title = p.Title
				row.Slug = p.Slug
				row.URL = p.URL
			} else if o.Err != nil {
				row.Error = o.Err.Error()
			}
			rows = append(rows, row)
		}
	}
	return rows
}

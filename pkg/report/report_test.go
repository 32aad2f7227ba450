package report

import (
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/contest-status/pkg/contest"
	"github.com/Sternrassler/contest-status/pkg/problem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(slug string, solved bool) Outcome {
	status := ""
	if solved {
		status = "ac"
	}
	return Outcome{
		Question: contest.Question{Title: "Q " + slug, TitleSlug: slug},
		Problem: &problem.Problem{
			Slug:       slug,
			Title:      "Problem " + slug,
			FrontendID: "1",
			Difficulty: "Easy",
			RawStatus:  status,
			Solved:     solved,
			URL:        "https://leetcode.com/problems/" + slug + "/",
		},
	}
}

func failed(slug string) Outcome {
	return Outcome{
		Question: contest.Question{Title: "Q " + slug, TitleSlug: slug},
		Err:      errors.New("graphql HTTP 500 for " + slug),
	}
}

func TestEntryCounts(t *testing.T) {
	e := Entry{
		Contest:  contest.New("weekly-contest-1", "Weekly Contest 1", "https://leetcode.com"),
		Problems: []Outcome{outcome("a", true), outcome("b", false), failed("c"), outcome("d", true)},
	}

	assert.Equal(t, 4, e.Total())
	assert.Equal(t, 2, e.Solved())
	assert.Equal(t, 1, e.Unknown())
	assert.False(t, e.Failed())
}

func TestOutcome_UnknownIsNotSolved(t *testing.T) {
	o := failed("x")
	assert.False(t, o.Known())
	assert.False(t, o.Solved())

	// A nil problem without an error is still unknown.
	assert.False(t, Outcome{}.Known())
}

func TestNew(t *testing.T) {
	before := time.Now().UTC()
	r := New([]Entry{{Contest: contest.Contest{Slug: "a"}}})

	assert.False(t, r.RunID.IsNil())
	assert.False(t, r.GeneratedAt.Before(before.Add(-time.Second)))
	assert.Len(t, r.Entries, 1)

	other := New(nil)
	assert.NotEqual(t, r.RunID, other.RunID)
}

func TestLookupAndTotals(t *testing.T) {
	r := New([]Entry{
		{Contest: contest.Contest{Slug: "one"}, Problems: []Outcome{outcome("a", true), outcome("b", true)}},
		{Contest: contest.Contest{Slug: "two"}, Err: errors.New("contest_info HTTP 500 for two")},
		{Contest: contest.Contest{Slug: "three"}, Note: NoteNoQuestions, Problems: []Outcome{}},
		{Contest: contest.Contest{Slug: "four"}, Problems: []Outcome{failed("z"), outcome("y", false)}},
	})

	e, ok := r.Lookup("two")
	require.True(t, ok)
	assert.True(t, e.Failed())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	solved, total, unknown, failedContests := r.Totals()
	assert.Equal(t, 2, solved)
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, unknown)
	assert.Equal(t, 1, failedContests)
}

func TestFlat(t *testing.T) {
	r := New([]Entry{
		{
			Contest:  contest.New("weekly-contest-1", "Weekly Contest 1", "https://leetcode.com"),
			Problems: []Outcome{outcome("a", true), failed("b")},
		},
		{Contest: contest.New("weekly-contest-2", "", "https://leetcode.com"), Note: NoteNoQuestions},
		{
			Contest:  contest.New("weekly-contest-3", "Weekly Contest 3", "https://leetcode.com"),
			Problems: []Outcome{outcome("c", false)},
		},
	})

	rows := r.Flat()
	require.Len(t, rows, 3)

	assert.Equal(t, "weekly-contest-1", rows[0].ContestSlug)
	assert.True(t, rows[0].Solved)
	assert.True(t, rows[0].Known)
	assert.Equal(t, "Problem a", rows[0].Title)
	assert.Equal(t, "Q a", rows[0].ContestTitle)

	assert.False(t, rows[1].Known)
	assert.Equal(t, "b", rows[1].Slug)
	assert.Contains(t, rows[1].Error, "HTTP 500")

	assert.Equal(t, "weekly-contest-3", rows[2].ContestSlug)
	assert.False(t, rows[2].Solved)
}

package sink

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Sternrassler/contest-status/pkg/report"
)

// Status marks used in the problem tables.
const (
	markSolved   = "✅"
	markUnsolved = "❌"
	markUnknown  = "?"
)

// Console renders a report as aligned text tables.
type Console struct {
	Out io.Writer
	// Flat adds one cross-contest table after the per-contest sections.
	Flat bool
}

// NewConsole creates a console renderer writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{Out: out}
}

// Render implements Renderer.
func (c *Console) Render(ctx context.Context, rep *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)

	for _, e := range rep.Entries {
		fmt.Fprintf(tw, "\n=== %s (%s) ===\n", e.Contest.Name, e.Contest.Slug)
		switch {
		case e.Failed():
			fmt.Fprintf(tw, "error: %v\n", e.Err)
			continue
		case e.Note != "":
			fmt.Fprintf(tw, "note: %s\n", e.Note)
			continue
		}

		fmt.Fprintln(tw, "#\tID\tDIFFICULTY\tSTATUS\tTITLE\tSLUG\tURL")
		for i, o := range e.Problems {
			if !o.Known() {
				fmt.Fprintf(tw, "%d\t-\t-\t%s\t%s\t%s\t-\n", i+1, markUnknown, o.Question.Title, o.Question.TitleSlug)
				continue
			}
			p := o.Problem
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				i+1, p.FrontendID, p.Difficulty, mark(o), p.Title, p.Slug, p.URL)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(tw, "\n=== Summary ===")
	fmt.Fprintln(tw, "CONTEST\tSOLVED\tUNKNOWN\tURL")
	for _, e := range rep.Entries {
		badge := Badge(e.Solved(), e.Total())
		if e.Failed() {
			badge = "error"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Contest.Name, badge, e.Unknown(), e.Contest.URL)
	}
	solved, total, unknown, failed := rep.Totals()
	fmt.Fprintf(tw, "TOTAL\t%s\t%d\t%d contest(s) failed\n", Badge(solved, total), unknown, failed)

	if c.Flat {
		fmt.Fprintln(tw, "\n=== All problems ===")
		fmt.Fprintln(tw, "CONTEST\tID\tDIFFICULTY\tSTATUS\tTITLE\tURL")
		for _, row := range rep.Flat() {
			status := markUnknown
			if row.Known {
				status = markUnsolved
				if row.Solved {
					status = markSolved
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				row.ContestSlug, dash(row.ProblemID), dash(row.Difficulty), status, row.Title, dash(row.URL))
		}
	}

	return tw.Flush()
}

func mark(o report.Outcome) string {
	switch {
	case !o.Known():
		return markUnknown
	case o.Solved():
		return markSolved
	default:
		return markUnsolved
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

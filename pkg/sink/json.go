package sink

import (
	"context"
	"io"
	"time"

	"github.com/Sternrassler/contest-status/pkg/report"
	"github.com/bytedance/sonic"
)

// JSON writes the report as one JSON document.
type JSON struct {
	Out    io.Writer
	Indent bool
}

type reportView struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Solved      int          `json:"solved"`
	Total       int          `json:"total"`
	Unknown     int          `json:"unknown"`
	Contests    []entryView  `json:"contests"`
	Problems    []report.Row `json:"problems"`
}

type entryView struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Solved  int    `json:"solved"`
	Total   int    `json:"total"`
	Unknown int    `json:"unknown"`
	Badge   string `json:"badge"`
	Note    string `json:"note,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Render implements Renderer.
func (j *JSON) Render(ctx context.Context, rep *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	solved, total, unknown, _ := rep.Totals()
	view := reportView{
		RunID:       rep.RunID.String(),
		GeneratedAt: rep.GeneratedAt,
		Solved:      solved,
		Total:       total,
		Unknown:     unknown,
		Contests:    make([]entryView, 0, len(rep.Entries)),
		Problems:    rep.Flat(),
	}
	if view.Problems == nil {
		view.Problems = []report.Row{}
	}

	for _, e := range rep.Entries {
		ev := entryView{
			Slug:    e.Contest.Slug,
			Name:    e.Contest.Name,
			URL:     e.Contest.URL,
			Solved:  e.Solved(),
			Total:   e.Total(),
			Unknown: e.Unknown(),
			Badge:   Badge(e.Solved(), e.Total()),
			Note:    e.Note,
		}
		if e.Err != nil {
			ev.Error = e.Err.Error()
		}
		view.Contests = append(view.Contests, ev)
	}

	var (
		data []byte
		err  error
	)
	if j.Indent {
		data, err = sonic.ConfigStd.MarshalIndent(view, "", "  ")
	} else {
		data, err = sonic.ConfigStd.Marshal(view)
	}
	if err != nil {
		return err
	}

	_, err = j.Out.Write(append(data, '\n'))
	return err
}

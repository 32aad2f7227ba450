// Package sink delivers pipeline results: rendered reports for the terminal or
// other programs, and per-contest solved badges for a visual surface.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/contest-status/pkg/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LoadingBadge is shown while a contest is being processed.
const LoadingBadge = "... / ..."

var annotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contest_status_annotations_total",
	Help: "Badge writes by sink and result",
}, []string{"sink", "result"}) // "ok", "error"

// Renderer presents a finished report.
type Renderer interface {
	Render(ctx context.Context, rep *report.Report) error
}

// Annotator records a contest's solved count as soon as it is known.
type Annotator interface {
	Annotate(ctx context.Context, contestSlug string, solved, total int) error
}

// LoadingMarker is implemented by annotators that can show a contest in progress.
type LoadingMarker interface {
	MarkLoading(ctx context.Context, contestSlug string) error
}

// Badge formats a solved count the way it is displayed next to a contest.
func Badge(solved, total int) string {
	return fmt.Sprintf("%d / %d", solved, total)
}

// Multi fans every call out to all members that support it. Errors are joined;
// one failing member does not stop the others.
type Multi []any

// Render implements Renderer.
func (m Multi) Render(ctx context.Context, rep *report.Report) error {
	var errs []error
	for _, s := range m {
		if r, ok := s.(Renderer); ok {
			if err := r.Render(ctx, rep); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Annotate implements Annotator.
func (m Multi) Annotate(ctx context.Context, contestSlug string, solved, total int) error {
	var errs []error
	for _, s := range m {
		if a, ok := s.(Annotator); ok {
			if err := a.Annotate(ctx, contestSlug, solved, total); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// MarkLoading implements LoadingMarker.
func (m Multi) MarkLoading(ctx context.Context, contestSlug string) error {
	var errs []error
	for _, s := range m {
		if l, ok := s.(LoadingMarker); ok {
			if err := l.MarkLoading(ctx, contestSlug); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

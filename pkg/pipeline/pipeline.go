// Package pipeline runs the two-stage contest status fetch: contests are fanned out
// under an outer concurrency ceiling and each contest's problems under an
// independent inner ceiling, with a fixed pacing delay before every request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/contest-status/pkg/auth"
	"github.com/Sternrassler/contest-status/pkg/batch"
	"github.com/Sternrassler/contest-status/pkg/contest"
	"github.com/Sternrassler/contest-status/pkg/problem"
	"github.com/Sternrassler/contest-status/pkg/ratelimit"
	"github.com/Sternrassler/contest-status/pkg/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stage labels for the two limiter levels.
const (
	StageContests = "contests"
	StageProblems = "problems"
)

// Prometheus metrics for pipeline runs.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contest_status_runs_total",
		Help: "Total pipeline runs by result",
	}, []string{"result"}) // "ok", "invalid_input"

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contest_status_run_duration_seconds",
		Help:    "Pipeline run duration in seconds",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
	})

	problemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contest_status_problems_total",
		Help: "Problems checked by result",
	}, []string{"result"}) // "solved", "unsolved", "unknown"
)

// ContestInfoFetcher lists the problems of a contest.
type ContestInfoFetcher interface {
	FetchQuestions(ctx context.Context, slug string) ([]contest.Question, error)
}

// ProblemStatusFetcher looks up the solved status of one problem.
type ProblemStatusFetcher interface {
	FetchStatus(ctx context.Context, slug, token string) (problem.Problem, error)
}

// Annotator receives per-contest solved counts as soon as a contest completes.
type Annotator interface {
	Annotate(ctx context.Context, contestSlug string, solved, total int) error
}

// LoadingMarker is optionally implemented by an Annotator to show work in progress.
type LoadingMarker interface {
	MarkLoading(ctx context.Context, contestSlug string) error
}

// Deps are the collaborators of an Orchestrator. Annotator and Logger are optional.
type Deps struct {
	Contests  ContestInfoFetcher
	Problems  ProblemStatusFetcher
	Tokens    auth.Provider
	Annotator Annotator
	Logger    *zerolog.Logger
}

// Orchestrator runs the pipeline. It holds no per-run state and may be reused.
type Orchestrator struct {
	contests  ContestInfoFetcher
	problems  ProblemStatusFetcher
	tokens    auth.Provider
	annotator Annotator
	config    Config
	logger    zerolog.Logger
}

// New creates an orchestrator.
func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Contests == nil {
		return nil, fmt.Errorf("contest info fetcher is required")
	}
	if deps.Problems == nil {
		return nil, fmt.Errorf("problem status fetcher is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.Static("")
	}

	logger := log.With().Str("component", "pipeline").Logger()
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	return &Orchestrator{
		contests:  deps.Contests,
		problems:  deps.Problems,
		tokens:    tokens,
		annotator: deps.Annotator,
		config:    cfg,
		logger:    logger,
	}, nil
}

// RunInputs resolves raw slugs or contest URLs and runs the pipeline on them.
// Any unrecognized input aborts the run before network activity.
func (o *Orchestrator) RunInputs(ctx context.Context, inputs []string, baseURL string) (*report.Report, error) {
	contests := make([]contest.Contest, 0, len(inputs))
	for _, input := range inputs {
		slug, err := contest.ParseInput(input)
		if err != nil {
			runsTotal.WithLabelValues("invalid_input").Inc()
			return nil, err
		}
		contests = append(contests, contest.New(slug, "", baseURL))
	}
	return o.Run(ctx, contests)
}

// Run fetches every contest's problems and their statuses and returns the report.
// Contest and problem failures are recorded in the report; the only error returned
// is for malformed contests, detected before any request is made.
func (o *Orchestrator) Run(ctx context.Context, contests []contest.Contest) (*report.Report, error) {
	for _, c := range contests {
		if err := c.Validate(); err != nil {
			runsTotal.WithLabelValues("invalid_input").Inc()
			return nil, err
		}
	}

	start := time.Now()
	defer func() {
		runDuration.Observe(time.Since(start).Seconds())
	}()

	token := o.token(ctx)

	o.logger.Info().
		Int("contests", len(contests)).
		Int("outer_concurrency", o.config.OuterConcurrency).
		Int("inner_concurrency", o.config.InnerConcurrency).
		Int("max_in_flight", o.config.MaxInFlight()).
		Msg("Starting pipeline run")

	results := batch.MapLimit(ctx, contests, o.config.OuterConcurrency,
		func(ctx context.Context, c contest.Contest, _ int) (report.Entry, error) {
			return o.processContest(ctx, c, token)
		},
		batch.WithStage(StageContests),
		batch.WithLogger(o.logger),
	)

	entries := make([]report.Entry, len(results))
	for i, r := range results {
		if r.Failed() {
			o.logger.Warn().
				Err(r.Err).
				Str("contest", contests[i].Slug).
				Msg("Contest fetch failed")
			entries[i] = report.Entry{Contest: contests[i], Err: r.Err}
			continue
		}
		entries[i] = r.Value
	}

	rep := report.New(entries)
	solved, total, unknown, failed := rep.Totals()
	runsTotal.WithLabelValues("ok").Inc()

	o.logger.Info().
		Str("run_id", rep.RunID.String()).
		Int("solved", solved).
		Int("total", total).
		Int("unknown", unknown).
		Int("failed_contests", failed).
		Dur("duration", time.Since(start)).
		Msg("Pipeline run complete")

	return rep, nil
}

// token resolves the anti-CSRF token once per run. Failures degrade to anonymous
// lookups.
func (o *Orchestrator) token(ctx context.Context) string {
	token, err := o.tokens.Token(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("CSRF token lookup failed, continuing without session")
		return ""
	}
	if token == "" {
		o.logger.Warn().Msg("CSRF token not found, status lookups reflect an anonymous view")
	}
	return token
}

// processContest is the outer task: pace, list problems, fan out status lookups.
func (o *Orchestrator) processContest(ctx context.Context, c contest.Contest, token string) (report.Entry, error) {
	o.markLoading(ctx, c.Slug)

	if err := ratelimit.Sleep(ctx, o.config.OuterDelay); err != nil {
		return report.Entry{}, err
	}

	questions, err := o.contests.FetchQuestions(ctx, c.Slug)
	if err != nil {
		return report.Entry{}, fmt.Errorf("fetch contest %s: %w", c.Slug, err)
	}

	if len(questions) == 0 {
		o.logger.Info().Str("contest", c.Slug).Msg(report.NoteNoQuestions)
		o.annotate(ctx, c.Slug, 0, 0)
		return report.Entry{
			Contest:  c,
			Problems: []report.Outcome{},
			Note:     report.NoteNoQuestions,
		}, nil
	}

	results := batch.MapLimit(ctx, questions, o.config.InnerConcurrency,
		func(ctx context.Context, q contest.Question, _ int) (problem.Problem, error) {
			if err := ratelimit.Sleep(ctx, o.config.InnerDelay); err != nil {
				return problem.Problem{}, err
			}
			return o.problems.FetchStatus(ctx, q.TitleSlug, token)
		},
		batch.WithStage(StageProblems),
		batch.WithLogger(o.logger),
	)

	outcomes := make([]report.Outcome, len(results))
	for i, r := range results {
		outcomes[i] = report.Outcome{Question: questions[i]}
		switch {
		case r.Failed():
			o.logger.Debug().
				Err(r.Err).
				Str("contest", c.Slug).
				Str("problem", questions[i].TitleSlug).
				Msg("Problem status unknown")
			outcomes[i].Err = r.Err
			problemsTotal.WithLabelValues("unknown").Inc()
		default:
			p := r.Value
			outcomes[i].Problem = &p
			if p.Solved {
				problemsTotal.WithLabelValues("solved").Inc()
			} else {
				problemsTotal.WithLabelValues("unsolved").Inc()
			}
		}
	}

	entry := report.Entry{Contest: c, Problems: outcomes}
	o.annotate(ctx, c.Slug, entry.Solved(), entry.Total())

	o.logger.Debug().
		Str("contest", c.Slug).
		Int("solved", entry.Solved()).
		Int("total", entry.Total()).
		Int("unknown", entry.Unknown()).
		Msg("Contest complete")

	return entry, nil
}

func (o *Orchestrator) markLoading(ctx context.Context, slug string) {
	marker, ok := o.annotator.(LoadingMarker)
	if !ok {
		return
	}
	if err := marker.MarkLoading(ctx, slug); err != nil {
		o.logger.Warn().Err(err).Str("contest", slug).Msg("Failed to mark contest as loading")
	}
}

func (o *Orchestrator) annotate(ctx context.Context, slug string, solved, total int) {
	if o.annotator == nil {
		return
	}
	if err := o.annotator.Annotate(ctx, slug, solved, total); err != nil {
		o.logger.Warn().Err(err).Str("contest", slug).Msg("Failed to annotate contest")
	}
}

// IsMalformedInput reports whether err aborted a run because of invalid input.
func IsMalformedInput(err error) bool {
	var mie *contest.MalformedInputError
	return errors.As(err, &mie)
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// ErrWorkerPanic is wrapped into the result of a task whose worker panicked.
var ErrWorkerPanic = errors.New("worker panicked")

// defaultStage labels metrics and logs when no stage is given.
const defaultStage = "default"

// Worker processes one item. index is the item's position in the input slice.
type Worker[T, R any] func(ctx context.Context, item T, index int) (R, error)

// Result is the outcome of a single task, stored at the same index as its input.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Failed reports whether the task produced an error instead of a value.
func (r Result[R]) Failed() bool {
	return r.Err != nil
}

// Option configures a MapLimit call.
type Option func(*options)

type options struct {
	stage  string
	logger zerolog.Logger
}

// WithStage sets the stage label used for metrics and log fields.
func WithStage(stage string) Option {
	return func(o *options) {
		if stage != "" {
			o.stage = stage
		}
	}
}

// WithLogger sets the logger used for task diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// MapLimit runs worker over items with at most limit tasks in flight and returns one
// Result per item, in input order.
func MapLimit[T, R any](ctx context.Context, items []T, limit int, worker Worker[T, R], opts ...Option) []Result[R] {
	o := options{stage: defaultStage, logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	if limit <= 0 {
		o.logger.Warn().
			Str("stage", o.stage).
			Int("limit", limit).
			Msg("Non-positive concurrency limit, using 1")
		limit = 1
	}
	runners := min(limit, len(items))

	start := time.Now()
	cursor := atomic.NewInt64(0)
	inflight := inflightTasks.WithLabelValues(o.stage)

	var g errgroup.Group
	for runnerID := 0; runnerID < runners; runnerID++ {
		g.Go(func() error {
			processed := 0
			for {
				idx := int(cursor.Inc() - 1)
				if idx >= len(items) {
					break
				}

				// Unclaimed work is not started once the caller gave up.
				if err := ctx.Err(); err != nil {
					results[idx] = Result[R]{Index: idx, Err: err}
					tasksTotal.WithLabelValues(o.stage, "skipped").Inc()
					continue
				}

				inflight.Inc()
				value, err := invoke(ctx, worker, items[idx], idx)
				inflight.Dec()

				if err != nil {
					event := o.logger.Debug()
					msg := "Task failed"
					if errors.Is(err, ErrWorkerPanic) {
						event = o.logger.Warn()
						msg = "Recovered worker panic"
					}
					event.
						Err(err).
						Str("stage", o.stage).
						Int("index", idx).
						Msg(msg)
					results[idx] = Result[R]{Index: idx, Err: err}
					tasksTotal.WithLabelValues(o.stage, "error").Inc()
				} else {
					results[idx] = Result[R]{Index: idx, Value: value}
					tasksTotal.WithLabelValues(o.stage, "ok").Inc()
				}
				processed++
			}

			o.logger.Trace().
				Str("stage", o.stage).
				Int("runner_id", runnerID).
				Int("tasks_processed", processed).
				Msg("Runner completed")
			return nil
		})
	}
	_ = g.Wait()

	o.logger.Debug().
		Str("stage", o.stage).
		Int("tasks", len(items)).
		Int("runners", runners).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	return results
}

// invoke calls worker and converts a panic into an error for this slot only.
func invoke[T, R any](ctx context.Context, worker Worker[T, R], item T, idx int) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: index %d: %v", ErrWorkerPanic, idx, r)
		}
	}()
	return worker(ctx, item, idx)
}

// Values returns the successful values and the number of failed slots.
func Values[R any](results []Result[R]) ([]R, int) {
	values := make([]R, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			continue
		}
		values = append(values, r.Value)
	}
	return values, failed
}

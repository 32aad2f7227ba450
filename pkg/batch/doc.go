// Package batch provides bounded-concurrency execution of an ordered list of tasks.
//
// MapLimit runs a worker function over every item of a slice with at most `limit`
// workers in flight. Workers share a single cursor over the input and each claims the
// next unclaimed index until none remain, so a slow task only ever occupies one slot.
//
// Example usage:
//
//	results := batch.MapLimit(ctx, slugs, 6, func(ctx context.Context, slug string, i int) (problem.Problem, error) {
//		return fetcher.FetchStatus(ctx, slug, token)
//	}, batch.WithStage("problems"))
//
// Guarantees:
//   - len(results) == len(items) and results[i] belongs to items[i]
//   - at most min(limit, len(items)) workers run at once
//   - a failing or panicking task is recorded in its own slot and never stops siblings
//   - once ctx is done, indices not yet claimed are filled with ctx.Err()
//
// A non-positive limit is treated as 1.
package batch

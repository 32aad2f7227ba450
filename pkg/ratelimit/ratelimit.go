// Package ratelimit implements request pacing for the contest and GraphQL endpoints.
// It offers a fixed per-task delay and an optional requests-per-second gate shared by
// every worker of a run. Neither adapts to remote responses.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for request pacing.
var (
	gateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contest_status_rate_gate_wait_seconds",
		Help:    "Time requests spent waiting on the global rate gate",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	gateThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contest_status_rate_gate_throttles_total",
		Help: "Total number of requests delayed by the global rate gate",
	})
)

// throttleThreshold is the wait above which a request counts as throttled.
const throttleThreshold = time.Millisecond

// Sleep pauses for d, returning early with ctx.Err() if the context ends first.
// A non-positive d only checks the context.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Gate caps the overall request rate. A nil *Gate never blocks.
type Gate struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGate creates a gate allowing rps requests per second with the given burst.
// It returns nil when rps is not positive, meaning no cap.
func NewGate(rps float64, burst int, logger zerolog.Logger) *Gate {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	return &Gate{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Wait blocks until the gate admits one request or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return ctx.Err()
	}

	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	waited := time.Since(start)
	gateWaitSeconds.Observe(waited.Seconds())
	if waited > throttleThreshold {
		gateThrottlesTotal.Inc()
		g.logger.Trace().
			Dur("wait_duration", waited).
			Msg("Request throttled by rate gate")
	}

	return nil
}

// Limit returns the configured requests per second, or 0 when uncapped.
func (g *Gate) Limit() float64 {
	if g == nil {
		return 0
	}
	return float64(g.limiter.Limit())
}

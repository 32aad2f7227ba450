// Package metrics serves the Prometheus default registry over HTTP. Metrics are
// registered into it through promauto next to the code that updates them (batch,
// client, ratelimit, pipeline, sink) so packages stay independent.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Metrics Documentation
//
// Limiter Metrics (pkg/batch):
//   - contest_status_inflight_tasks{stage} (Gauge): Tasks currently running per limiter stage
//   - contest_status_tasks_total{stage, outcome} (Counter): Finished tasks by stage and outcome (ok, error, skipped)
//
// Request Metrics (pkg/client):
//   - contest_status_requests_total{endpoint, status} (Counter): Remote requests by endpoint and HTTP status
//   - contest_status_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - contest_status_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Rate Gate Metrics (pkg/ratelimit):
//   - contest_status_rate_gate_wait_seconds (Histogram): Time spent waiting for a request slot
//   - contest_status_rate_gate_throttles_total (Counter): Requests that had to wait
//
// Pipeline Metrics (pkg/pipeline):
//   - contest_status_runs_total{result} (Counter): Runs by result (ok, invalid_input)
//   - contest_status_run_duration_seconds (Histogram): Run duration
//   - contest_status_problems_total{result} (Counter): Problems by result (solved, unsolved, unknown)
//
// Sink Metrics (pkg/sink):
//   - contest_status_annotations_total{sink, result} (Counter): Badge writes by sink and result
//
// Example Prometheus Queries:
//
//   # Share of problems whose status could not be determined
//   sum(rate(contest_status_problems_total{result="unknown"}[1h])) /
//   sum(rate(contest_status_problems_total[1h]))
//
//   # Concurrent problem lookups
//   contest_status_inflight_tasks{stage="problems"}
//
//   # P95 GraphQL latency
//   histogram_quantile(0.95, rate(contest_status_request_duration_seconds_bucket{endpoint="graphql"}[5m]))

// Package logging configures the process-wide zerolog logger and hands out
// component sub-loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a textual log level as accepted on the command line.
type LogLevel string

const (
	// LevelDebug adds per-contest and per-problem progress.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs run start and completion.
	LevelInfo LogLevel = "info"

	// LevelWarn logs degraded runs: missing token, failed contests, sink errors.
	LevelWarn LogLevel = "warn"

	// LevelError logs only failures that abort a run.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON lines.
	Pretty bool

	// Output defaults to os.Stderr so stdout stays free for the report.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05.000"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel validates a textual level.
func ParseLevel(s string) (LogLevel, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "warning":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	case LevelDisabled, "off", "none":
		return LevelDisabled, nil
	default:
		return "", fmt.Errorf("unknown log level %q (want debug, info, warn, error or disabled)", s)
	}
}

// parseLevel converts LogLevel to zerolog.Level, falling back to info.
func parseLevel(level LogLevel) zerolog.Level {
	parsed, err := ParseLevel(string(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	switch parsed {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelDisabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a sub-logger of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: progress detail
//   - Contest info fetched (question count, dropped records)
//   - Problem status unknown (per-slot error)
//   - Contest complete (solved/total/unknown)
//   - Batch task failures and batch completion
//   - Rate gate waits and runner completion (trace)
//
// Info: run lifecycle
//   - Pipeline run start (concurrency, max in flight)
//   - Pipeline run complete (run_id, totals, duration)
//   - Contest without questions
//   - Metrics listener start
//
// Warn: degraded but continuing
//   - CSRF token missing or lookup failed
//   - Contest fetch failed (recorded in the report)
//   - Annotation or loading marker failures
//   - Non-positive concurrency clamped to 1
//   - Worker panics recovered (task failures without a panic stay at debug)
//
// Error: the run cannot produce a report
//   - Malformed contest input
//   - Configuration errors
//   - Rendering failures
//
// Context Fields:
//   - component: pipeline, batch, contest-info, problem-status, client, sink
//   - contest: contest slug
//   - problem: problem slug
//   - endpoint: contest_info, graphql or page
//   - status_code: HTTP status code
//   - error_class: client, server, rate_limit or network
//   - stage: limiter stage (contests, problems)
//   - run_id: report identifier

// Command contest-status prints which problems of one or more contests the
// logged-in account has solved.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/contest-status/internal/config"
	"github.com/Sternrassler/contest-status/pkg/auth"
	"github.com/Sternrassler/contest-status/pkg/client"
	"github.com/Sternrassler/contest-status/pkg/contest"
	"github.com/Sternrassler/contest-status/pkg/logging"
	"github.com/Sternrassler/contest-status/pkg/metrics"
	"github.com/Sternrassler/contest-status/pkg/pipeline"
	"github.com/Sternrassler/contest-status/pkg/problem"
	"github.com/Sternrassler/contest-status/pkg/sink"
	"github.com/Sternrassler/contest-status/pkg/source"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty, Output: stderr})
	logger := logging.NewLogger("cli")

	if cfg.MetricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server failed")
			}
		}()
	}

	c, err := client.New(cfg.Client())
	if err != nil {
		logger.Error().Err(err).Msg("Invalid client configuration")
		return exitUsage
	}
	defer c.Close()

	contests, err := discover(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve contests")
		return exitUsage
	}

	var sinks sink.Multi
	if cfg.RedisURL != "" {
		badges, closeRedis, err := redisBadges(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis")
			return exitError
		}
		defer closeRedis()
		sinks = append(sinks, badges)
	}

	deps := pipeline.Deps{
		Contests: contest.NewInfoFetcher(c),
		Problems: problem.NewStatusFetcher(c),
		Tokens:   tokens(cfg, c),
	}
	if len(sinks) > 0 {
		deps.Annotator = sinks
	}

	orch, err := pipeline.New(deps, cfg.Pipeline)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid pipeline configuration")
		return exitUsage
	}

	rep, err := orch.Run(ctx, contests)
	if err != nil {
		logger.Error().Err(err).Msg("Run aborted")
		if pipeline.IsMalformedInput(err) {
			return exitUsage
		}
		return exitError
	}

	var renderer sink.Renderer = &sink.Console{Out: stdout, Flat: cfg.Flat}
	if cfg.Format == config.FormatJSON {
		renderer = &sink.JSON{Out: stdout, Indent: true}
	}
	if err := renderer.Render(ctx, rep); err != nil {
		logger.Error().Err(err).Msg("Failed to render report")
		return exitError
	}

	return exitOK
}

func discover(ctx context.Context, cfg *config.Config) ([]contest.Contest, error) {
	var src source.Source = source.Literal{Inputs: cfg.Contests, BaseURL: cfg.BaseURL}
	if cfg.PageFile != "" {
		src = source.Page{Path: cfg.PageFile, BaseURL: cfg.BaseURL}
	}
	return src.Discover(ctx)
}

// tokens prefers an explicit token, then the page meta tag, then the cookie.
func tokens(cfg *config.Config, c *client.Client) auth.Provider {
	if cfg.Token != "" {
		return auth.Static(cfg.Token)
	}
	return auth.Chain{
		auth.PageProvider{Client: c},
		auth.CookieProvider{Cookie: cfg.Cookie},
	}
}

func redisBadges(ctx context.Context, cfg *config.Config) (*sink.RedisBadges, func(), error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}

	log.Info().Str("addr", opts.Addr).Msg("Writing badges to Redis")
	return sink.NewRedisBadges(rdb, cfg.RedisPrefix, cfg.BadgeTTL), func() { rdb.Close() }, nil
}

// Package config parses the contest-status command line and environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/contest-status/pkg/client"
	"github.com/Sternrassler/contest-status/pkg/logging"
	"github.com/Sternrassler/contest-status/pkg/pipeline"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Environment variables read as flag defaults.
const (
	EnvCookie   = "LEETCODE_COOKIE"
	EnvCSRF     = "LEETCODE_CSRF"
	EnvRedisURL = "REDIS_URL"
	EnvLogLevel = "LOG_LEVEL"
)

// DefaultUserAgent identifies the tool to the remote site.
const DefaultUserAgent = "contest-status/0.1.0"

// Config is the resolved command-line configuration of one run.
type Config struct {
	Contests []string
	PageFile string

	BaseURL   string
	UserAgent string
	Cookie    string
	Token     string
	Timeout   time.Duration
	RPS       float64

	Pipeline pipeline.Config

	Format string
	Flat   bool

	RedisURL    string
	RedisPrefix string
	BadgeTTL    time.Duration

	MetricsAddr string

	LogLevel logging.LogLevel
	Pretty   bool
}

// New returns the defaults, with env supplying secrets and endpoints.
func New(getenv func(string) string) *Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Config{
		BaseURL:     client.DefaultBaseURL,
		UserAgent:   DefaultUserAgent,
		Cookie:      getenv(EnvCookie),
		Token:       getenv(EnvCSRF),
		Timeout:     30 * time.Second,
		Pipeline:    pipeline.DefaultConfig(),
		Format:      FormatTable,
		RedisURL:    getenv(EnvRedisURL),
		RedisPrefix: "contest-status",
		BadgeTTL:    24 * time.Hour,
		LogLevel:    logging.LogLevel(getEnv(getenv, EnvLogLevel, string(logging.LevelInfo))),
	}
}

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse reads args (without the program name) into a Config. Positional arguments
// are treated as contests, like -contest. A help request returns flag.ErrHelp.
func Parse(args []string, getenv func(string) string, stderr io.Writer) (*Config, error) {
	c := New(getenv)

	fs := flag.NewFlagSet("contest-status", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var contests stringList
	var logLevel string
	fs.Var(&contests, "contest", "Contest slug or URL (repeatable)")
	fs.StringVar(&c.PageFile, "page", "", "Saved contest list HTML to scrape contests from")
	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "Site origin")
	fs.StringVar(&c.UserAgent, "user-agent", c.UserAgent, "User-Agent header")
	fs.StringVar(&c.Cookie, "cookie", c.Cookie, "Session cookie header (env "+EnvCookie+")")
	fs.StringVar(&c.Token, "token", c.Token, "CSRF token; taken from the cookie or site when empty (env "+EnvCSRF+")")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "HTTP request timeout")
	fs.Float64Var(&c.RPS, "rps", 0, "Global request rate cap per second (0 disables)")
	fs.IntVar(&c.Pipeline.OuterConcurrency, "outer", c.Pipeline.OuterConcurrency, "Contests processed concurrently")
	fs.IntVar(&c.Pipeline.InnerConcurrency, "inner", c.Pipeline.InnerConcurrency, "Status lookups per contest concurrently")
	fs.DurationVar(&c.Pipeline.OuterDelay, "outer-delay", c.Pipeline.OuterDelay, "Delay before each contest info request")
	fs.DurationVar(&c.Pipeline.InnerDelay, "inner-delay", c.Pipeline.InnerDelay, "Delay before each status lookup")
	fs.StringVar(&c.Format, "format", c.Format, "Output format: table or json")
	fs.BoolVar(&c.Flat, "flat", false, "Add a cross-contest problem table (table format)")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis URL for live badges, e.g. redis://localhost:6379/0 (env "+EnvRedisURL+")")
	fs.StringVar(&c.RedisPrefix, "redis-prefix", c.RedisPrefix, "Key prefix for the badge hash")
	fs.DurationVar(&c.BadgeTTL, "badge-ttl", c.BadgeTTL, "Expiry of the badge hash")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	fs.StringVar(&logLevel, "log-level", string(c.LogLevel), "Log level: debug, info, warn, error, disabled (env "+EnvLogLevel+")")
	fs.BoolVar(&c.Pretty, "pretty", false, "Human-readable logs")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: contest-status [options] [contest...]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExample:\n")
		fmt.Fprintf(stderr, "  contest-status -cookie \"$(cat cookie.txt)\" weekly-contest-489 biweekly-contest-170\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c.Contests = append(contests, fs.Args()...)

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	c.LogLevel = level

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks option combinations.
func (c *Config) Validate() error {
	if len(c.Contests) == 0 && c.PageFile == "" {
		return errors.New("no contests given: pass slugs/URLs or -page")
	}
	if len(c.Contests) > 0 && c.PageFile != "" {
		return errors.New("-page cannot be combined with explicit contests")
	}
	if c.Format != FormatTable && c.Format != FormatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", c.Format, FormatTable, FormatJSON)
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must be >= 0 (got %g)", c.RPS)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0 (got %s)", c.Timeout)
	}
	return c.Pipeline.Validate()
}

// Client returns the HTTP client configuration.
func (c *Config) Client() client.Config {
	cfg := client.DefaultConfig(c.UserAgent)
	cfg.BaseURL = c.BaseURL
	cfg.Cookie = c.Cookie
	cfg.Timeout = c.Timeout
	cfg.RequestsPerSecond = c.RPS
	return cfg
}

func getEnv(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

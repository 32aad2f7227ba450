package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()

	cfg := DefaultConfig("TestApp/1.0.0 (test@example.com)")
	cfg.BaseURL = baseURL
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("TestApp/1.0.0"),
			expectError: false,
		},
		{
			name: "empty user agent",
			config: Config{
				BaseURL: DefaultBaseURL,
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "empty base url",
			config: Config{
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name: "relative base url",
			config: Config{
				UserAgent: "TestApp/1.0.0",
				BaseURL:   "leetcode.com",
			},
			expectError: true,
			errorMsg:    `invalid base url "leetcode.com"`,
		},
		{
			name: "negative timeout",
			config: Config{
				UserAgent: "TestApp/1.0.0",
				BaseURL:   DefaultBaseURL,
				Timeout:   -time.Second,
			},
			expectError: true,
			errorMsg:    "timeout must be >= 0 (got -1s)",
		},
		{
			name: "negative rate",
			config: Config{
				UserAgent:         "TestApp/1.0.0",
				BaseURL:           DefaultBaseURL,
				RequestsPerSecond: -2,
			},
			expectError: true,
			errorMsg:    "requests_per_second must be >= 0 (got -2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	userAgent := "TestApp/1.0.0"
	cfg := DefaultConfig(userAgent)

	if cfg.UserAgent != userAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, userAgent)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, should be > 0", cfg.Timeout)
	}
	if cfg.RequestsPerSecond != 0 {
		t.Errorf("RequestsPerSecond = %v, want uncapped by default", cfg.RequestsPerSecond)
	}
}

func TestURL(t *testing.T) {
	c := newTestClient(t, "https://leetcode.com/", nil)

	if got := c.BaseURL(); got != "https://leetcode.com" {
		t.Errorf("BaseURL() = %q", got)
	}
	if got := c.URL("/graphql"); got != "https://leetcode.com/graphql" {
		t.Errorf("URL(/graphql) = %q", got)
	}
	if got := c.URL("contest/api/info/weekly-contest-1/"); got != "https://leetcode.com/contest/api/info/weekly-contest-1/" {
		t.Errorf("URL(relative) = %q", got)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{400, ErrorClassClient},
		{403, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestDo_HeadersAndCookie(t *testing.T) {
	var received http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Cookie = "LEETCODE_SESSION=abc; csrftoken=tok"
	})

	body, err := c.Do(context.Background(), Request{
		Path:       "/contest/api/info/weekly-contest-1/",
		Endpoint:   "contest_info",
		Identifier: "weekly-contest-1",
		Header:     http.Header{"X-Requested-With": []string{"XMLHttpRequest"}},
	})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	if string(body) != `{"ok": true}` {
		t.Errorf("body = %q", body)
	}
	if got := received.Get("User-Agent"); got != "TestApp/1.0.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := received.Get("Cookie"); got != "LEETCODE_SESSION=abc; csrftoken=tok" {
		t.Errorf("Cookie = %q", got)
	}
	if got := received.Get("X-Requested-With"); got != "XMLHttpRequest" {
		t.Errorf("X-Requested-With = %q", got)
	}
	if got := received.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
}

func TestDo_NoCookieWhenAnonymous(t *testing.T) {
	var cookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie = r.Header.Get("Cookie")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	if _, err := c.Do(context.Background(), Request{Path: "/"}); err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	if cookie != "" {
		t.Errorf("Cookie = %q, want none", cookie)
	}
}

func TestDo_JSONBody(t *testing.T) {
	var (
		method      string
		contentType string
		payload     string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		payload = string(raw)
		w.Write([]byte(`{"data": {"value": 42}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)

	var out struct {
		Data struct {
			Value int `json:"value"`
		} `json:"data"`
	}
	err := c.DoJSON(context.Background(), Request{
		Method:   http.MethodPost,
		Path:     "/graphql",
		Endpoint: "graphql",
		Body:     map[string]string{"operationName": "questionData"},
	}, &out)
	if err != nil {
		t.Fatalf("DoJSON() failed: %v", err)
	}

	if method != http.MethodPost {
		t.Errorf("method = %q, want POST", method)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if !strings.Contains(payload, `"operationName":"questionData"`) {
		t.Errorf("payload = %q", payload)
	}
	if out.Data.Value != 42 {
		t.Errorf("decoded value = %d, want 42", out.Data.Value)
	}
}

func TestDo_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		class  ErrorClass
	}{
		{"not found", http.StatusNotFound, ErrorClassClient},
		{"rate limited", http.StatusTooManyRequests, ErrorClassRateLimit},
		{"server error", http.StatusInternalServerError, ErrorClassServer},
		{"redirect is not success", http.StatusNotModified, ErrorClassClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": "nope"}`))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, nil)
			_, err := c.Do(context.Background(), Request{
				Path:       "/contest/api/info/biweekly-contest-9/",
				Endpoint:   "contest_info",
				Identifier: "biweekly-contest-9",
			})

			var rfe *RemoteFetchError
			if !errors.As(err, &rfe) {
				t.Fatalf("error = %v, want *RemoteFetchError", err)
			}
			if rfe.Status != tt.status {
				t.Errorf("Status = %d, want %d", rfe.Status, tt.status)
			}
			if rfe.Identifier != "biweekly-contest-9" {
				t.Errorf("Identifier = %q", rfe.Identifier)
			}
			if rfe.Class != tt.class {
				t.Errorf("Class = %q, want %q", rfe.Class, tt.class)
			}
			if StatusOf(err) != tt.status {
				t.Errorf("StatusOf() = %d, want %d", StatusOf(err), tt.status)
			}
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url, nil)
	_, err := c.Do(context.Background(), Request{Path: "/graphql", Endpoint: "graphql", Identifier: "two-sum"})

	var rfe *RemoteFetchError
	if !errors.As(err, &rfe) {
		t.Fatalf("error = %v, want *RemoteFetchError", err)
	}
	if rfe.Class != ErrorClassNetwork {
		t.Errorf("Class = %q, want network", rfe.Class)
	}
	if rfe.Status != 0 {
		t.Errorf("Status = %d, want 0", rfe.Status)
	}
	if rfe.Err == nil {
		t.Error("expected wrapped transport error")
	}
}

func TestDoJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login</html>`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)

	var out map[string]any
	err := c.DoJSON(context.Background(), Request{Path: "/", Endpoint: "contest_info", Identifier: "x"}, &out)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, Request{Path: "/slow", Endpoint: "graphql", Identifier: "slow"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded in chain", err)
	}
}

func TestDo_RateGate(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.RequestsPerSecond = 40
		cfg.Burst = 1
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Do(context.Background(), Request{Path: "/"}); err != nil {
			t.Fatalf("Do() failed: %v", err)
		}
	}

	// Two gaps of 25ms at 40 rps with burst 1.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("3 requests took %v, expected rate gate pacing", elapsed)
	}
}

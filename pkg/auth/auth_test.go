package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sternrassler/contest-status/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromCookie(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{name: "only csrf", header: "csrftoken=abc123", want: "abc123"},
		{name: "among others", header: "LEETCODE_SESSION=xyz; csrftoken=tok; other=1", want: "tok"},
		{name: "absent", header: "LEETCODE_SESSION=xyz", want: ""},
		{name: "similar name", header: "mycsrftoken=nope; csrftoken=yes", want: "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenFromCookie(tt.header))
		})
	}
}

func TestTokenFromHTML(t *testing.T) {
	page := `<html><head>
		<meta charset="utf-8">
		<meta name="csrf-token" content=" meta-token ">
	</head><body></body></html>`

	token, err := TokenFromHTML(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "meta-token", token)

	token, err = TokenFromHTML(strings.NewReader(`<html><head></head></html>`))
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStatic(t *testing.T) {
	token, err := Static(" abc ").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestPageProvider(t *testing.T) {
	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		if r.URL.Path != "/contest/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`<html><head><meta name="csrf-token" content="page-token"></head></html>`))
	}))
	defer server.Close()

	cfg := client.DefaultConfig("auth-test/1.0")
	cfg.BaseURL = server.URL
	c, err := client.New(cfg)
	require.NoError(t, err)

	token, err := PageProvider{Client: c, Path: "/contest/"}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "page-token", token)
	assert.Contains(t, accept, "text/html")

	_, err = PageProvider{Client: c, Path: "/missing"}.Token(context.Background())
	assert.Equal(t, http.StatusNotFound, client.StatusOf(err))
}

type failingProvider struct{ err error }

func (f failingProvider) Token(context.Context) (string, error) { return "", f.err }

func TestChain(t *testing.T) {
	boom := errors.New("page unavailable")

	t.Run("first non-empty wins", func(t *testing.T) {
		chain := Chain{Static(""), CookieProvider{Cookie: "csrftoken=cookie-token"}, Static("later")}
		token, err := chain.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cookie-token", token)
	})

	t.Run("error skipped when later provider succeeds", func(t *testing.T) {
		chain := Chain{failingProvider{err: boom}, Static("fallback")}
		token, err := chain.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fallback", token)
	})

	t.Run("no token and no errors", func(t *testing.T) {
		token, err := Chain{Static(""), CookieProvider{}}.Token(context.Background())
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("errors reported when nothing found", func(t *testing.T) {
		_, err := Chain{failingProvider{err: boom}, Static("")}.Token(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}

// Package auth supplies the anti-CSRF token sent with GraphQL status lookups.
//
// Tokens come from a literal value, the csrftoken cookie of a session cookie header,
// or the csrf-token meta tag of a page. Chain tries several sources in order.
// An empty token is valid: lookups then run anonymously.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Sternrassler/contest-status/pkg/client"
)

// CookieName is the cookie carrying the anti-CSRF token.
const CookieName = "csrftoken"

// MetaSelector selects the meta tag carrying the anti-CSRF token.
const MetaSelector = `meta[name="csrf-token"]`

// Provider supplies an anti-CSRF token. An empty token with a nil error means none
// is available.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token.
type Static string

// Token returns the static value.
func (s Static) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// CookieProvider reads the token from a raw Cookie header.
type CookieProvider struct {
	Cookie string
}

// Token returns the csrftoken cookie value, or "" when absent.
func (p CookieProvider) Token(context.Context) (string, error) {
	return TokenFromCookie(p.Cookie), nil
}

// TokenFromCookie extracts the csrftoken value from a raw Cookie header.
func TokenFromCookie(header string) string {
	if header == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// Fall back to a lenient scan for headers with one malformed pair.
		for _, part := range strings.Split(header, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
			if ok && name == CookieName {
				return value
			}
		}
		return ""
	}
	for _, c := range cookies {
		if c.Name == CookieName {
			return c.Value
		}
	}
	return ""
}

// TokenFromHTML returns the content of the csrf-token meta tag, or "" if the page
// has none.
func TokenFromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	content, _ := doc.Find(MetaSelector).First().Attr("content")
	return strings.TrimSpace(content), nil
}

// PageProvider fetches a page and reads its csrf-token meta tag.
type PageProvider struct {
	Client *client.Client
	// Path of the page to load, "/" when empty.
	Path string
}

// Token fetches the page and extracts the meta token.
func (p PageProvider) Token(ctx context.Context) (string, error) {
	path := p.Path
	if path == "" {
		path = "/"
	}

	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml")

	body, err := p.Client.Do(ctx, client.Request{
		Method:     http.MethodGet,
		Path:       path,
		Endpoint:   "page",
		Identifier: path,
		Header:     header,
	})
	if err != nil {
		return "", fmt.Errorf("load token page: %w", err)
	}

	return TokenFromHTML(bytes.NewReader(body))
}

// Chain returns the first non-empty token among its providers. Provider errors are
// collected and only reported when no provider yields a token.
type Chain []Provider

// Token walks the chain in order.
func (c Chain) Token(ctx context.Context) (string, error) {
	var errs []error
	for _, p := range c {
		token, err := p.Token(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if token != "" {
			return token, nil
		}
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("no csrf token: %w", errors.Join(errs...))
	}
	return "", nil
}

// Package source discovers which contests a run should cover: either literal slugs
// and URLs, or the contest cards of a saved contest list page.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/Sternrassler/contest-status/pkg/contest"
	"github.com/rs/zerolog/log"
)

// DefaultCardSelector matches the contest cards on the contest list page.
const DefaultCardSelector = `a.flex.items-center.gap-4.px-4[href^="/contest/"]`

// nameSelector holds the display name inside a card.
const nameSelector = ".text-base.font-medium"

// maxNameLen bounds names taken from a card's full text.
const maxNameLen = 80

// ErrNoContests is returned when a source yields nothing to process.
var ErrNoContests = errors.New("no contests found")

var cardHref = regexp.MustCompile(`^/contest/([^/]+)/?$`)

// Source yields the contests of a run in display order.
type Source interface {
	Discover(ctx context.Context) ([]contest.Contest, error)
}

// Literal turns command-line slugs or contest URLs into contests. Any
// unrecognized input fails the whole discovery.
type Literal struct {
	Inputs  []string
	BaseURL string
}

// Discover implements Source.
func (l Literal) Discover(ctx context.Context) ([]contest.Contest, error) {
	if len(l.Inputs) == 0 {
		return nil, ErrNoContests
	}

	seen := make(map[string]bool, len(l.Inputs))
	contests := make([]contest.Contest, 0, len(l.Inputs))
	for _, input := range l.Inputs {
		slug, err := contest.ParseInput(input)
		if err != nil {
			return nil, err
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		contests = append(contests, contest.New(slug, "", l.BaseURL))
	}
	return contests, nil
}

// Page scrapes contest cards from a saved contest list page.
type Page struct {
	// Path is the HTML file to read.
	Path string
	// Selector overrides DefaultCardSelector.
	Selector string
	BaseURL  string
}

// Discover implements Source.
func (p Page) Discover(ctx context.Context) ([]contest.Contest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open contest page: %w", err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse extracts contests from an HTML document.
func (p Page) Parse(r io.Reader) ([]contest.Contest, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse contest page: %w", err)
	}

	selector := p.Selector
	if selector == "" {
		selector = DefaultCardSelector
	}

	seen := make(map[string]bool)
	var contests []contest.Contest
	doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Attr("href")
		m := cardHref.FindStringSubmatch(strings.TrimSpace(href))
		if m == nil || seen[m[1]] {
			return
		}
		c := contest.New(m[1], cardName(card), p.BaseURL)
		if err := c.Validate(); err != nil {
			log.Debug().
				Str("component", "source").
				Str("href", href).
				Err(err).
				Msg("Skipping contest card with unusable slug")
			return
		}
		seen[m[1]] = true
		contests = append(contests, c)
	})

	if len(contests) == 0 {
		return nil, ErrNoContests
	}

	log.Debug().
		Str("component", "source").
		Int("contests", len(contests)).
		Msg("Discovered contests on page")

	return contests, nil
}

func cardName(card *goquery.Selection) string {
	if name := collapse(card.Find(nameSelector).First().Text()); name != "" {
		return name
	}
	name := collapse(card.Text())
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

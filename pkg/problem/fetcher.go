package problem

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Sternrassler/contest-status/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EndpointGraphQL labels GraphQL requests in metrics and errors.
const EndpointGraphQL = "graphql"

const questionDataQuery = `
query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    title
    titleSlug
    status
    difficulty
    questionFrontendId
  }
}
`

type graphQLRequest struct {
	OperationName string            `json:"operationName"`
	Variables     map[string]string `json:"variables"`
	Query         string            `json:"query"`
}

// questionDataResponse decodes status and questionFrontendId loosely since they are
// not always strings.
type questionDataResponse struct {
	Data struct {
		Question *struct {
			Title              string `json:"title"`
			TitleSlug          string `json:"titleSlug"`
			Status             any    `json:"status"`
			Difficulty         string `json:"difficulty"`
			QuestionFrontendID any    `json:"questionFrontendId"`
		} `json:"question"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// StatusFetcher queries problem status through GraphQL.
type StatusFetcher struct {
	client *client.Client
	logger zerolog.Logger
}

// NewStatusFetcher creates a fetcher using c for transport.
func NewStatusFetcher(c *client.Client) *StatusFetcher {
	return &StatusFetcher{
		client: c,
		logger: log.With().Str("component", "problem-status").Logger(),
	}
}

// FetchStatus returns the status of the problem identified by slug as seen by the
// session behind token. An empty token performs an anonymous lookup.
func (f *StatusFetcher) FetchStatus(ctx context.Context, slug, token string) (Problem, error) {
	base := f.client.BaseURL()

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Csrftoken", token)
	header.Set("X-Requested-With", "XMLHttpRequest")
	header.Set("Referer", base+"/")

	var resp questionDataResponse
	err := f.client.DoJSON(ctx, client.Request{
		Method:     http.MethodPost,
		Path:       "/graphql",
		Endpoint:   EndpointGraphQL,
		Identifier: slug,
		Header:     header,
		Body: graphQLRequest{
			OperationName: "questionData",
			Variables:     map[string]string{"titleSlug": slug},
			Query:         questionDataQuery,
		},
	}, &resp)
	if err != nil {
		return Problem{}, err
	}

	for _, e := range resp.Errors {
		f.logger.Debug().Str("problem", slug).Str("message", e.Message).Msg("GraphQL error entry")
	}

	p := Problem{
		Slug:  slug,
		Title: "(unknown)",
		URL:   URL(base, slug),
	}

	if q := resp.Data.Question; q != nil {
		if q.Title != "" {
			p.Title = q.Title
		}
		if q.TitleSlug != "" {
			p.Slug = q.TitleSlug
		}
		p.FrontendID = scalarString(q.QuestionFrontendID)
		p.Difficulty = q.Difficulty
		p.RawStatus = scalarString(q.Status)
	} else {
		f.logger.Debug().Str("problem", slug).Msg("GraphQL returned no question")
	}
	p.Solved = IsSolved(p.RawStatus)

	return p, nil
}

// scalarString renders strings and numbers as text. Anything else, including null
// and booleans, is "".
func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

package contest

import (
	"context"
	"net/http"

	"github.com/Sternrassler/contest-status/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EndpointContestInfo labels contest info requests in metrics and errors.
const EndpointContestInfo = "contest_info"

// InfoFetcher retrieves contest problem lists.
type InfoFetcher struct {
	client *client.Client
	logger zerolog.Logger
}

// NewInfoFetcher creates a fetcher using c for transport.
func NewInfoFetcher(c *client.Client) *InfoFetcher {
	return &InfoFetcher{
		client: c,
		logger: log.With().Str("component", "contest-info").Logger(),
	}
}

// FetchQuestions returns the problems of the contest identified by slug. A non-2xx
// response is returned as *client.RemoteFetchError.
func (f *InfoFetcher) FetchQuestions(ctx context.Context, slug string) ([]Question, error) {
	body, err := f.client.Do(ctx, client.Request{
		Method:     http.MethodGet,
		Path:       "/contest/api/info/" + slug + "/",
		Endpoint:   EndpointContestInfo,
		Identifier: slug,
	})
	if err != nil {
		return nil, err
	}

	questions, dropped, err := ParseQuestions(body)
	if err != nil {
		return nil, err
	}

	if dropped > 0 {
		f.logger.Debug().
			Str("contest", slug).
			Int("dropped", dropped).
			Msg("Dropped question records without a slug")
	}

	f.logger.Debug().
		Str("contest", slug).
		Int("questions", len(questions)).
		Msg("Contest info fetched")

	return questions, nil
}

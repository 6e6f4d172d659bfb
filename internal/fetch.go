package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/types"
)

// Outcome tags the result of a page fetch that did not fail terminally.
type Outcome int

const (
	// OutcomeOK means Page holds the fetched posts.
	OutcomeOK Outcome = iota
	// OutcomeTokenRejected means the server refused the token; the caller
	// decides whether to register a new one.
	OutcomeTokenRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTokenRejected:
		return "token_rejected"
	default:
		return "unknown"
	}
}

// FetchResult is the non-terminal result of FetchPage.
type FetchResult struct {
	Outcome    Outcome
	StatusCode int
	Page       types.Page
}

// PostFetcher retrieves single pages of posts.
type PostFetcher struct {
	transport Transport
	postsURL  *url.URL
	parser    *Parser
	logger    *slog.Logger
}

// NewPostFetcher creates a fetcher for the given posts endpoint.
func NewPostFetcher(transport Transport, postsEndpoint string, logger *slog.Logger) (*PostFetcher, error) {
	parsedURL, err := url.Parse(postsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse posts endpoint: %w", err)
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &PostFetcher{
		transport: transport,
		postsURL:  parsedURL,
		parser:    NewParser(),
		logger:    logger,
	}, nil
}

// FetchPage requests one page with the given token. A refused token is
// reported through FetchResult.Outcome; every other failure is returned as
// a *errors.DataGetError.
func (f *PostFetcher) FetchPage(ctx context.Context, token types.Token, page int) (FetchResult, error) {
	query := url.Values{}
	query.Set("sl_token", token.Value)
	query.Set("page", strconv.Itoa(page))

	resp, err := f.transport.Get(ctx, f.postsURL.String(), query)
	if err != nil {
		return FetchResult{}, pkgerrs.RequestFailed(pkgerrs.StageGetPosts, err)
	}

	if resp.StatusCode != http.StatusOK {
		if f.parser.IsTokenRejection(resp.StatusCode, resp.Body) {
			f.logger.Debug("token rejected", "stage", pkgerrs.StageGetPosts, "page", page, "status", resp.StatusCode)
			return FetchResult{Outcome: OutcomeTokenRejected, StatusCode: resp.StatusCode}, nil
		}
		return FetchResult{}, pkgerrs.UnexpectedStatus(pkgerrs.StageGetPosts, resp.StatusCode)
	}

	posts, err := f.parser.ParsePosts(resp.Body)
	if err != nil {
		return FetchResult{}, err
	}

	f.logger.Debug("page fetched", "stage", pkgerrs.StageGetPosts, "page", page, "posts", len(posts))
	return FetchResult{
		Outcome:    OutcomeOK,
		StatusCode: resp.StatusCode,
		Page: types.Page{
			Number:  page,
			Posts:   posts,
			HasMore: len(posts) > 0,
		},
	}, nil
}

package smstats

import (
	"context"
	"log/slog"

	"github.com/jamesprial/go-smstats/internal"
	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/stats"
	"github.com/jamesprial/go-smstats/pkg/types"
)

// tokenRegistrar issues session tokens.
type tokenRegistrar interface {
	Register(ctx context.Context) (types.Token, error)
}

// pageFetcher retrieves one page of posts with a given token.
type pageFetcher interface {
	FetchPage(ctx context.Context, token types.Token, page int) (internal.FetchResult, error)
}

// PostManager registers a token, pages through the posts API and aggregates
// the result. It holds mutable token state and must not be used from several
// goroutines at once.
type PostManager struct {
	config  Config
	tokens  tokenRegistrar
	fetcher pageFetcher
	token   types.Token
	logger  *slog.Logger
	metrics *Metrics
}

// New builds a PostManager and registers its first token.
//
// A nil config uses every default. The config is copied, so later changes
// by the caller have no effect on the manager.
//
// Returns an error if:
//   - the config is invalid (*errors.ConfigError)
//   - token registration fails (*errors.DataGetError with stage "Get Token")
func New(ctx context.Context, config *Config) (*PostManager, error) {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := internal.NewClient(cfg.HTTPClient, cfg.UserAgent, cfg.RateLimit, cfg.Logger)

	tokens, err := internal.NewTokenClient(transport, cfg.TokenEndpoint, cfg.identity(), cfg.Logger)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "TokenEndpoint", Message: err.Error()}
	}
	fetcher, err := internal.NewPostFetcher(transport, cfg.PostsEndpoint, cfg.Logger)
	if err != nil {
		return nil, &pkgerrs.ConfigError{Field: "PostsEndpoint", Message: err.Error()}
	}

	return newPostManager(ctx, cfg, tokens, fetcher)
}

func newPostManager(ctx context.Context, cfg Config, tokens tokenRegistrar, fetcher pageFetcher) (*PostManager, error) {
	m := &PostManager{
		config:  cfg,
		tokens:  tokens,
		fetcher: fetcher,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}

	if err := m.registerToken(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Config returns a copy of the defaulted configuration in use.
func (m *PostManager) Config() Config {
	return m.config
}

// Token returns the current session token.
func (m *PostManager) Token() types.Token {
	return m.token
}

// GetPostsStats fetches every page up to MaxPage and aggregates the posts.
// Nothing is returned unless all pages were fetched successfully.
func (m *PostManager) GetPostsStats(ctx context.Context) (types.Stats, error) {
	posts, err := m.FetchPosts(ctx)
	if err != nil {
		return types.Stats{}, err
	}

	result := stats.Aggregate(posts)
	m.logger.Info("posts aggregated", "posts", result.TotalPosts, "months", len(result.AvgPostLengthPerMonth))
	return result, nil
}

// FetchPosts returns the posts of every page up to MaxPage, stopping early
// at the first empty page.
func (m *PostManager) FetchPosts(ctx context.Context) ([]types.Post, error) {
	it := m.NewPostIterator()

	var posts []types.Post
	for it.HasNext() {
		page, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		posts = append(posts, page.Posts...)
	}

	m.logger.Debug("pagination finished", "pages", it.Pages(), "posts", len(posts))
	return posts, nil
}

// registerToken replaces the current token with a freshly issued one.
func (m *PostManager) registerToken(ctx context.Context) error {
	token, err := m.tokens.Register(ctx)
	if err != nil {
		m.metrics.incRequest(stageLabelToken, resultError)
		return err
	}
	m.metrics.incRequest(stageLabelToken, resultOK)
	m.token = token
	return nil
}

// fetchPage fetches one page and records the outcome.
func (m *PostManager) fetchPage(ctx context.Context, page int) (internal.FetchResult, error) {
	result, err := m.fetcher.FetchPage(ctx, m.token, page)
	switch {
	case err != nil:
		m.metrics.incRequest(stageLabelPosts, resultError)
	case result.Outcome == internal.OutcomeTokenRejected:
		m.metrics.incRequest(stageLabelPosts, resultTokenRejected)
	default:
		m.metrics.incRequest(stageLabelPosts, resultOK)
		m.metrics.addPosts(len(result.Page.Posts))
	}
	return result, err
}

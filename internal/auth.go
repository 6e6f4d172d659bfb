package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/types"
)

// Identity is the registration payload. Fields left empty are omitted from
// the request body.
type Identity struct {
	ClientID string `json:"client_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

// TokenClient registers session tokens with the Supermetrics API.
type TokenClient struct {
	transport Transport
	tokenURL  *url.URL
	identity  Identity
	parser    *Parser
	logger    *slog.Logger
	now       func() time.Time
}

// NewTokenClient creates a new token client for the given register endpoint.
func NewTokenClient(transport Transport, tokenEndpoint string, identity Identity, logger *slog.Logger) (*TokenClient, error) {
	parsedURL, err := url.Parse(tokenEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token endpoint: %w", err)
	}
	if logger == nil {
		logger = discardLogger()
	}

	return &TokenClient{
		transport: transport,
		tokenURL:  parsedURL,
		identity:  identity,
		parser:    NewParser(),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Register posts the identity and returns the issued token. Only the
// transport status decides success; a token the server will later refuse
// is still returned.
func (a *TokenClient) Register(ctx context.Context) (types.Token, error) {
	resp, err := a.transport.PostJSON(ctx, a.tokenURL.String(), a.identity)
	if err != nil {
		return types.Token{}, pkgerrs.RequestFailed(pkgerrs.StageGetToken, err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Debug("token registration refused", "stage", pkgerrs.StageGetToken, "status", resp.StatusCode)
		return types.Token{}, pkgerrs.UnexpectedStatus(pkgerrs.StageGetToken, resp.StatusCode)
	}

	value, err := a.parser.ParseToken(resp.Body)
	if err != nil {
		return types.Token{}, err
	}

	a.logger.Debug("token registered", "stage", pkgerrs.StageGetToken)
	return types.Token{Value: value, IssuedAt: a.now()}, nil
}

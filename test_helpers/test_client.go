package test_helpers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	smstats "github.com/jamesprial/go-smstats"
)

// TestClient pairs a PostManager with the mock server it talks to
type TestClient struct {
	*smstats.PostManager
	mockServer *MockServer
}

const (
	testUserAgent = "smstats-test/1.0"
	testTimeout   = 5 * time.Second
)

// NewTestConfig returns a config pointing at server with a short timeout.
func NewTestConfig(server *MockServer) *smstats.Config {
	return &smstats.Config{
		TokenEndpoint: server.RegisterURL(),
		PostsEndpoint: server.PostsURL(),
		UserAgent:     testUserAgent,
		HTTPClient:    &http.Client{Timeout: testTimeout},
	}
}

// NewTestClient starts a mock server, lets setup configure it and creates a
// manager against it. A nil config uses NewTestConfig; a non-nil one has its
// empty fields filled in from NewTestConfig.
func NewTestClient(ctx context.Context, config *smstats.Config, setup func(*MockServer)) (*TestClient, error) {
	server := NewMockServer()
	if setup != nil {
		setup(server)
	}

	if config == nil {
		config = NewTestConfig(server)
	} else {
		defaults := NewTestConfig(server)
		cfg := *config
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = defaults.TokenEndpoint
		}
		if cfg.PostsEndpoint == "" {
			cfg.PostsEndpoint = defaults.PostsEndpoint
		}
		if cfg.UserAgent == "" {
			cfg.UserAgent = defaults.UserAgent
		}
		if cfg.HTTPClient == nil {
			cfg.HTTPClient = defaults.HTTPClient
		}
		config = &cfg
	}

	manager, err := smstats.New(ctx, config)
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("create manager: %w", err)
	}

	return &TestClient{PostManager: manager, mockServer: server}, nil
}

// MockServer returns the underlying mock server
func (tc *TestClient) MockServer() *MockServer {
	return tc.mockServer
}

// Close closes the mock server
func (tc *TestClient) Close() {
	tc.mockServer.Close()
}

// SetupExpiredToken makes the first issued token be refused by the posts
// endpoint while the second one is accepted.
func SetupExpiredToken(server *MockServer) {
	server.SetTokenSequence("expired-token", "fresh-token")
	server.AcceptTokens("fresh-token")
}

// SetupAlwaysInvalidToken makes the register endpoint issue tokens the posts
// endpoint always refuses.
func SetupAlwaysInvalidToken(server *MockServer) {
	server.SetTokenSequence("invalid")
}

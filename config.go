package smstats

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jamesprial/go-smstats/internal"
)

const (
	// DefaultTokenEndpoint is the Supermetrics register endpoint
	DefaultTokenEndpoint = "https://api.supermetrics.com/assignment/register"
	// DefaultPostsEndpoint is the Supermetrics posts endpoint
	DefaultPostsEndpoint = "https://api.supermetrics.com/assignment/posts"
	// DefaultMaxPage is the number of pages fetched when MaxPage is unset
	DefaultMaxPage = 10
	// DefaultUserAgent is the default user agent string
	DefaultUserAgent = "go-smstats/0.1"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
)

// Environment variables read by ApplyEnv.
const (
	EnvClientID      = "SMSTATS_CLIENT_ID"
	EnvName          = "SMSTATS_NAME"
	EnvEmail         = "SMSTATS_EMAIL"
	EnvMaxPage       = "SMSTATS_MAX_PAGE"
	EnvTokenEndpoint = "SMSTATS_TOKEN_ENDPOINT"
	EnvPostsEndpoint = "SMSTATS_POSTS_ENDPOINT"
)

// RateLimitConfig optionally throttles requests on the client side. When nil
// or zero, requests are only slowed down by the server's own back-off headers.
type RateLimitConfig = internal.RateLimitConfig

// Config holds the connection parameters for a PostManager.
//
// ClientID, Name and Email identify the caller when registering a token.
// Only the ones that are set are sent; the others are left to the server.
//
//	config := &smstats.Config{
//		ClientID: "your-client-id",
//		Email:    "you@example.com",
//		Name:     "Your Name",
//		MaxPage:  10,
//	}
type Config struct {
	ClientID string `yaml:"client_id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`

	// MaxPage is the last page fetched. Defaults to DefaultMaxPage if zero.
	MaxPage int `yaml:"max_page"`

	// TokenEndpoint and PostsEndpoint default to the Supermetrics assignment API.
	TokenEndpoint string `yaml:"token_endpoint"`
	PostsEndpoint string `yaml:"posts_endpoint"`

	// UserAgent defaults to DefaultUserAgent.
	UserAgent string `yaml:"user_agent"`

	// Timeout applies to the default HTTP client only. Defaults to DefaultTimeout.
	Timeout time.Duration `yaml:"timeout"`

	RateLimit *RateLimitConfig `yaml:"rate_limit"`

	// HTTPClient to use for requests.
	// Defaults to a client with Timeout if not specified.
	HTTPClient *http.Client `yaml:"-"`

	// Logger for structured diagnostics.
	// Optional. If provided, debug information will be logged during API calls.
	Logger *slog.Logger `yaml:"-"`

	// Metrics receives request counters. Optional.
	Metrics *Metrics `yaml:"-"`
}

// LoadConfig reads a YAML config file. Unset fields keep their zero value
// and are defaulted when the manager is built.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return &c, nil
}

// ApplyEnv overrides fields from SMSTATS_* environment variables. Empty
// variables are ignored.
func ApplyEnv(c *Config) error {
	if v := getEnv(EnvClientID); v != "" {
		c.ClientID = v
	}
	if v := getEnv(EnvName); v != "" {
		c.Name = v
	}
	if v := getEnv(EnvEmail); v != "" {
		c.Email = v
	}
	if v := getEnv(EnvTokenEndpoint); v != "" {
		c.TokenEndpoint = v
	}
	if v := getEnv(EnvPostsEndpoint); v != "" {
		c.PostsEndpoint = v
	}
	if v := getEnv(EnvMaxPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxPage, err)
		}
		c.MaxPage = n
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// withDefaults returns a copy of c with every unset field defaulted.
func (c Config) withDefaults() Config {
	if c.MaxPage == 0 {
		c.MaxPage = DefaultMaxPage
	}
	if c.TokenEndpoint == "" {
		c.TokenEndpoint = DefaultTokenEndpoint
	}
	if c.PostsEndpoint == "" {
		c.PostsEndpoint = DefaultPostsEndpoint
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Validate checks a defaulted config.
func (c Config) Validate() error {
	v := internal.NewValidator()
	if err := v.ValidateMaxPage(c.MaxPage); err != nil {
		return err
	}
	if err := v.ValidateEndpoint("TokenEndpoint", c.TokenEndpoint); err != nil {
		return err
	}
	if err := v.ValidateEndpoint("PostsEndpoint", c.PostsEndpoint); err != nil {
		return err
	}
	if err := v.ValidateIdentity(c.identity()); err != nil {
		return err
	}
	return v.ValidateUserAgent(c.UserAgent)
}

func (c Config) identity() internal.Identity {
	return internal.Identity{ClientID: c.ClientID, Name: c.Name, Email: c.Email}
}

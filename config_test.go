package smstats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smstats.yaml")
	content := `
client_id: ju16a6m81mhid5ue1z3v2g0uh
name: Jane Doe
email: jane@example.com
max_page: 4
posts_endpoint: http://127.0.0.1:9000/assignment/posts
timeout: 5s
rate_limit:
  requests_per_minute: 120
  burst: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ju16a6m81mhid5ue1z3v2g0uh", cfg.ClientID)
	assert.Equal(t, "Jane Doe", cfg.Name)
	assert.Equal(t, "jane@example.com", cfg.Email)
	assert.Equal(t, 4, cfg.MaxPage)
	assert.Equal(t, "http://127.0.0.1:9000/assignment/posts", cfg.PostsEndpoint)
	assert.Equal(t, "", cfg.TokenEndpoint)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.RateLimit)
	assert.Equal(t, 120.0, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_page: [1"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "unmarshal config")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvClientID, "env_client")
	t.Setenv(EnvName, " Env Name ")
	t.Setenv(EnvEmail, "")
	t.Setenv(EnvMaxPage, "7")
	t.Setenv(EnvTokenEndpoint, "http://localhost/register")
	t.Setenv(EnvPostsEndpoint, "")

	cfg := &Config{Email: "file@example.com", PostsEndpoint: "http://file/posts"}
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "env_client", cfg.ClientID)
	assert.Equal(t, "Env Name", cfg.Name)
	assert.Equal(t, "file@example.com", cfg.Email)
	assert.Equal(t, 7, cfg.MaxPage)
	assert.Equal(t, "http://localhost/register", cfg.TokenEndpoint)
	assert.Equal(t, "http://file/posts", cfg.PostsEndpoint)
}

func TestApplyEnv_BadMaxPage(t *testing.T) {
	t.Setenv(EnvMaxPage, "ten")
	err := ApplyEnv(&Config{})
	assert.ErrorContains(t, err, EnvMaxPage)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultMaxPage, cfg.MaxPage)
	assert.Equal(t, DefaultTokenEndpoint, cfg.TokenEndpoint)
	assert.Equal(t, DefaultPostsEndpoint, cfg.PostsEndpoint)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	require.NotNil(t, cfg.HTTPClient)
	assert.Equal(t, DefaultTimeout, cfg.HTTPClient.Timeout)
	assert.NotNil(t, cfg.Logger)
	assert.Nil(t, cfg.Metrics)
	assert.NoError(t, cfg.Validate())
}

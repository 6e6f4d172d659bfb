package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/types"
)

var (
	tokenPath = []string{"data", "sl_token"}
	postsPath = []string{"data", "posts"}
)

// errPathNotFound is returned by lookupPath when a key is absent or null.
var errPathNotFound = errors.New("path not found")

// Parser decodes the bodies returned by the Supermetrics API.
type Parser struct{}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseToken extracts data.sl_token from a register response.
// The value is returned untouched, even when it is the server's "invalid" marker.
func (p *Parser) ParseToken(body []byte) (string, error) {
	raw, err := p.lookup(pkgerrs.StageGetToken, body, tokenPath...)
	if err != nil {
		return "", err
	}

	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", pkgerrs.UnreadableJSON(pkgerrs.StageGetToken, err)
	}
	return token, nil
}

// ParsePosts extracts data.posts from a posts response.
func (p *Parser) ParsePosts(body []byte) ([]types.Post, error) {
	raw, err := p.lookup(pkgerrs.StageGetPosts, body, postsPath...)
	if err != nil {
		return nil, err
	}

	var posts []types.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, pkgerrs.UnreadableJSON(pkgerrs.StageGetPosts, err)
	}
	return posts, nil
}

func (p *Parser) lookup(stage string, body []byte, path ...string) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return nil, pkgerrs.UnreadableJSON(stage, errors.New("invalid or empty json body"))
	}

	raw, err := lookupPath(body, path...)
	if errors.Is(err, errPathNotFound) {
		return nil, pkgerrs.MissingParameter(stage, path...)
	}
	if err != nil {
		return nil, pkgerrs.UnreadableJSON(stage, err)
	}
	return raw, nil
}

// lookupPath walks nested JSON objects key by key.
func lookupPath(body []byte, path ...string) (json.RawMessage, error) {
	current := json.RawMessage(body)
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			// A scalar or array where an object was expected means the key is not there.
			return nil, errPathNotFound
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			return nil, errPathNotFound
		}
		current = next
	}
	return current, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// IsTokenRejection reports whether a non-200 response means the token
// itself was refused, as opposed to any other server failure.
func (p *Parser) IsTokenRejection(status int, body []byte) bool {
	if status == http.StatusOK {
		return false
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return false
	}
	return strings.Contains(strings.ToLower(envelope.Error.Message), "token")
}

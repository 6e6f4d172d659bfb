package helpers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesprial/go-smstats/pkg/types"
)

// MalformedBody is a posts response body together with the reason the
// client should reject it with
type MalformedBody struct {
	Name   string
	Body   string
	Reason string
}

const (
	reasonUnreadable = "Could not read json from response"
	reasonNoPosts    = "Parameter ('data', 'posts') not found in received json response"
)

// JSONGenerator creates malicious and malformed JSON for testing
type JSONGenerator struct{}

// NewJSONGenerator creates a new JSON generator
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// GenerateMalformedPostsResponses returns 200 bodies the posts parser must refuse
func (g *JSONGenerator) GenerateMalformedPostsResponses() []MalformedBody {
	return []MalformedBody{
		{Name: "truncated object", Body: `{"data":{"posts":[`, Reason: reasonUnreadable},
		{Name: "trailing garbage", Body: `{"data":{"posts":[]}} trailing`, Reason: reasonUnreadable},
		{Name: "bare string", Body: `"posts"`, Reason: reasonNoPosts},
		{Name: "html error page", Body: `<html><body>502 Bad Gateway</body></html>`, Reason: reasonUnreadable},
		{Name: "nul bytes", Body: "\x00\x00\x00", Reason: reasonUnreadable},
		{Name: "data is null", Body: `{"data":null}`, Reason: reasonNoPosts},
		{Name: "data is array", Body: `{"data":[{"posts":[]}]}`, Reason: reasonNoPosts},
		{Name: "posts is null", Body: `{"data":{"posts":null}}`, Reason: reasonNoPosts},
		{Name: "posts misspelled", Body: `{"data":{"post":[]}}`, Reason: reasonNoPosts},
		{Name: "posts is object", Body: `{"data":{"posts":{"id":"x"}}}`, Reason: reasonUnreadable},
		{Name: "posts is string", Body: `{"data":{"posts":"none"}}`, Reason: reasonUnreadable},
		{Name: "post id is number", Body: `{"data":{"posts":[{"id":1}]}}`, Reason: reasonUnreadable},
		{Name: "message is object", Body: `{"data":{"posts":[{"id":"a","message":{"text":"hi"}}]}}`, Reason: reasonUnreadable},
		{Name: "json bomb", Body: g.GenerateJSONBomb(5000), Reason: reasonNoPosts},
	}
}

// GenerateMalformedTokenResponses returns 200 bodies the register parser must refuse
func (g *JSONGenerator) GenerateMalformedTokenResponses() []MalformedBody {
	const reasonNoToken = "Parameter ('data', 'sl_token') not found in received json response"
	return []MalformedBody{
		{Name: "empty object", Body: `{}`, Reason: reasonNoToken},
		{Name: "token at top level", Body: `{"sl_token":"abc"}`, Reason: reasonNoToken},
		{Name: "token is null", Body: `{"data":{"sl_token":null}}`, Reason: reasonNoToken},
		{Name: "token is number", Body: `{"data":{"sl_token":12345}}`, Reason: reasonUnreadable},
		{Name: "truncated", Body: `{"data":{"sl_token":"ab`, Reason: reasonUnreadable},
		{Name: "empty", Body: ``, Reason: reasonUnreadable},
	}
}

// GenerateHostilePosts returns well-formed posts with awkward content:
// multi-byte messages, empty messages, odd timezones and bad timestamps.
func (g *JSONGenerator) GenerateHostilePosts() []types.Post {
	return []types.Post{
		{ID: "emoji", FromID: "user_1", Message: "😀😀😀", CreatedTime: "2020-12-31T23:30:00+00:00"},
		{ID: "cjk", FromID: "user_2", Message: "日本語のテキスト", CreatedTime: "2021-01-01T08:30:00+09:00"},
		{ID: "empty", FromID: "user_3", Message: "", CreatedTime: "2021-01-04T00:00:00Z"},
		{ID: "rtl", FromID: "user_1", Message: "‮evil‬", CreatedTime: "2021-01-04T12:00:00-05:00"},
		{ID: "no-time", FromID: "user_4", Message: "lost", CreatedTime: ""},
		{ID: "bad-time", FromID: "user_4", Message: "lost", CreatedTime: "yesterday"},
		{ID: "huge", FromID: "user_5", Message: strings.Repeat("x", 1<<20), CreatedTime: "2021-01-05T00:00:00Z"},
	}
}

// GeneratePostsBody wraps posts in a posts response body
func (g *JSONGenerator) GeneratePostsBody(page int, posts []types.Post) string {
	body, _ := json.Marshal(map[string]any{
		"meta": map[string]string{"request_id": fmt.Sprintf("adv-%d", page)},
		"data": map[string]any{"page": page, "posts": posts},
	})
	return string(body)
}

// GenerateJSONBomb creates deeply nested arrays
func (g *JSONGenerator) GenerateJSONBomb(depth int) string {
	return strings.Repeat("[", depth) + strings.Repeat("]", depth)
}

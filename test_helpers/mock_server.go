package test_helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/jamesprial/go-smstats/pkg/types"
)

const (
	// RegisterPath is the token registration path served by MockServer
	RegisterPath = "/assignment/register"
	// PostsPath is the posts path served by MockServer
	PostsPath = "/assignment/posts"
	// InvalidTokenBody is what the posts endpoint returns for an unknown token
	InvalidTokenBody = `{"error":{"message":"Invalid SL Token"}}`
)

// RequestEntry logs incoming requests for debugging
type RequestEntry struct {
	Method       string
	Path         string
	Query        string
	Headers      http.Header
	Body         string
	Timestamp    time.Time
	ResponseCode int
}

// MockResponse defines a canned response that overrides the default handling
type MockResponse struct {
	Status  int
	Body    string
	Headers map[string]string
	// MaxCalls limits how many times the response is served. 0 = unlimited.
	MaxCalls int
	served   int
}

// MockServer is an in-process stand-in for the Supermetrics assignment API.
//
// By default the register endpoint issues tokens "token-1", "token-2", ...
// and the posts endpoint accepts any token it has issued. Pages without
// configured posts are returned empty.
type MockServer struct {
	server *httptest.Server

	mu            sync.Mutex
	nextToken     int
	issued        map[string]bool
	tokenSequence []string
	pages         map[int][]types.Post
	register      []*MockResponse
	posts         map[int][]*MockResponse
	requestLog    []RequestEntry
	callCount     map[string]int
}

// NewMockServer creates and starts a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		issued:    make(map[string]bool),
		pages:     make(map[int][]types.Post),
		posts:     make(map[int][]*MockResponse),
		callCount: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RegisterPath, ms.handleRegister)
	mux.HandleFunc(PostsPath, ms.handlePosts)
	ms.server = httptest.NewServer(mux)
	return ms
}

// URL returns the base URL of the mock server
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// RegisterURL returns the full token registration URL
func (ms *MockServer) RegisterURL() string {
	return ms.server.URL + RegisterPath
}

// PostsURL returns the full posts URL
func (ms *MockServer) PostsURL() string {
	return ms.server.URL + PostsPath
}

// Close shuts down the mock server
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetPage configures the posts returned for a page number.
func (ms *MockServer) SetPage(page int, posts []types.Post) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.pages[page] = posts
}

// SetPages configures consecutive pages starting at page 1.
func (ms *MockServer) SetPages(pages [][]types.Post) {
	for i, posts := range pages {
		ms.SetPage(i+1, posts)
	}
}

// SetTokenSequence makes the register endpoint issue the given tokens in
// order. Once exhausted the last token is repeated. Issued tokens are only
// accepted by the posts endpoint if they were also passed to AcceptTokens.
func (ms *MockServer) SetTokenSequence(tokens ...string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.tokenSequence = tokens
}

// AcceptTokens marks tokens as valid for the posts endpoint.
func (ms *MockServer) AcceptTokens(tokens ...string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, t := range tokens {
		ms.issued[t] = true
	}
}

// RevokeTokens marks tokens as no longer valid.
func (ms *MockServer) RevokeTokens(tokens ...string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, t := range tokens {
		delete(ms.issued, t)
	}
}

// QueueRegisterResponse serves response for the next registration calls
// before falling back to issuing tokens.
func (ms *MockServer) QueueRegisterResponse(response *MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.register = append(ms.register, response)
}

// QueuePostsResponse serves response for a page before the default handling.
func (ms *MockServer) QueuePostsResponse(page int, response *MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.posts[page] = append(ms.posts[page], response)
}

// SetupError makes every request to path fail with the given status.
func (ms *MockServer) SetupError(path string, statusCode int, message string) {
	response := &MockResponse{
		Status: statusCode,
		Body:   fmt.Sprintf(`{"error":{"message":%q}}`, message),
	}
	if path == RegisterPath {
		ms.QueueRegisterResponse(response)
		return
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.posts[0] = append(ms.posts[0], response)
}

// GetRequestLog returns the request log
func (ms *MockServer) GetRequestLog() []RequestEntry {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]RequestEntry{}, ms.requestLog...)
}

// GetCallCount returns the call count for a path
func (ms *MockServer) GetCallCount(path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.callCount[path]
}

// AssertRequestCount asserts that a specific number of requests were made to a path
func (ms *MockServer) AssertRequestCount(path string, expectedCount int) error {
	actualCount := ms.GetCallCount(path)
	if actualCount != expectedCount {
		return fmt.Errorf("expected %d requests to %s, got %d", expectedCount, path, actualCount)
	}
	return nil
}

// GetLastRequest returns the last request made to a specific path
func (ms *MockServer) GetLastRequest(path string) (*RequestEntry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for i := len(ms.requestLog) - 1; i >= 0; i-- {
		if ms.requestLog[i].Path == path {
			entry := ms.requestLog[i]
			return &entry, nil
		}
	}

	return nil, fmt.Errorf("no requests found for path: %s", path)
}

func (ms *MockServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if r.Method != http.MethodPost {
		ms.respond(w, r, body, http.StatusMethodNotAllowed, `{"error":{"message":"method not allowed"}}`, nil)
		return
	}

	if resp := popQueued(&ms.register); resp != nil {
		ms.respond(w, r, body, resp.Status, resp.Body, resp.Headers)
		return
	}

	token := ms.issueToken()
	var identity map[string]string
	_ = json.Unmarshal(body, &identity)

	payload := map[string]any{
		"meta": map[string]string{"request_id": "req-" + strconv.Itoa(ms.nextToken)},
		"data": map[string]string{
			"client_id": identity["client_id"],
			"email":     identity["email"],
			"sl_token":  token,
		},
	}
	out, _ := json.Marshal(payload)
	ms.respond(w, r, body, http.StatusOK, string(out), nil)
}

// issueToken must be called with mu held.
func (ms *MockServer) issueToken() string {
	ms.nextToken++
	if len(ms.tokenSequence) > 0 {
		idx := ms.nextToken - 1
		if idx >= len(ms.tokenSequence) {
			idx = len(ms.tokenSequence) - 1
		}
		return ms.tokenSequence[idx]
	}

	token := "token-" + strconv.Itoa(ms.nextToken)
	ms.issued[token] = true
	return token
}

func (ms *MockServer) handlePosts(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if r.Method != http.MethodGet {
		ms.respond(w, r, nil, http.StatusMethodNotAllowed, `{"error":{"message":"method not allowed"}}`, nil)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	// page 0 holds responses for every page
	for _, key := range []int{page, 0} {
		queue := ms.posts[key]
		resp := popQueued(&queue)
		ms.posts[key] = queue
		if resp != nil {
			ms.respond(w, r, nil, resp.Status, resp.Body, resp.Headers)
			return
		}
	}

	if !ms.issued[r.URL.Query().Get("sl_token")] {
		ms.respond(w, r, nil, http.StatusInternalServerError, InvalidTokenBody, nil)
		return
	}

	posts := ms.pages[page]
	if posts == nil {
		posts = []types.Post{}
	}
	payload := map[string]any{
		"meta": map[string]string{"request_id": "req-posts-" + strconv.Itoa(page)},
		"data": map[string]any{
			"page":  page,
			"posts": posts,
		},
	}
	out, _ := json.Marshal(payload)
	ms.respond(w, r, nil, http.StatusOK, string(out), nil)
}

// respond writes the response and records it. Must be called with mu held.
func (ms *MockServer) respond(w http.ResponseWriter, r *http.Request, body []byte, status int, respBody string, headers map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(respBody))

	ms.callCount[r.URL.Path]++
	ms.requestLog = append(ms.requestLog, RequestEntry{
		Method:       r.Method,
		Path:         r.URL.Path,
		Query:        r.URL.RawQuery,
		Headers:      r.Header.Clone(),
		Body:         string(body),
		Timestamp:    time.Now(),
		ResponseCode: status,
	})
}

// popQueued returns the head of queue, dropping it once its MaxCalls is used
// up. An unlimited response stays queued.
func popQueued(queue *[]*MockResponse) *MockResponse {
	if len(*queue) == 0 {
		return nil
	}
	resp := (*queue)[0]
	resp.served++
	if resp.MaxCalls > 0 && resp.served >= resp.MaxCalls {
		*queue = (*queue)[1:]
	}
	return resp
}

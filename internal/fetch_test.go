package internal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/types"
)

// fakeTransport answers every GET with the same canned response and records
// the queries it saw.
type fakeTransport struct {
	resp    *Response
	err     error
	queries []url.Values
	urls    []string
}

func (f *fakeTransport) PostJSON(ctx context.Context, rawURL string, body any) (*Response, error) {
	return nil, errors.New("unexpected POST")
}

func (f *fakeTransport) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	f.urls = append(f.urls, rawURL)
	f.queries = append(f.queries, query)
	return f.resp, f.err
}

const twoPosts = `{"meta":{"request_id":"r"},"data":{"page":2,"posts":[
	{"id":"post1","from_name":"A","from_id":"user_1","message":"hi","type":"status","created_time":"2018-12-15T00:24:13+00:00"},
	{"id":"post2","from_name":"B","from_id":"user_2","message":"there","type":"status","created_time":"2018-12-14T00:24:13+00:00"}
]}}`

func TestPostFetcher_FetchPage(t *testing.T) {
	testCases := []struct {
		name        string
		resp        *Response
		wantOutcome Outcome
		wantPosts   int
		wantHasMore bool
		wantErr     string
	}{
		{
			name:        "page with posts",
			resp:        &Response{StatusCode: http.StatusOK, Body: []byte(twoPosts)},
			wantOutcome: OutcomeOK,
			wantPosts:   2,
			wantHasMore: true,
		},
		{
			name:        "empty page ends pagination",
			resp:        &Response{StatusCode: http.StatusOK, Body: []byte(`{"data":{"page":2,"posts":[]}}`)},
			wantOutcome: OutcomeOK,
			wantPosts:   0,
			wantHasMore: false,
		},
		{
			name:        "token rejected by message",
			resp:        &Response{StatusCode: http.StatusInternalServerError, Body: []byte(`{"error":{"message":"Invalid SL Token"}}`)},
			wantOutcome: OutcomeTokenRejected,
		},
		{
			name:        "token rejected by status",
			resp:        &Response{StatusCode: http.StatusUnauthorized},
			wantOutcome: OutcomeTokenRejected,
		},
		{
			name:    "server error",
			resp:    &Response{StatusCode: http.StatusServiceUnavailable},
			wantErr: "Error during stage: Get Posts. Unexpected response status: 503",
		},
		{
			name:    "server error with unrelated message",
			resp:    &Response{StatusCode: http.StatusInternalServerError, Body: []byte(`{"error":{"message":"database down"}}`)},
			wantErr: "Error during stage: Get Posts. Unexpected response status: 500",
		},
		{
			name:    "truncated body",
			resp:    &Response{StatusCode: http.StatusOK, Body: []byte(`{`)},
			wantErr: "Error during stage: Get Posts. Could not read json from response",
		},
		{
			name:    "no body",
			resp:    &Response{StatusCode: http.StatusOK},
			wantErr: "Error during stage: Get Posts. Could not read json from response",
		},
		{
			name:    "missing data posts",
			resp:    &Response{StatusCode: http.StatusOK, Body: []byte(`{}`)},
			wantErr: "Error during stage: Get Posts. Parameter ('data', 'posts') not found in received json response",
		},
		{
			name:    "posts not a list",
			resp:    &Response{StatusCode: http.StatusOK, Body: []byte(`{"data":{"posts":"nope"}}`)},
			wantErr: "Error during stage: Get Posts. Could not read json from response",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{resp: tc.resp}
			fetcher, err := NewPostFetcher(transport, "https://api.example.com/assignment/posts", nil)
			if err != nil {
				t.Fatalf("NewPostFetcher returned error: %v", err)
			}

			result, err := fetcher.FetchPage(context.Background(), types.Token{Value: "tok"}, 2)

			if len(transport.queries) != 1 {
				t.Fatalf("expected 1 request, got %d", len(transport.queries))
			}
			q := transport.queries[0]
			if q.Get("sl_token") != "tok" || q.Get("page") != "2" {
				t.Errorf("unexpected query %v", q)
			}

			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.wantErr)
				}
				if err.Error() != tc.wantErr {
					t.Errorf("expected error %q, got %q", tc.wantErr, err.Error())
				}
				var dataErr *pkgerrs.DataGetError
				if !errors.As(err, &dataErr) {
					t.Errorf("expected DataGetError, got %T", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Outcome != tc.wantOutcome {
				t.Errorf("expected outcome %v, got %v", tc.wantOutcome, result.Outcome)
			}
			if result.StatusCode != tc.resp.StatusCode {
				t.Errorf("expected status %d, got %d", tc.resp.StatusCode, result.StatusCode)
			}
			if tc.wantOutcome != OutcomeOK {
				return
			}
			if result.Page.Number != 2 {
				t.Errorf("expected page number 2, got %d", result.Page.Number)
			}
			if len(result.Page.Posts) != tc.wantPosts {
				t.Errorf("expected %d posts, got %d", tc.wantPosts, len(result.Page.Posts))
			}
			if result.Page.HasMore != tc.wantHasMore {
				t.Errorf("expected HasMore %v, got %v", tc.wantHasMore, result.Page.HasMore)
			}
		})
	}
}

func TestPostFetcher_FetchPageDecodesPosts(t *testing.T) {
	transport := &fakeTransport{resp: &Response{StatusCode: http.StatusOK, Body: []byte(twoPosts)}}
	fetcher, err := NewPostFetcher(transport, "https://api.example.com/assignment/posts", nil)
	if err != nil {
		t.Fatalf("NewPostFetcher returned error: %v", err)
	}

	result, err := fetcher.FetchPage(context.Background(), types.Token{Value: "tok"}, 1)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}

	want := types.Post{ID: "post1", FromName: "A", FromID: "user_1", Message: "hi", Type: "status", CreatedTime: "2018-12-15T00:24:13+00:00"}
	if result.Page.Posts[0] != want {
		t.Errorf("unexpected first post %+v", result.Page.Posts[0])
	}
	if transport.urls[0] != "https://api.example.com/assignment/posts" {
		t.Errorf("unexpected url %q", transport.urls[0])
	}
}

func TestPostFetcher_TransportError(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	fetcher, err := NewPostFetcher(&fakeTransport{err: cause}, "https://api.example.com/posts", nil)
	if err != nil {
		t.Fatalf("NewPostFetcher returned error: %v", err)
	}

	_, err = fetcher.FetchPage(context.Background(), types.Token{Value: "tok"}, 1)

	var dataErr *pkgerrs.DataGetError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataGetError, got %T", err)
	}
	if dataErr.Stage != pkgerrs.StageGetPosts {
		t.Errorf("expected stage %q, got %q", pkgerrs.StageGetPosts, dataErr.Stage)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeOK.String() != "ok" || OutcomeTokenRejected.String() != "token_rejected" || Outcome(9).String() != "unknown" {
		t.Error("unexpected Outcome strings")
	}
}

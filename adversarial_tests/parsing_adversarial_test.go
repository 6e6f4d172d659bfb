package adversarial_tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/jamesprial/go-smstats/adversarial_tests/helpers"
	"github.com/jamesprial/go-smstats/internal"
	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/test_helpers"
	"github.com/jamesprial/go-smstats/test_utils"
)

// TestMalformedPostsResponses feeds hostile 200 bodies to the posts
// endpoint and checks each one is refused with the right reason.
func TestMalformedPostsResponses(t *testing.T) {
	generator := helpers.NewJSONGenerator()

	for _, tc := range generator.GenerateMalformedPostsResponses() {
		t.Run(tc.Name, func(t *testing.T) {
			client, err := test_helpers.NewTestClient(context.Background(), nil, func(s *test_helpers.MockServer) {
				s.QueuePostsResponse(1, &test_helpers.MockResponse{Status: http.StatusOK, Body: tc.Body})
			})
			if err != nil {
				t.Fatalf("NewTestClient: %v", err)
			}
			defer client.Close()

			_, err = client.GetPostsStats(context.Background())
			if aerr := test_utils.AssertDataGetError(err, pkgerrs.StageGetPosts, tc.Reason); aerr != nil {
				t.Error(aerr)
			}
		})
	}
}

// TestMalformedTokenResponses does the same for the register endpoint.
func TestMalformedTokenResponses(t *testing.T) {
	generator := helpers.NewJSONGenerator()

	for _, tc := range generator.GenerateMalformedTokenResponses() {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := test_helpers.NewTestClient(context.Background(), nil, func(s *test_helpers.MockServer) {
				s.QueueRegisterResponse(&test_helpers.MockResponse{Status: http.StatusOK, Body: tc.Body})
			})
			if aerr := test_utils.AssertDataGetError(err, pkgerrs.StageGetToken, tc.Reason); aerr != nil {
				t.Error(aerr)
			}
		})
	}
}

// TestParserNeverPanics runs every malformed body straight through the parser.
func TestParserNeverPanics(t *testing.T) {
	parser := internal.NewParser()
	generator := helpers.NewJSONGenerator()

	bodies := []string{generator.GenerateJSONBomb(20000)}
	for _, tc := range generator.GenerateMalformedPostsResponses() {
		bodies = append(bodies, tc.Body)
	}
	for _, tc := range generator.GenerateMalformedTokenResponses() {
		bodies = append(bodies, tc.Body)
	}

	for i, body := range bodies {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("body %d: parser panicked: %v", i, r)
				}
			}()
			_, _ = parser.ParsePosts([]byte(body))
			_, _ = parser.ParseToken([]byte(body))
			_ = parser.IsTokenRejection(http.StatusInternalServerError, []byte(body))
		}()
	}
}

// TestHostilePostContent checks aggregation over awkward but valid posts.
func TestHostilePostContent(t *testing.T) {
	generator := helpers.NewJSONGenerator()
	posts := generator.GenerateHostilePosts()

	client, err := test_helpers.NewTestClient(context.Background(), nil, func(s *test_helpers.MockServer) {
		s.QueuePostsResponse(1, &test_helpers.MockResponse{Status: http.StatusOK, Body: generator.GeneratePostsBody(1, posts), MaxCalls: 1})
	})
	if err != nil {
		t.Fatalf("NewTestClient: %v", err)
	}
	defer client.Close()

	stats, err := client.GetPostsStats(context.Background())
	if err != nil {
		t.Fatalf("GetPostsStats: %v", err)
	}
	if err := test_utils.AssertStatsConsistent(stats); err != nil {
		t.Fatal(err)
	}

	if stats.TotalPosts != len(posts) {
		t.Errorf("expected %d posts, got %d", len(posts), stats.TotalPosts)
	}
	// emoji and cjk both fall on 2020-12-31 in UTC
	if got := stats.AvgPostLengthPerMonth["2020-12"]; got != 5.5 {
		t.Errorf("expected average length 5.5 in 2020-12, got %f", got)
	}
	if got := stats.PostsPerWeek["2020-W53"]; got != 2 {
		t.Errorf("expected 2 posts in 2020-W53, got %d", got)
	}
	if got := stats.LongestPostPerMonth["2021-01"]; got.ID != "huge" || got.Length != 1<<20 {
		t.Errorf("expected huge post to be longest in 2021-01, got %+v", got)
	}
	weekly := 0
	for _, n := range stats.PostsPerWeek {
		weekly += n
	}
	if weekly != len(posts)-2 {
		t.Errorf("expected undated posts to be left out of weekly counts, got %d", weekly)
	}
}

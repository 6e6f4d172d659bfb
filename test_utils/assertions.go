package test_utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/types"
)

var (
	monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	weekKeyPattern  = regexp.MustCompile(`^\d{4}-W\d{2}$`)
)

// AssertDataGetError checks that err is a *errors.DataGetError for stage
// whose reason starts with reasonPrefix.
func AssertDataGetError(err error, stage, reasonPrefix string) error {
	if err == nil {
		return fmt.Errorf("expected DataGetError, got nil")
	}
	var dataErr *pkgerrs.DataGetError
	if !errors.As(err, &dataErr) {
		return fmt.Errorf("expected DataGetError, got %T: %v", err, err)
	}
	if dataErr.Stage != stage {
		return fmt.Errorf("expected stage %q, got %q", stage, dataErr.Stage)
	}
	if !strings.HasPrefix(dataErr.Reason, reasonPrefix) {
		return fmt.Errorf("expected reason starting with %q, got %q", reasonPrefix, dataErr.Reason)
	}
	want := fmt.Sprintf("Error during stage: %s. %s", dataErr.Stage, dataErr.Reason)
	if !strings.HasSuffix(err.Error(), want) {
		return fmt.Errorf("expected message ending in %q, got %q", want, err.Error())
	}
	return nil
}

// AssertValidPost validates that a post has an id and a parseable creation time
func AssertValidPost(post types.Post) error {
	if post.ID == "" {
		return fmt.Errorf("post id is empty")
	}
	if _, err := post.Created(); err != nil {
		return fmt.Errorf("post %s has invalid created_time %q: %v", post.ID, post.CreatedTime, err)
	}
	return nil
}

// AssertStatsConsistent checks the invariants every Stats value holds
// regardless of input: key formats, matching month sets, positive averages
// and a weekly total no larger than TotalPosts.
func AssertStatsConsistent(stats types.Stats) error {
	if stats.AvgPostLengthPerMonth == nil || stats.LongestPostPerMonth == nil ||
		stats.PostsPerWeek == nil || stats.AvgPostsPerUserPerMonth == nil {
		return fmt.Errorf("stats maps must not be nil")
	}

	if len(stats.AvgPostLengthPerMonth) != len(stats.LongestPostPerMonth) ||
		len(stats.AvgPostLengthPerMonth) != len(stats.AvgPostsPerUserPerMonth) {
		return fmt.Errorf("per-month maps disagree on months")
	}

	for month, avg := range stats.AvgPostLengthPerMonth {
		if !monthKeyPattern.MatchString(month) {
			return fmt.Errorf("invalid month key %q", month)
		}
		if avg < 0 {
			return fmt.Errorf("negative average length %f for %s", avg, month)
		}
		longest, ok := stats.LongestPostPerMonth[month]
		if !ok {
			return fmt.Errorf("no longest post for %s", month)
		}
		if float64(longest.Length) < avg {
			return fmt.Errorf("longest post in %s (%d) shorter than average %f", month, longest.Length, avg)
		}
		if stats.AvgPostsPerUserPerMonth[month] < 1 {
			return fmt.Errorf("average posts per user in %s below 1", month)
		}
	}

	weekly := 0
	for week, n := range stats.PostsPerWeek {
		if !weekKeyPattern.MatchString(week) {
			return fmt.Errorf("invalid week key %q", week)
		}
		weekly += n
	}
	if weekly > stats.TotalPosts {
		return fmt.Errorf("weekly total %d exceeds total posts %d", weekly, stats.TotalPosts)
	}
	return nil
}

// Package stats reduces fetched posts into summary statistics.
package stats

import (
	"fmt"
	"unicode/utf8"

	"github.com/jamesprial/go-smstats/pkg/types"
)

const monthLayout = "2006-01"

type monthAccumulator struct {
	posts       int
	totalLength int
	longest     types.LongestPost
	authors     map[string]struct{}
}

// Aggregate computes Stats over posts. The result does not depend on the
// order of posts. Posts whose created_time cannot be parsed are counted in
// TotalPosts but left out of every per-month and per-week figure.
func Aggregate(posts []types.Post) types.Stats {
	out := types.NewStats()
	out.TotalPosts = len(posts)

	months := make(map[string]*monthAccumulator)
	for _, p := range posts {
		created, err := p.Created()
		if err != nil {
			continue
		}
		created = created.UTC()

		year, week := created.ISOWeek()
		out.PostsPerWeek[WeekKey(year, week)]++

		key := created.Format(monthLayout)
		acc, ok := months[key]
		if !ok {
			acc = &monthAccumulator{authors: make(map[string]struct{})}
			months[key] = acc
		}

		length := utf8.RuneCountInString(p.Message)
		acc.posts++
		acc.totalLength += length
		acc.authors[p.FromID] = struct{}{}
		if longer(length, p.ID, acc.longest) {
			acc.longest = types.LongestPost{ID: p.ID, FromID: p.FromID, Length: length}
		}
	}

	for key, acc := range months {
		out.AvgPostLengthPerMonth[key] = float64(acc.totalLength) / float64(acc.posts)
		out.LongestPostPerMonth[key] = acc.longest
		out.AvgPostsPerUserPerMonth[key] = float64(acc.posts) / float64(len(acc.authors))
	}

	return out
}

// WeekKey formats an ISO year and week as "YYYY-Www".
func WeekKey(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// longer breaks length ties on the smaller ID so the winner is order independent.
func longer(length int, id string, current types.LongestPost) bool {
	if current.ID == "" {
		return true
	}
	if length != current.Length {
		return length > current.Length
	}
	return id < current.ID
}

// Package types holds the data exchanged with the Supermetrics posts API
// and the aggregated statistics computed from it.
package types

import (
	"time"
)

// Token is a session token issued by the register endpoint.
// Its validity is only known once a request using it has been answered.
type Token struct {
	Value    string
	IssuedAt time.Time
}

// IsZero reports whether no token has been issued.
func (t Token) IsZero() bool {
	return t.Value == ""
}

// Post is a single social-media post as returned under data.posts.
type Post struct {
	ID          string `json:"id"`
	FromName    string `json:"from_name"`
	FromID      string `json:"from_id"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	CreatedTime string `json:"created_time"`
}

// Created parses CreatedTime, which the API sends as RFC 3339.
func (p Post) Created() (time.Time, error) {
	return time.Parse(time.RFC3339, p.CreatedTime)
}

// Page is the result of fetching one page of posts.
type Page struct {
	Number int
	Posts  []Post
	// HasMore is false once the API answers with an empty posts list.
	HasMore bool
}

// LongestPost identifies the longest post of a month.
type LongestPost struct {
	ID     string `json:"id"`
	FromID string `json:"from_id"`
	Length int    `json:"length"`
}

// Stats is the summary computed over every fetched post.
// Months are keyed "YYYY-MM" and weeks "YYYY-Www" (ISO 8601), both in UTC.
type Stats struct {
	TotalPosts              int                    `json:"total_posts"`
	AvgPostLengthPerMonth   map[string]float64     `json:"avg_post_length_per_month"`
	LongestPostPerMonth     map[string]LongestPost `json:"longest_post_per_month"`
	PostsPerWeek            map[string]int         `json:"posts_per_week"`
	AvgPostsPerUserPerMonth map[string]float64     `json:"avg_posts_per_user_per_month"`
}

// NewStats returns zero Stats with all maps allocated.
func NewStats() Stats {
	return Stats{
		AvgPostLengthPerMonth:   map[string]float64{},
		LongestPostPerMonth:     map[string]LongestPost{},
		PostsPerWeek:            map[string]int{},
		AvgPostsPerUserPerMonth: map[string]float64{},
	}
}

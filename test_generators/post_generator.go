package test_generators

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jamesprial/go-smstats/pkg/types"
)

// PostGenerator generates deterministic Supermetrics-style posts for testing
type PostGenerator struct {
	rand  *rand.Rand
	start time.Time
	users []string
	words []string
	seq   int
}

// PostOptions constrains generated posts
type PostOptions struct {
	// Users limits the authors to the first Users entries. 0 = all.
	Users int
	// MinWords and MaxWords bound the message length.
	MinWords int
	MaxWords int
	// Span is the window after the start time the posts fall into.
	Span time.Duration
}

// NewPostGenerator creates a new post generator. The same seed always
// produces the same posts.
func NewPostGenerator(seed int64) *PostGenerator {
	return &PostGenerator{
		rand:  rand.New(rand.NewSource(seed)),
		start: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
		users: []string{
			"Lael Vassel", "Leonarda Schult", "Regenia Boice", "Woodrow Lindholm",
			"Yolande Urrutia", "Filomena Cort", "Nydia Croff", "Isidro Schuett",
			"Quyen Pellegrini", "Ethelene Maggi", "Carly Alvarez", "Mandie Nagao",
		},
		words: strings.Fields(`alpha ocean harbor silver meadow lantern velvet
			thunder maple cinder orbit canyon pebble willow ember quartz falcon
			hollow marble prism summit tundra violet zephyr`),
	}
}

// GeneratePost creates a single post
func (pg *PostGenerator) GeneratePost() types.Post {
	return pg.GeneratePostWithOptions(PostOptions{})
}

// GeneratePosts creates count posts
func (pg *PostGenerator) GeneratePosts(count int) []types.Post {
	return pg.GeneratePostsWithOptions(count, PostOptions{})
}

// GeneratePostsWithOptions creates count posts with the given options
func (pg *PostGenerator) GeneratePostsWithOptions(count int, opts PostOptions) []types.Post {
	posts := make([]types.Post, count)
	for i := range posts {
		posts[i] = pg.GeneratePostWithOptions(opts)
	}
	return posts
}

// GeneratePostWithOptions creates a post with the given options
func (pg *PostGenerator) GeneratePostWithOptions(opts PostOptions) types.Post {
	if opts.Users <= 0 || opts.Users > len(pg.users) {
		opts.Users = len(pg.users)
	}
	if opts.MinWords <= 0 {
		opts.MinWords = 3
	}
	if opts.MaxWords < opts.MinWords {
		opts.MaxWords = opts.MinWords + 20
	}
	if opts.Span <= 0 {
		opts.Span = 120 * 24 * time.Hour
	}

	pg.seq++
	user := pg.rand.Intn(opts.Users)
	words := opts.MinWords + pg.rand.Intn(opts.MaxWords-opts.MinWords+1)
	created := pg.start.Add(time.Duration(pg.rand.Int63n(int64(opts.Span)))).Truncate(time.Second)

	return types.Post{
		ID:          fmt.Sprintf("post%06d_%s", pg.seq, pg.randString(8)),
		FromName:    pg.users[user],
		FromID:      fmt.Sprintf("user_%d", user),
		Message:     pg.generateMessage(words),
		Type:        "status",
		CreatedTime: created.Format("2006-01-02T15:04:05-07:00"),
	}
}

// GeneratePages splits count posts per page over pages pages.
func (pg *PostGenerator) GeneratePages(pages, perPage int) [][]types.Post {
	out := make([][]types.Post, pages)
	for i := range out {
		out[i] = pg.GeneratePosts(perPage)
	}
	return out
}

func (pg *PostGenerator) generateMessage(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = pg.words[pg.rand.Intn(len(pg.words))]
	}
	return strings.Join(parts, " ")
}

func (pg *PostGenerator) randString(length int) string {
	const charset = "abcdef0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[pg.rand.Intn(len(charset))]
	}
	return string(b)
}

package smstats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/go-smstats/pkg/types"
)

func TestPostIterator(t *testing.T) {
	fetcher := &mockPageFetcher{
		accepted: map[string]bool{"t1": true},
		pages: map[int][]types.Post{
			1: {post("a", "u1", "x", "2020-01-01T00:00:00+00:00"), post("b", "u1", "x", "2020-01-01T00:00:00+00:00")},
			2: {post("c", "u2", "x", "2020-01-01T00:00:00+00:00")},
		},
	}
	m, err := newTestManager(t, 5, &mockTokenRegistrar{tokens: []string{"t1"}}, fetcher)
	require.NoError(t, err)

	it := m.NewPostIterator()
	var numbers []int
	for it.HasNext() {
		page, err := it.Next(context.Background())
		require.NoError(t, err)
		numbers = append(numbers, page.Number)
	}

	assert.Equal(t, []int{1, 2, 3}, numbers)
	assert.Equal(t, 3, it.Pages())
	assert.NoError(t, it.Err())

	_, err = it.Next(context.Background())
	assert.EqualError(t, err, "no more pages available")
}

func TestPostIterator_ErrorStopsIteration(t *testing.T) {
	fetcher := &mockPageFetcher{accepted: map[string]bool{}}
	m, err := newTestManager(t, 5, &mockTokenRegistrar{tokens: []string{"invalid"}}, fetcher)
	require.NoError(t, err)

	it := m.NewPostIterator()
	require.True(t, it.HasNext())

	_, err = it.Next(context.Background())
	require.Error(t, err)
	assert.False(t, it.HasNext())
	assert.Equal(t, err, it.Err())
	assert.Equal(t, 0, it.Pages())

	// the stored error is returned without another request
	calls := len(fetcher.calls)
	_, again := it.Next(context.Background())
	assert.Equal(t, err, again)
	assert.Len(t, fetcher.calls, calls)
}

func TestPostIterator_RefreshIsPerIterator(t *testing.T) {
	tokens := &mockTokenRegistrar{tokens: []string{"t1", "t2", "t3"}}
	fetcher := &mockPageFetcher{
		accepted: map[string]bool{"t2": true},
		pages: map[int][]types.Post{
			1: {post("a", "u1", "x", "2020-01-01T00:00:00+00:00")},
			2: {post("b", "u1", "x", "2020-01-01T00:00:00+00:00")},
		},
	}
	m, err := newTestManager(t, 2, tokens, fetcher)
	require.NoError(t, err)

	it := m.NewPostIterator()
	_, err = it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", m.Token().Value)

	// a second rejection in the same iteration is terminal even on a later page
	fetcher.accepted = map[string]bool{"t3": true}
	_, err = it.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error during stage: Get Posts. Unexpected response status: 500", err.Error())
	assert.Equal(t, 2, tokens.calls)
}

package smstats

import (
	"context"
	"fmt"

	"github.com/jamesprial/go-smstats/internal"
	pkgerrs "github.com/jamesprial/go-smstats/pkg/errors"
	"github.com/jamesprial/go-smstats/pkg/types"
)

// PostIterator pages through the posts API from page 1 to MaxPage. It
// re-registers the token at most once over its lifetime; a second rejection
// ends the iteration with an error.
type PostIterator struct {
	manager   *PostManager
	maxPage   int
	next      int
	hasMore   bool
	refreshed bool
	pages     int
	err       error
}

// NewPostIterator creates an iterator starting at page 1.
func (m *PostManager) NewPostIterator() *PostIterator {
	return &PostIterator{
		manager: m,
		maxPage: m.config.MaxPage,
		next:    1,
		hasMore: true,
	}
}

// HasNext returns true if another page may be fetched.
func (it *PostIterator) HasNext() bool {
	if it.err != nil {
		return false
	}
	return it.hasMore && it.next <= it.maxPage
}

// Next fetches the next page. An empty page ends the iteration and is
// returned without posts.
func (it *PostIterator) Next(ctx context.Context) (types.Page, error) {
	if it.err != nil {
		return types.Page{}, it.err
	}
	if !it.HasNext() {
		return types.Page{}, fmt.Errorf("no more pages available")
	}

	page := it.next
	for {
		result, err := it.manager.fetchPage(ctx, page)
		if err != nil {
			it.err = err
			return types.Page{}, err
		}

		if result.Outcome == internal.OutcomeTokenRejected {
			if it.refreshed {
				it.err = pkgerrs.UnexpectedStatus(pkgerrs.StageGetPosts, result.StatusCode)
				return types.Page{}, it.err
			}
			if err := it.refresh(ctx, page); err != nil {
				it.err = err
				return types.Page{}, err
			}
			continue
		}

		it.pages++
		it.next++
		it.hasMore = result.Page.HasMore
		return result.Page, nil
	}
}

// Err returns the error that stopped the iteration, if any.
func (it *PostIterator) Err() error {
	return it.err
}

// Pages returns the number of pages fetched successfully.
func (it *PostIterator) Pages() int {
	return it.pages
}

func (it *PostIterator) refresh(ctx context.Context, page int) error {
	it.manager.logger.Info("token rejected, registering a new one", "page", page)
	if err := it.manager.registerToken(ctx); err != nil {
		return err
	}
	it.refreshed = true
	it.manager.metrics.incRefresh()
	return nil
}

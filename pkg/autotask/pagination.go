package autotask

import (
	"context"
	"fmt"
)

// PageFetcher loads query result pages. FirstPage posts the query; NextPage
// follows the absolute nextPageUrl returned by the previous page.
type PageFetcher[T any] interface {
	FirstPage(ctx context.Context, query *Query) (*ListResponse[T], error)
	NextPage(ctx context.Context, nextPageURL string) (*ListResponse[T], error)
}

// PaginationOptions limits how much of a result set is fetched.
type PaginationOptions struct {
	// MaxPages stops after this many pages when positive.
	MaxPages int
}

// PaginationIterator walks query results item by item, fetching pages lazily.
type PaginationIterator[T any] struct {
	ctx     context.Context
	fetcher PageFetcher[T]
	query   *Query

	items   []T
	index   int
	nextURL string
	started bool
	done    bool
	err     error
}

// NewPaginationIterator creates an iterator over the results of query.
func NewPaginationIterator[T any](ctx context.Context, fetcher PageFetcher[T], query *Query) *PaginationIterator[T] {
	return &PaginationIterator[T]{
		ctx:     ctx,
		fetcher: fetcher,
		query:   query,
	}
}

// HasNext reports whether Next will return an item. It fetches the next page
// when the current one is exhausted.
func (it *PaginationIterator[T]) HasNext() bool {
	if it.index < len(it.items) {
		return true
	}

	if it.done || it.err != nil {
		return false
	}

	it.fetch()

	return it.index < len(it.items)
}

// Next returns the next item.
func (it *PaginationIterator[T]) Next() (T, error) {
	var zero T

	if !it.HasNext() {
		if it.err != nil {
			return zero, it.err
		}

		return zero, ErrNoMoreItems
	}

	item := it.items[it.index]
	it.index++

	return item, nil
}

// Err returns the error that stopped iteration, if any.
func (it *PaginationIterator[T]) Err() error {
	return it.err
}

// All drains the iterator.
func (it *PaginationIterator[T]) All() ([]T, error) {
	var all []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return all, err
		}

		all = append(all, item)
	}

	return all, it.err
}

// ForEach calls fn for every remaining item and stops at the first error.
func (it *PaginationIterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return it.err
}

// fetch loads pages until one has items or the result set ends.
func (it *PaginationIterator[T]) fetch() {
	for !it.done {
		var (
			page *ListResponse[T]
			err  error
		)

		if !it.started {
			it.started = true
			page, err = it.fetcher.FirstPage(it.ctx, it.query)
		} else {
			page, err = it.fetcher.NextPage(it.ctx, it.nextURL)
		}

		if err != nil {
			it.err = err
			it.done = true

			return
		}

		it.items = page.Items
		it.index = 0

		if page.PageDetails.HasNext() {
			it.nextURL = *page.PageDetails.NextPageURL
		} else {
			it.done = true
		}

		if len(it.items) > 0 {
			return
		}
	}
}

// FetchAllPages collects every page of a query, bounded by opts.MaxPages.
func FetchAllPages[T any](ctx context.Context, fetcher PageFetcher[T], query *Query, opts *PaginationOptions) ([]T, error) {
	var all []T

	for page := range StreamPages(ctx, fetcher, query, opts) {
		if page.Err != nil {
			return all, page.Err
		}

		all = append(all, page.Items...)
	}

	return all, nil
}

// PageResult is one page delivered by StreamPages.
type PageResult[T any] struct {
	Items       []T
	PageDetails PageDetails
	Err         error
}

// StreamPages fetches pages in a goroutine and delivers them on the returned
// channel, which is closed after the last page or the first error.
func StreamPages[T any](ctx context.Context, fetcher PageFetcher[T], query *Query, opts *PaginationOptions) <-chan PageResult[T] {
	results := make(chan PageResult[T])

	go func() {
		defer close(results)

		send := func(result PageResult[T]) bool {
			select {
			case results <- result:
				return true
			case <-ctx.Done():
				return false
			}
		}

		page, err := fetcher.FirstPage(ctx, query)

		for pages := 1; ; pages++ {
			if err != nil {
				send(PageResult[T]{Err: fmt.Errorf("fetching page %d: %w", pages, err)})

				return
			}

			if !send(PageResult[T]{Items: page.Items, PageDetails: page.PageDetails}) {
				return
			}

			if !page.PageDetails.HasNext() || (opts != nil && opts.MaxPages > 0 && pages >= opts.MaxPages) {
				return
			}

			page, err = fetcher.NextPage(ctx, *page.PageDetails.NextPageURL)
		}
	}()

	return results
}

// Package engine defines the boundary between the dispatch layer and the rule
// engine that executes book-source definitions.
//
// Every engine operation returns a *mo.Future that settles exactly once, with
// either a value or an error.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/mo"

	"github.com/qianmo517/reader/internal/booksource"
)

//go:generate mockgen -destination=mocks/mock_engine.go -package=mocks -source=engine.go Engine

// Engine executes book-source definitions.
type Engine interface {
	// SearchBook searches the source for key and returns one page of hits.
	SearchBook(ctx context.Context, src booksource.Definition, key string, page int) *mo.Future[[]SearchBook]

	// ExploreBook fetches one page of a discovery listing.
	ExploreBook(ctx context.Context, src booksource.Definition, ruleFindURL string, page int) *mo.Future[[]SearchBook]

	// GetBookInfo enriches a book record with detail-page data.
	GetBookInfo(ctx context.Context, src booksource.Definition, book Book) *mo.Future[Book]

	// GetChapterList returns the table of contents of a book, in source order.
	GetChapterList(ctx context.Context, src booksource.Definition, book Book) *mo.Future[[]BookChapter]

	// GetContent returns the text of one chapter. The book is optional.
	GetContent(ctx context.Context, src booksource.Definition, book mo.Option[Book], chapter BookChapter) *mo.Future[string]
}

// Settle wraps a future's callbacks so that only the first call to either of
// them takes effect. Later calls are dropped.
func Settle[T any](resolve func(T), reject func(error)) (func(T), func(error)) {
	var once sync.Once
	return func(value T) {
			once.Do(func() { resolve(value) })
		}, func(err error) {
			once.Do(func() { reject(err) })
		}
}

// Go runs fn on its own goroutine and settles the returned future with its
// outcome. A panic in fn rejects the future.
func Go[T any](fn func() (T, error)) *mo.Future[T] {
	return mo.NewFuture(func(resolve func(T), reject func(error)) {
		resolve, reject = Settle(resolve, reject)
		defer func() {
			if r := recover(); r != nil {
				reject(fmt.Errorf("engine panicked: %v", r))
			}
		}()

		value, err := fn()
		if err != nil {
			reject(err)
			return
		}
		resolve(value)
	})
}

// Resolved returns a future that settles with value.
func Resolved[T any](value T) *mo.Future[T] {
	return Go(func() (T, error) { return value, nil })
}

// Rejected returns a future that settles with err.
func Rejected[T any](err error) *mo.Future[T] {
	return Go(func() (T, error) {
		var zero T
		return zero, err
	})
}

package app

import (
	"context"
	"errors"

	"github.com/mmcdole/tubular/internal/collection"
	"github.com/mmcdole/tubular/internal/domain"
)

// ErrNothingToLoad is returned by Collect when start did not issue a query,
// e.g. for a blank search.
var ErrNothingToLoad = errors.New("nothing to load")

// Collect runs start on c, then fetches more until pages pages are loaded,
// the results run out or ctx is done. Items loaded so far are returned even
// on error.
func Collect[T domain.Item](ctx context.Context, c *collection.Collection[T], start func(), pages int) ([]T, error) {
	finished := make(chan struct{}, 1)
	unsubscribe := c.Subscribe(domain.ObserverFunc(func(ev domain.Event) {
		if ev.Type == domain.EventStatusChanged && ev.Status.IsTerminal() {
			select {
			case finished <- struct{}{}:
			default:
			}
		}
	}))
	defer unsubscribe()

	pages = max(pages, 1)
	for page := 0; page < pages; page++ {
		if page == 0 {
			start()
		} else {
			if !c.CanFetchMore() {
				break
			}
			c.FetchMore()
		}

		// a wake-up may belong to the previous page, so re-check the status
		for c.Status() == domain.StatusLoading {
			select {
			case <-finished:
			case <-ctx.Done():
				c.Cancel()
				return c.Items(), ctx.Err()
			}
		}

		switch c.Status() {
		case domain.StatusFailed:
			return c.Items(), c.Err()
		case domain.StatusCanceled:
			return c.Items(), context.Canceled
		case domain.StatusNull:
			return nil, ErrNothingToLoad
		}
	}
	return c.Items(), nil
}

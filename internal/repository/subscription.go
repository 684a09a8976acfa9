package repository

import (
	"context"
	"sync"
	"time"

	"github.com/peebers/placebook/internal/domain"
)

// Subscription is a live view of the bookmark collection. Updates delivers
// the full collection once on subscribe and again after every write to the
// store. Only the newest undelivered snapshot is kept, so a slow reader skips
// intermediate states but never misses the latest one.
type Subscription struct {
	updates chan []*domain.Bookmark
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates is closed after Cancel or when the subscribe context ends.
func (s *Subscription) Updates() <-chan []*domain.Bookmark {
	return s.updates
}

// Cancel stops the subscription and waits for its goroutine to release the
// store watcher. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the subscription has released its resources.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// AllBookmarks subscribes to the bookmark collection. Subscribing again after
// Cancel starts a fresh stream.
func (r *BookmarkRepository) AllBookmarks(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		updates: make(chan []*domain.Bookmark, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// Watch before the first query so a write racing the subscribe is not lost.
	changes, stop := r.store.Changes().Watch()

	go func() {
		defer close(sub.done)
		defer close(sub.updates)
		defer stop()

		// In-process writes arrive on changes. Writes from other handles on
		// the same database only show up in the store version, so poll it.
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		seen := r.publish(ctx, sub, -1)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				seen = r.publish(ctx, sub, seen)
			case <-ticker.C:
				v, err := r.store.Version(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.logger.Error("failed to poll bookmark changes", "error", err)
					}
					continue
				}
				if v != seen {
					seen = r.publish(ctx, sub, seen)
				}
			}
		}
	}()

	return sub
}

// publish sends the current collection and returns the store version it
// reflects, or prev if nothing could be read.
func (r *BookmarkRepository) publish(ctx context.Context, sub *Subscription, prev int64) int64 {
	version, err := r.store.Version(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("failed to read bookmark version", "error", err)
		}
		version = prev
	}

	list, err := r.store.List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("failed to query bookmarks for subscriber", "error", err)
		}
		return prev
	}

	// Replace a snapshot the reader has not picked up yet.
	select {
	case <-sub.updates:
	default:
	}
	sub.updates <- list
	return version
}

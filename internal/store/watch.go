package store

import (
	"context"

	"github.com/dnguyen/listsync/internal/model"
)

// WatchLists subscribes to the owner-scoped list query. The returned
// channel carries the full current result set (newest first): once
// immediately, then again after every store mutation. Mutations that
// land while a previous emission is still unread coalesce into a single
// re-query. The channel is closed when ctx is cancelled.
func (s *SQLiteStore) WatchLists(ctx context.Context, ownerID string) (<-chan []model.List, error) {
	// Register before the initial query so a mutation landing in
	// between is not missed.
	id, signal := s.subscribe()

	initial, err := s.GetLists(ctx, ownerID)
	if err != nil {
		s.unsubscribe(id)
		return nil, err
	}

	out := make(chan []model.List, 1)
	out <- initial

	go func() {
		defer close(out)
		defer s.unsubscribe(id)

		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				lists, err := s.GetLists(ctx, ownerID)
				if err != nil {
					return
				}
				select {
				case out <- lists:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// WatchItems subscribes to the items of one list, ordered by position
// ascending, with the same emission contract as WatchLists.
func (s *SQLiteStore) WatchItems(ctx context.Context, listID int64) (<-chan []model.Item, error) {
	id, signal := s.subscribe()

	initial, err := s.GetItems(ctx, listID)
	if err != nil {
		s.unsubscribe(id)
		return nil, err
	}

	out := make(chan []model.Item, 1)
	out <- initial

	go func() {
		defer close(out)
		defer s.unsubscribe(id)

		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				items, err := s.GetItems(ctx, listID)
				if err != nil {
					return
				}
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

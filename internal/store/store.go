package store

import (
	"context"
	"errors"

	"github.com/dnguyen/listsync/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
// Callers test for it with errors.Is.
var ErrNotFound = errors.New("not found")

// Store defines the persistence contract for lists and items.
//
// The local store is the sole source of truth for reads. Watch methods
// produce reactive result streams: the full current result set is
// re-emitted after every store mutation, and the stream ends when the
// supplied context is cancelled.
type Store interface {
	// === Lists ===

	CreateList(ctx context.Context, list model.List) (int64, error)
	UpdateList(ctx context.Context, list model.List) error
	SetListRemoteID(ctx context.Context, id int64, remoteID string) error
	DeleteList(ctx context.Context, id int64) error
	GetListByID(ctx context.Context, id int64) (*model.List, error)
	GetLists(ctx context.Context, ownerID string) ([]model.List, error)
	SearchLists(ctx context.Context, query, ownerID string) ([]model.List, error)

	// === Items ===

	CreateItem(ctx context.Context, item model.Item) (int64, error)
	UpdateItem(ctx context.Context, item model.Item) error
	SetItemRemoteID(ctx context.Context, id int64, remoteID string) error
	UpdateItemPosition(ctx context.Context, id int64, position int) error
	DeleteItem(ctx context.Context, id int64) error
	GetItemByID(ctx context.Context, id int64) (*model.Item, error)
	GetItems(ctx context.Context, listID int64) ([]model.Item, error)
	MaxPosition(ctx context.Context, listID int64) (int, error)
	SearchItems(ctx context.Context, query string) ([]model.Item, error)

	// === Reactive subscriptions ===

	WatchLists(ctx context.Context, ownerID string) (<-chan []model.List, error)
	WatchItems(ctx context.Context, listID int64) (<-chan []model.Item, error)
}

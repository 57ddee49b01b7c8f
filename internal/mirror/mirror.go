// Package mirror talks to the remote document tree that shadows the
// local store. The mirror is a write-behind replica: nothing except
// identity hydration ever reads from it.
package mirror

import (
	"context"

	"github.com/dnguyen/listsync/internal/model"
)

// ListPayload is the reduced field projection written to /lists/{key}.
// Local ids and the remote key itself are deliberately excluded.
type ListPayload struct {
	Title     string `json:"title"`
	UserID    string `json:"userId"`
	Category  string `json:"category"`
	CreatedAt int64  `json:"createdAt"`
}

// ItemPayload is the reduced field projection written to /items/{key}.
// ListID holds the remote key of the parent list, not the local id.
type ItemPayload struct {
	ListID      string `json:"listId"`
	Description string `json:"description"`
	IsCompleted bool   `json:"isCompleted"`
	CreatedAt   int64  `json:"createdAt"`
	Position    int    `json:"position"`
}

// ListProjection builds the mirror payload for a list.
func ListProjection(list model.List) ListPayload {
	return ListPayload{
		Title:     list.Title,
		UserID:    list.OwnerID,
		Category:  list.Category,
		CreatedAt: model.TimeToMillis(list.CreatedAt),
	}
}

// ItemProjection builds the mirror payload for an item. listRemoteID is
// the remote key of the item's parent list.
func ItemProjection(item model.Item, listRemoteID string) ItemPayload {
	return ItemPayload{
		ListID:      listRemoteID,
		Description: item.Description,
		IsCompleted: item.IsCompleted,
		CreatedAt:   model.TimeToMillis(item.CreatedAt),
		Position:    item.Position,
	}
}

// Mirror is the contract for the remote replica. Push operations ask
// the service to mint a new key under a collection and write the
// payload there; the client never invents keys. Set overwrites an
// existing node in full, Remove deletes one.
type Mirror interface {
	PushList(ctx context.Context, payload ListPayload) (string, error)
	SetList(ctx context.Context, key string, payload ListPayload) error
	RemoveList(ctx context.Context, key string) error

	PushItem(ctx context.Context, payload ItemPayload) (string, error)
	SetItem(ctx context.Context, key string, payload ItemPayload) error
	RemoveItem(ctx context.Context, key string) error

	// GetUser reads the profile stored under /users/{credentialId}.
	// A missing node yields (nil, nil): absence is an expected state,
	// not a failure.
	GetUser(ctx context.Context, credentialID string) (*model.User, error)
	SetUser(ctx context.Context, credentialID string, user model.User) error
}

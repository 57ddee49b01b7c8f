package model

import "time"

// Item is a single task belonging to exactly one list.
//
// ListID references List.ID locally; deleting the parent list cascades
// to its items. Position orders items within a list: values need not be
// contiguous, but every new item is assigned a position strictly greater
// than any existing position in the same list.
type Item struct {
	ID          int64     `json:"id" db:"id"`
	ListID      int64     `json:"list_id" db:"list_id"`
	Description string    `json:"description" db:"description"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Position    int       `json:"position" db:"position"`
	RemoteID    string    `json:"remote_id" db:"remote_id"`
}

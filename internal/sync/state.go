package sync

import "github.com/dnguyen/listsync/internal/model"

// State is the observable snapshot held by a Coordinator.
//
// Every mutation moves through Idle -> loading -> loaded-or-failed:
// IsLoading flips on when an operation starts and always clears when it
// ends, and Err carries the raw message of the last failure. Partial
// success against the two stores is possible internally but is never
// surfaced as a distinct state.
type State struct {
	Lists       []model.List
	CurrentList *model.List
	Items       []model.Item
	IsLoading   bool
	Err         string
}

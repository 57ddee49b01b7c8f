// Package sync orchestrates mutations across the local store and the
// remote mirror. Every write lands locally first and is then mirrored
// best-effort: a failed remote write leaves the local copy in place
// with no rollback, no retry, and no reconciliation. Reads never touch
// the mirror; they come from reactive local subscriptions.
package sync

import (
	"context"
	gosync "sync"

	"github.com/dnguyen/listsync/internal/mirror"
	"github.com/dnguyen/listsync/internal/model"
	"github.com/dnguyen/listsync/internal/store"
)

// Coordinator performs ordered dual writes over an injected store and
// mirror pair and exposes reactive read state.
//
// The coordinator holds no cross-store lock: callers are expected to
// serialize operations against the same entity (the UI disables
// controls while IsLoading is set), and concurrent writers interleave
// with last-write-wins semantics.
type Coordinator struct {
	store  store.Store
	mirror mirror.Mirror

	mu      gosync.Mutex
	state   State
	updates chan State

	listCancel   context.CancelFunc
	itemCancel   context.CancelFunc
	itemWatchCtx context.Context
	activeListID int64

	// Subscription generations. Emissions from a superseded
	// subscription are discarded so re-subscribing never duplicates
	// or resurrects stale result sets.
	listGen int
	itemGen int
}

// New creates a Coordinator over the given store and mirror handles.
func New(s store.Store, m mirror.Mirror) *Coordinator {
	return &Coordinator{
		store:   s,
		mirror:  m,
		updates: make(chan State, 16),
	}
}

// State returns a snapshot of the current coordinator state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates returns a best-effort stream of state snapshots. Emissions
// are dropped rather than blocking when the consumer falls behind;
// State always carries the latest truth.
func (c *Coordinator) Updates() <-chan State {
	return c.updates
}

// Close cancels any active subscriptions.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listCancel != nil {
		c.listCancel()
		c.listCancel = nil
	}
	if c.itemCancel != nil {
		c.itemCancel()
		c.itemCancel = nil
	}
}

// CreateList creates a list locally, allocates a mirror key for it,
// writes the reduced projection remotely, and patches the local row
// with the obtained key. Title is not validated here; the presentation
// boundary rejects empty titles before calling.
//
// On failure the completed steps are retained: a list that exists
// locally with an empty RemoteID is a possible, user-visible outcome.
func (c *Coordinator) CreateList(ctx context.Context, title, ownerID, category string) (*model.List, error) {
	c.begin()

	if category == "" {
		category = model.CategoryPersonal
	}
	list := model.List{
		Title:     title,
		OwnerID:   ownerID,
		Category:  category,
		CreatedAt: model.Now(),
	}

	id, err := c.store.CreateList(ctx, list)
	if err != nil {
		return nil, c.fail(err)
	}
	list.ID = id

	key, err := c.mirror.PushList(ctx, mirror.ListProjection(list))
	if err != nil {
		return nil, c.fail(err)
	}
	list.RemoteID = key

	if err := c.store.SetListRemoteID(ctx, id, key); err != nil {
		return nil, c.fail(err)
	}

	c.update(func(st *State) { st.IsLoading = false })
	return &list, nil
}

// UpdateList writes the full list locally, then overwrites its mirror
// node with the same projection. Items are untouched on both sides.
func (c *Coordinator) UpdateList(ctx context.Context, list model.List) error {
	c.begin()

	if err := c.store.UpdateList(ctx, list); err != nil {
		return c.fail(err)
	}

	if err := c.mirror.SetList(ctx, list.RemoteID, mirror.ListProjection(list)); err != nil {
		return c.fail(err)
	}

	c.update(func(st *State) { st.IsLoading = false })
	return nil
}

// AddItem creates a task in a list. The list must exist locally or the
// operation aborts before any write. The new item's position is one
// greater than the current maximum in the list, so ordering stays
// monotonic without renumbering existing rows.
//
// When the target list is the one currently loaded, the item
// subscription is restarted to force a coarse refresh.
func (c *Coordinator) AddItem(ctx context.Context, listID int64, description string) (*model.Item, error) {
	c.begin()

	list, err := c.store.GetListByID(ctx, listID)
	if err != nil {
		return nil, c.fail(err)
	}

	maxPos, err := c.store.MaxPosition(ctx, listID)
	if err != nil {
		return nil, c.fail(err)
	}

	item := model.Item{
		ListID:      listID,
		Description: description,
		Position:    maxPos + 1,
		CreatedAt:   model.Now(),
	}

	id, err := c.store.CreateItem(ctx, item)
	if err != nil {
		return nil, c.fail(err)
	}
	item.ID = id

	key, err := c.mirror.PushItem(ctx, mirror.ItemProjection(item, list.RemoteID))
	if err != nil {
		return nil, c.fail(err)
	}
	item.RemoteID = key

	if err := c.store.SetItemRemoteID(ctx, id, key); err != nil {
		return nil, c.fail(err)
	}

	c.refreshActiveItems(listID)

	c.update(func(st *State) { st.IsLoading = false })
	return &item, nil
}

// UpdateItem writes the full item locally, then overwrites its mirror
// node with the same projection. Last writer wins; there is no version
// check on either side.
func (c *Coordinator) UpdateItem(ctx context.Context, item model.Item) error {
	c.begin()

	if err := c.store.UpdateItem(ctx, item); err != nil {
		return c.fail(err)
	}

	list, err := c.store.GetListByID(ctx, item.ListID)
	if err != nil {
		return c.fail(err)
	}

	if err := c.mirror.SetItem(ctx, item.RemoteID, mirror.ItemProjection(item, list.RemoteID)); err != nil {
		return c.fail(err)
	}

	c.update(func(st *State) { st.IsLoading = false })
	return nil
}

// ToggleItem flips an item's completion flag via UpdateItem. The
// current row is re-read first so a stale caller snapshot cannot
// clobber the flag: toggling twice always restores the original value,
// with two full writes.
func (c *Coordinator) ToggleItem(ctx context.Context, item model.Item) error {
	current, err := c.store.GetItemByID(ctx, item.ID)
	if err != nil {
		return c.fail(err)
	}

	current.IsCompleted = !current.IsCompleted
	return c.UpdateItem(ctx, *current)
}

// DeleteItem removes an item locally, then removes its mirror node.
// If the remote removal fails after the local delete succeeded, the
// mirror copy is orphaned with no reconciliation path.
func (c *Coordinator) DeleteItem(ctx context.Context, item model.Item) error {
	c.begin()

	if err := c.store.DeleteItem(ctx, item.ID); err != nil {
		return c.fail(err)
	}

	// A record that was never mirrored has no remote node to remove.
	if item.RemoteID != "" {
		if err := c.mirror.RemoveItem(ctx, item.RemoteID); err != nil {
			return c.fail(err)
		}
	}

	c.update(func(st *State) { st.IsLoading = false })
	return nil
}

// DeleteList removes a list locally, cascading to all of its items,
// then removes the list's own mirror node. Item mirror nodes are not
// cascaded remotely.
func (c *Coordinator) DeleteList(ctx context.Context, list model.List) error {
	c.begin()

	if err := c.store.DeleteList(ctx, list.ID); err != nil {
		return c.fail(err)
	}

	if list.RemoteID != "" {
		if err := c.mirror.RemoveList(ctx, list.RemoteID); err != nil {
			return c.fail(err)
		}
	}

	c.update(func(st *State) { st.IsLoading = false })
	return nil
}

// LoadLists subscribes to the owner's lists, newest first. Each store
// mutation re-emits the full result set into State.Lists. A previous
// list subscription is cancelled first so emissions never duplicate.
// The subscription lives until ctx is cancelled.
func (c *Coordinator) LoadLists(ctx context.Context, ownerID string) error {
	c.begin()

	wctx, gen := c.restartListWatch(ctx)
	ch, err := c.store.WatchLists(wctx, ownerID)
	if err != nil {
		return c.fail(err)
	}

	go func() {
		for lists := range ch {
			ok := c.updateIf(
				func() bool { return c.listGen == gen },
				func(st *State) {
					st.Lists = lists
					st.IsLoading = false
				},
			)
			if !ok {
				return
			}
		}
	}()

	return nil
}

// LoadItems fetches the parent list synchronously into
// State.CurrentList, then subscribes to the list's items ordered by
// position, cancelling any previous item subscription.
func (c *Coordinator) LoadItems(ctx context.Context, listID int64) error {
	list, err := c.store.GetListByID(ctx, listID)
	if err != nil {
		return c.fail(err)
	}
	c.update(func(st *State) { st.CurrentList = list })

	return c.watchItems(ctx, listID)
}

// SearchLists runs a one-shot title search scoped to the owner and
// replaces State.Lists with the matches.
func (c *Coordinator) SearchLists(ctx context.Context, query, ownerID string) ([]model.List, error) {
	lists, err := c.store.SearchLists(ctx, query, ownerID)
	if err != nil {
		return nil, c.fail(err)
	}

	c.update(func(st *State) { st.Lists = lists })
	return lists, nil
}

// watchItems restarts the item subscription for listID using ctx as
// its lifetime.
func (c *Coordinator) watchItems(ctx context.Context, listID int64) error {
	wctx, gen := c.restartItemWatch(ctx, listID)
	ch, err := c.store.WatchItems(wctx, listID)
	if err != nil {
		return c.fail(err)
	}

	go func() {
		for items := range ch {
			ok := c.updateIf(
				func() bool { return c.itemGen == gen },
				func(st *State) { st.Items = items },
			)
			if !ok {
				return
			}
		}
	}()

	return nil
}

// refreshActiveItems restarts the item subscription when listID is the
// currently loaded list. Deliberately coarse: re-subscribing re-queries
// the whole list instead of patching the new row in.
func (c *Coordinator) refreshActiveItems(listID int64) {
	c.mu.Lock()
	active := c.activeListID
	wctx := c.itemWatchCtx
	c.mu.Unlock()

	if active != listID || wctx == nil {
		return
	}
	_ = c.watchItems(wctx, listID)
}

// restartListWatch cancels the previous list subscription and derives
// a new watch context from ctx.
func (c *Coordinator) restartListWatch(ctx context.Context) (context.Context, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listCancel != nil {
		c.listCancel()
	}
	wctx, cancel := context.WithCancel(ctx)
	c.listCancel = cancel
	c.listGen++
	return wctx, c.listGen
}

// restartItemWatch cancels the previous item subscription and records
// the new active list and watch lifetime.
func (c *Coordinator) restartItemWatch(ctx context.Context, listID int64) (context.Context, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.itemCancel != nil {
		c.itemCancel()
	}
	wctx, cancel := context.WithCancel(ctx)
	c.itemCancel = cancel
	c.itemWatchCtx = ctx
	c.activeListID = listID
	c.itemGen++
	return wctx, c.itemGen
}

// begin marks the start of an operation: loading on, error cleared.
func (c *Coordinator) begin() {
	c.update(func(st *State) {
		st.IsLoading = true
		st.Err = ""
	})
}

// fail records err in the state, clears the loading flag, and returns
// err unchanged so callers keep the plain Go error surface.
func (c *Coordinator) fail(err error) error {
	c.update(func(st *State) {
		st.IsLoading = false
		st.Err = err.Error()
	})
	return err
}

// update applies fn to the state under the lock and publishes the new
// snapshot without blocking.
func (c *Coordinator) update(fn func(*State)) {
	c.updateIf(nil, fn)
}

// updateIf applies fn only when cond holds under the state lock; cond
// may read coordinator fields. It reports whether fn was applied.
func (c *Coordinator) updateIf(cond func() bool, fn func(*State)) bool {
	c.mu.Lock()
	if cond != nil && !cond() {
		c.mu.Unlock()
		return false
	}
	fn(&c.state)
	snapshot := c.state
	c.mu.Unlock()

	select {
	case c.updates <- snapshot:
	default:
	}
	return true
}

package sync_test

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dnguyen/listsync/internal/model"
	"github.com/dnguyen/listsync/internal/store"
	appsync "github.com/dnguyen/listsync/internal/sync"
	"github.com/dnguyen/listsync/tests/testutil"
)

func newCoordinator(t *testing.T) (*appsync.Coordinator, *store.SQLiteStore, *testutil.FakeMirror) {
	t.Helper()

	s := testutil.NewTestStore(t)
	fm := testutil.NewFakeMirror()
	c := appsync.New(s, fm)
	t.Cleanup(c.Close)
	return c, s, fm
}

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestCreateListMirrorsAndPatchesRemoteID(t *testing.T) {
	c, s, fm := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Groceries", "u1", model.CategoryShopping)
	require.NoError(t, err)
	require.NotEmpty(t, list.RemoteID)

	// The local row carries the mirror key.
	got, err := s.GetListByID(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, list.RemoteID, got.RemoteID)

	// The mirror holds the reduced projection: no local id, no key.
	payload, ok := fm.List(list.RemoteID)
	require.True(t, ok)
	require.Equal(t, "Groceries", payload.Title)
	require.Equal(t, "u1", payload.UserID)
	require.Equal(t, model.CategoryShopping, payload.Category)
	require.Equal(t, model.TimeToMillis(list.CreatedAt), payload.CreatedAt)

	st := c.State()
	require.False(t, st.IsLoading)
	require.Empty(t, st.Err)
}

func TestLoadListsSeesCreatedListWithRemoteID(t *testing.T) {
	c, _, _ := newCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.LoadLists(ctx, "u1"))

	list, err := c.CreateList(ctx, "Trip", "u1", "")
	require.NoError(t, err)

	waitFor(t, func() bool {
		for _, l := range c.State().Lists {
			if l.ID == list.ID && l.RemoteID != "" {
				return true
			}
		}
		return false
	})
}

func TestCreateListRemoteFailureKeepsLocalRow(t *testing.T) {
	c, s, fm := newCoordinator(t)
	ctx := context.Background()

	fm.FailWith = errors.New("network down")

	_, err := c.CreateList(ctx, "Offline", "u1", "")
	require.Error(t, err)

	// The local write is retained with an empty remote id; nothing is
	// rolled back.
	lists, err := s.GetLists(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Equal(t, "Offline", lists[0].Title)
	require.Empty(t, lists[0].RemoteID)

	st := c.State()
	require.False(t, st.IsLoading)
	require.Contains(t, st.Err, "network down")
}

func TestGroceriesScenario(t *testing.T) {
	c, _, _ := newCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list, err := c.CreateList(ctx, "Groceries", "u1", model.CategoryShopping)
	require.NoError(t, err)

	item, err := c.AddItem(ctx, list.ID, "Milk")
	require.NoError(t, err)
	require.Equal(t, 1, item.Position)
	require.False(t, item.IsCompleted)

	require.NoError(t, c.LoadItems(ctx, list.ID))
	waitFor(t, func() bool { return len(c.State().Items) == 1 })

	st := c.State()
	require.Equal(t, list.ID, st.CurrentList.ID)
	require.Equal(t, "Milk", st.Items[0].Description)
	require.Equal(t, 1, st.Items[0].Position)
}

func TestAddItemPositionsStrictlyIncrease(t *testing.T) {
	c, _, _ := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Chores", "u1", "")
	require.NoError(t, err)

	seen := make(map[int]bool)
	prev := 0
	for _, desc := range []string{"sweep", "mop", "dust"} {
		item, err := c.AddItem(ctx, list.ID, desc)
		require.NoError(t, err)
		require.Greater(t, item.Position, prev)
		require.False(t, seen[item.Position], "position %d assigned twice", item.Position)
		seen[item.Position] = true
		prev = item.Position
	}
}

func TestAddItemListNotFoundAbortsBeforeWrites(t *testing.T) {
	c, s, fm := newCoordinator(t)
	ctx := context.Background()

	_, err := c.AddItem(ctx, 999, "orphan")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Aborted before any write: nothing local, nothing remote.
	items, err := s.SearchItems(ctx, "orphan")
	require.NoError(t, err)
	require.Empty(t, items)
	require.Zero(t, fm.ItemCount())

	st := c.State()
	require.False(t, st.IsLoading)
	require.NotEmpty(t, st.Err)
}

func TestAddItemMirrorsRemoteParentKey(t *testing.T) {
	c, _, fm := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Groceries", "u1", "")
	require.NoError(t, err)

	item, err := c.AddItem(ctx, list.ID, "Milk")
	require.NoError(t, err)
	require.NotEmpty(t, item.RemoteID)

	payload, ok := fm.Item(item.RemoteID)
	require.True(t, ok)
	require.Equal(t, list.RemoteID, payload.ListID)
	require.Equal(t, "Milk", payload.Description)
	require.Equal(t, 1, payload.Position)
}

func TestToggleTwiceRestoresValueWithTwoWrites(t *testing.T) {
	c, s, fm := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Groceries", "u1", "")
	require.NoError(t, err)
	item, err := c.AddItem(ctx, list.ID, "Milk")
	require.NoError(t, err)

	require.NoError(t, c.ToggleItem(ctx, *item))
	require.NoError(t, c.ToggleItem(ctx, *item))

	items, err := s.GetItems(ctx, list.ID)
	require.NoError(t, err)
	require.False(t, items[0].IsCompleted, "double toggle must restore the original value")
	require.Equal(t, 2, fm.SetItemCalls(), "each toggle is a full write, not a no-op")
}

func TestToggleWithStaleSnapshotFlipsPersistedState(t *testing.T) {
	c, s, _ := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Groceries", "u1", "")
	require.NoError(t, err)
	item, err := c.AddItem(ctx, list.ID, "Milk")
	require.NoError(t, err)

	// The caller holds a snapshot from before another writer edited and
	// completed the item.
	stale := *item
	edited := *item
	edited.Description = "Oat milk"
	edited.IsCompleted = true
	require.NoError(t, c.UpdateItem(ctx, edited))

	require.NoError(t, c.ToggleItem(ctx, stale))

	// The toggle flips the persisted flag and carries the persisted
	// fields; the stale snapshot clobbers nothing.
	items, err := s.GetItems(ctx, list.ID)
	require.NoError(t, err)
	require.False(t, items[0].IsCompleted)
	require.Equal(t, "Oat milk", items[0].Description)
}

func TestUpdateListWritesBothSides(t *testing.T) {
	c, s, fm := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Trip", "u1", "")
	require.NoError(t, err)

	list.Title = "Road trip"
	list.Category = model.CategoryOther
	require.NoError(t, c.UpdateList(ctx, *list))

	got, err := s.GetListByID(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, "Road trip", got.Title)
	require.Equal(t, model.CategoryOther, got.Category)

	payload, ok := fm.List(list.RemoteID)
	require.True(t, ok)
	require.Equal(t, "Road trip", payload.Title)
	require.Equal(t, model.CategoryOther, payload.Category)
}

func TestDeleteItemRemovesMirrorNode(t *testing.T) {
	c, s, fm := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Groceries", "u1", "")
	require.NoError(t, err)
	item, err := c.AddItem(ctx, list.ID, "Milk")
	require.NoError(t, err)

	require.NoError(t, c.DeleteItem(ctx, *item))

	items, err := s.GetItems(ctx, list.ID)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Zero(t, fm.ItemCount())
}

func TestDeleteListCascadesLocallyNotRemotely(t *testing.T) {
	c, s, fm := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Chores", "u1", "")
	require.NoError(t, err)
	_, err = c.AddItem(ctx, list.ID, "sweep")
	require.NoError(t, err)
	_, err = c.AddItem(ctx, list.ID, "mop")
	require.NoError(t, err)

	require.NoError(t, c.DeleteList(ctx, *list))

	// Local cascade removes every item row.
	items, err := s.GetItems(ctx, list.ID)
	require.NoError(t, err)
	require.Empty(t, items)

	// Only the list's own mirror node is removed; item nodes are
	// orphaned, not cascaded.
	require.Zero(t, fm.ListCount())
	require.Equal(t, 2, fm.ItemCount())
}

func TestConcurrentUpdatesLastWriteWins(t *testing.T) {
	c, s, _ := newCoordinator(t)
	ctx := context.Background()

	list, err := c.CreateList(ctx, "Groceries", "u1", "")
	require.NoError(t, err)
	item, err := c.AddItem(ctx, list.ID, "Milk")
	require.NoError(t, err)

	a, b := *item, *item
	a.Description = "Whole milk"
	b.Description = "Oat milk"

	var wg gosync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.UpdateItem(ctx, a) }()
	go func() { defer wg.Done(); _ = c.UpdateItem(ctx, b) }()
	wg.Wait()

	items, err := s.GetItems(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	// No merge and no failure: the row holds whichever write landed
	// last in the store.
	require.Contains(t, []string{"Whole milk", "Oat milk"}, items[0].Description)
}

func TestAddItemRefreshesActiveListItems(t *testing.T) {
	c, _, _ := newCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list, err := c.CreateList(ctx, "Groceries", "u1", "")
	require.NoError(t, err)
	require.NoError(t, c.LoadItems(ctx, list.ID))

	_, err = c.AddItem(ctx, list.ID, "Milk")
	require.NoError(t, err)
	_, err = c.AddItem(ctx, list.ID, "Bread")
	require.NoError(t, err)

	waitFor(t, func() bool { return len(c.State().Items) == 2 })
	st := c.State()
	require.Equal(t, "Milk", st.Items[0].Description)
	require.Equal(t, "Bread", st.Items[1].Description)
}

func TestSearchListsReplacesStateLists(t *testing.T) {
	c, _, _ := newCoordinator(t)
	ctx := context.Background()

	_, err := c.CreateList(ctx, "Weekly groceries", "u1", "")
	require.NoError(t, err)
	_, err = c.CreateList(ctx, "Reading", "u1", "")
	require.NoError(t, err)

	lists, err := c.SearchLists(ctx, "grocer", "u1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Equal(t, "Weekly groceries", lists[0].Title)
	require.Equal(t, lists, c.State().Lists)
}

func TestLoadItemsUnknownList(t *testing.T) {
	c, _, _ := newCoordinator(t)

	err := c.LoadItems(context.Background(), 404)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NotEmpty(t, c.State().Err)
}

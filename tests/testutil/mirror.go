package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dnguyen/listsync/internal/mirror"
	"github.com/dnguyen/listsync/internal/model"
)

// FakeMirror is an in-memory mirror.Mirror for tests. Keys are minted
// with a monotonic sequence prefix so they sort in creation order, like
// the real service's time-ordered keys.
type FakeMirror struct {
	mu  sync.Mutex
	seq int

	// FailWith, when non-nil, makes every mirror operation fail.
	FailWith error

	lists map[string]mirror.ListPayload
	items map[string]mirror.ItemPayload
	users map[string]model.User

	setItemCalls int
}

// NewFakeMirror creates an empty fake mirror.
func NewFakeMirror() *FakeMirror {
	return &FakeMirror{
		lists: make(map[string]mirror.ListPayload),
		items: make(map[string]mirror.ItemPayload),
		users: make(map[string]model.User),
	}
}

var _ mirror.Mirror = (*FakeMirror)(nil)

// PushList mints a key and stores the payload under it.
func (m *FakeMirror) PushList(_ context.Context, payload mirror.ListPayload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return "", m.FailWith
	}
	key := m.nextKey()
	m.lists[key] = payload
	return key, nil
}

// SetList overwrites a list node.
func (m *FakeMirror) SetList(_ context.Context, key string, payload mirror.ListPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	m.lists[key] = payload
	return nil
}

// RemoveList deletes a list node.
func (m *FakeMirror) RemoveList(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	delete(m.lists, key)
	return nil
}

// PushItem mints a key and stores the payload under it.
func (m *FakeMirror) PushItem(_ context.Context, payload mirror.ItemPayload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return "", m.FailWith
	}
	key := m.nextKey()
	m.items[key] = payload
	return key, nil
}

// SetItem overwrites an item node.
func (m *FakeMirror) SetItem(_ context.Context, key string, payload mirror.ItemPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	m.items[key] = payload
	m.setItemCalls++
	return nil
}

// RemoveItem deletes an item node.
func (m *FakeMirror) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	delete(m.items, key)
	return nil
}

// GetUser reads a profile node; absent nodes yield (nil, nil).
func (m *FakeMirror) GetUser(_ context.Context, credentialID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u, ok := m.users[credentialID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// SetUser overwrites a profile node.
func (m *FakeMirror) SetUser(_ context.Context, credentialID string, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	m.users[credentialID] = user
	return nil
}

// List returns the stored list payload for key, if present.
func (m *FakeMirror) List(key string) (mirror.ListPayload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.lists[key]
	return p, ok
}

// Item returns the stored item payload for key, if present.
func (m *FakeMirror) Item(key string) (mirror.ItemPayload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[key]
	return p, ok
}

// User returns the stored profile for credentialID, if present.
func (m *FakeMirror) User(credentialID string) (model.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[credentialID]
	return u, ok
}

// ListCount returns the number of stored list nodes.
func (m *FakeMirror) ListCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lists)
}

// ItemCount returns the number of stored item nodes.
func (m *FakeMirror) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// SetItemCalls returns how many SetItem writes the mirror has seen.
func (m *FakeMirror) SetItemCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setItemCalls
}

// nextKey mints a sequenced opaque key. Callers must hold mu.
func (m *FakeMirror) nextKey() string {
	m.seq++
	return fmt.Sprintf("-K%04d%s", m.seq, uuid.NewString()[:8])
}

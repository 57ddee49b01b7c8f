package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnguyen/listsync/internal/model"
)

func TestPushListAllocatesServerKey(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody ListPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.URL.Query().Get("auth")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"name":"-Kpush001"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token")
	key, err := c.PushList(context.Background(), ListPayload{
		Title:     "Groceries",
		UserID:    "u1",
		Category:  "Shopping",
		CreatedAt: 1700000000000,
	})
	require.NoError(t, err)
	require.Equal(t, "-Kpush001", key)
	require.Equal(t, "/lists.json", gotPath)
	require.Equal(t, "secret-token", gotAuth)
	require.Equal(t, "Groceries", gotBody.Title)
	require.Equal(t, "u1", gotBody.UserID)
}

func TestPushItemWithoutKeyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.PushItem(context.Background(), ItemPayload{Description: "Milk"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no key")
}

func TestSetItemOverwritesNode(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody ItemPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.SetItem(context.Background(), "-Kitem1", ItemPayload{
		ListID:      "-Klist1",
		Description: "Milk",
		IsCompleted: true,
		Position:    3,
	})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/items/-Kitem1.json", gotPath)
	require.Equal(t, "-Klist1", gotBody.ListID)
	require.True(t, gotBody.IsCompleted)
}

func TestRemoveList(t *testing.T) {
	var gotMethod, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.RemoveList(context.Background(), "-Klist9"))
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/lists/-Klist9.json", gotPath)
}

func TestGetUserAbsentNodeIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/u-missing.json", r.URL.Path)
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	user, err := c.GetUser(context.Background(), "u-missing")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestGetUserDecodesProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"u1","email":"ana@example.com","displayName":"Ana"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	user, err := c.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, &model.User{ID: "u1", Email: "ana@example.com", DisplayName: "Ana"}, user)
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Permission denied"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.SetList(context.Background(), "-K1", ListPayload{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
	require.Contains(t, err.Error(), "Permission denied")
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dnguyen/listsync/internal/model"
)

// CreateList inserts a new list and returns its generated local ID.
// A zero CreatedAt is set to now; an empty category gets the default.
// Title is not validated here: the presentation boundary owns that.
func (s *SQLiteStore) CreateList(ctx context.Context, list model.List) (int64, error) {
	if list.CreatedAt.IsZero() {
		list.CreatedAt = model.Now()
	}
	if list.Category == "" {
		list.Category = model.CategoryPersonal
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (title, owner_id, created_at, category, remote_id)
		VALUES (?, ?, ?, ?, ?)`,
		list.Title, list.OwnerID, model.TimeToMillis(list.CreatedAt),
		list.Category, list.RemoteID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating list: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading list insert id: %w", err)
	}

	s.notifyChanged()
	return id, nil
}

// UpdateList writes all mutable fields of an existing list by ID.
// CreatedAt is immutable after construction and is not touched.
func (s *SQLiteStore) UpdateList(ctx context.Context, list model.List) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE lists SET title = ?, owner_id = ?, category = ?, remote_id = ?
		WHERE id = ?`,
		list.Title, list.OwnerID, list.Category, list.RemoteID, list.ID,
	)
	if err != nil {
		return fmt.Errorf("updating list %d: %w", list.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("list %d: %w", list.ID, ErrNotFound)
	}

	s.notifyChanged()
	return nil
}

// SetListRemoteID patches only the remote mirror key of a list row.
func (s *SQLiteStore) SetListRemoteID(ctx context.Context, id int64, remoteID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE lists SET remote_id = ? WHERE id = ?", remoteID, id,
	)
	if err != nil {
		return fmt.Errorf("setting remote id for list %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("list %d: %w", id, ErrNotFound)
	}

	s.notifyChanged()
	return nil
}

// DeleteList removes a list by ID. The foreign key cascade deletes all
// of its items in the same statement.
func (s *SQLiteStore) DeleteList(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting list %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("list %d: %w", id, ErrNotFound)
	}

	s.notifyChanged()
	return nil
}

// GetListByID retrieves a single list by its local ID.
func (s *SQLiteStore) GetListByID(ctx context.Context, id int64) (*model.List, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM lists WHERE id = ?", id)

	list, err := scanList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("list %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting list %d: %w", id, err)
	}

	return &list, nil
}

// GetLists retrieves all lists for an owner, newest first.
func (s *SQLiteStore) GetLists(ctx context.Context, ownerID string) ([]model.List, error) {
	return s.queryLists(ctx,
		"SELECT * FROM lists WHERE owner_id = ? ORDER BY created_at DESC, id DESC",
		ownerID,
	)
}

// SearchLists retrieves an owner's lists whose title contains query.
func (s *SQLiteStore) SearchLists(ctx context.Context, query, ownerID string) ([]model.List, error) {
	return s.queryLists(ctx,
		`SELECT * FROM lists
		WHERE title LIKE '%' || ? || '%' AND owner_id = ?
		ORDER BY created_at DESC, id DESC`,
		query, ownerID,
	)
}

// queryLists runs a list query and scans all rows.
func (s *SQLiteStore) queryLists(ctx context.Context, query string, args ...interface{}) ([]model.List, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

// scanList scans a list row from either a sqlx.Row or sqlx.Rows.
func scanList(row interface{ Scan(dest ...interface{}) error }) (model.List, error) {
	var (
		list      model.List
		createdAt int64
	)

	err := row.Scan(
		&list.ID, &list.Title, &list.OwnerID, &createdAt,
		&list.Category, &list.RemoteID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.List{}, err
		}
		return model.List{}, fmt.Errorf("scanning list row: %w", err)
	}

	list.CreatedAt = model.MillisToTime(createdAt)
	return list, nil
}

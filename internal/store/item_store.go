package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dnguyen/listsync/internal/model"
)

// CreateItem inserts a new item and returns its generated local ID.
// The list_id foreign key must reference an existing list.
func (s *SQLiteStore) CreateItem(ctx context.Context, item model.Item) (int64, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = model.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (list_id, description, is_completed, created_at, position, remote_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ListID, item.Description, boolToInt(item.IsCompleted),
		model.TimeToMillis(item.CreatedAt), item.Position, item.RemoteID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading item insert id: %w", err)
	}

	s.notifyChanged()
	return id, nil
}

// UpdateItem writes all mutable fields of an existing item by ID.
func (s *SQLiteStore) UpdateItem(ctx context.Context, item model.Item) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET list_id = ?, description = ?, is_completed = ?,
			position = ?, remote_id = ?
		WHERE id = ?`,
		item.ListID, item.Description, boolToInt(item.IsCompleted),
		item.Position, item.RemoteID, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item %d: %w", item.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("item %d: %w", item.ID, ErrNotFound)
	}

	s.notifyChanged()
	return nil
}

// SetItemRemoteID patches only the remote mirror key of an item row.
func (s *SQLiteStore) SetItemRemoteID(ctx context.Context, id int64, remoteID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE items SET remote_id = ? WHERE id = ?", remoteID, id,
	)
	if err != nil {
		return fmt.Errorf("setting remote id for item %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	s.notifyChanged()
	return nil
}

// UpdateItemPosition moves an item to a new position within its list.
func (s *SQLiteStore) UpdateItemPosition(ctx context.Context, id int64, position int) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE items SET position = ? WHERE id = ?", position, id,
	)
	if err != nil {
		return fmt.Errorf("repositioning item %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	s.notifyChanged()
	return nil
}

// DeleteItem removes an item by ID.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}

	s.notifyChanged()
	return nil
}

// GetItemByID retrieves a single item by its local ID.
func (s *SQLiteStore) GetItemByID(ctx context.Context, id int64) (*model.Item, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM items WHERE id = ?", id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}

	return &item, nil
}

// GetItems retrieves all items of a list ordered by position ascending.
func (s *SQLiteStore) GetItems(ctx context.Context, listID int64) ([]model.Item, error) {
	return s.queryItems(ctx,
		"SELECT * FROM items WHERE list_id = ? ORDER BY position ASC",
		listID,
	)
}

// MaxPosition returns the highest position in a list, or 0 when the
// list has no items.
func (s *SQLiteStore) MaxPosition(ctx context.Context, listID int64) (int, error) {
	var max int
	err := s.db.GetContext(ctx, &max,
		"SELECT COALESCE(MAX(position), 0) FROM items WHERE list_id = ?",
		listID,
	)
	if err != nil {
		return 0, fmt.Errorf("getting max position for list %d: %w", listID, err)
	}
	return max, nil
}

// SearchItems retrieves items whose description contains query.
func (s *SQLiteStore) SearchItems(ctx context.Context, query string) ([]model.Item, error) {
	return s.queryItems(ctx,
		"SELECT * FROM items WHERE description LIKE '%' || ? || '%' ORDER BY position ASC",
		query,
	)
}

// queryItems runs an item query and scans all rows.
func (s *SQLiteStore) queryItems(ctx context.Context, query string, args ...interface{}) ([]model.Item, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// scanItem scans an item row from either a sqlx.Row or sqlx.Rows.
func scanItem(row interface{ Scan(dest ...interface{}) error }) (model.Item, error) {
	var (
		item        model.Item
		isCompleted int
		createdAt   int64
	)

	err := row.Scan(
		&item.ID, &item.ListID, &item.Description, &isCompleted,
		&createdAt, &item.Position, &item.RemoteID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, err
		}
		return model.Item{}, fmt.Errorf("scanning item row: %w", err)
	}

	item.IsCompleted = isCompleted != 0
	item.CreatedAt = model.MillisToTime(createdAt)
	return item, nil
}

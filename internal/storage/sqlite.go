package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"cleanmeta/internal/model"
	"cleanmeta/migrations"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dsn == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CountMeta returns the number of rows stored under key for the item.
func (s *SQLite) CountMeta(ctx context.Context, itemID int64, key string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM item_meta WHERE item_id = ? AND meta_key = ?`,
		itemID, key,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count meta: %w", err)
	}
	return count, nil
}

// MaxMetaID returns the most recently inserted meta_id for the pair.
func (s *SQLite) MaxMetaID(ctx context.Context, itemID int64, key string) (int64, bool, error) {
	var id sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(meta_id) FROM item_meta WHERE item_id = ? AND meta_key = ?`,
		itemID, key,
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("max meta id: %w", err)
	}
	if !id.Valid || id.Int64 == 0 {
		return 0, false, nil
	}
	return id.Int64, true, nil
}

// DeleteMetaBefore removes every row of the pair older than keepID and
// returns how many were deleted.
func (s *SQLite) DeleteMetaBefore(ctx context.Context, itemID int64, key string, keepID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM item_meta WHERE item_id = ? AND meta_key = ? AND meta_id < ?`,
		itemID, key, keepID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete meta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ListItemIDs returns the ids of items with the given type and status.
func (s *SQLite) ListItemIDs(ctx context.Context, itemType, status string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM items WHERE item_type = ? AND status = ? ORDER BY id`,
		itemType, status,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateItem inserts a new item and populates its ID.
func (s *SQLite) CreateItem(ctx context.Context, item *model.Item) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO items (item_type, status) VALUES (?, ?)`,
		item.Type, item.Status,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// AddMeta inserts a metadata row. A zero MetaID lets the store assign one.
func (s *SQLite) AddMeta(ctx context.Context, row *model.MetaRow) error {
	var metaID any
	if row.MetaID > 0 {
		metaID = row.MetaID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO item_meta (meta_id, item_id, meta_key, meta_value) VALUES (?, ?, ?, ?)`,
		metaID, row.ItemID, row.Key, row.Value,
	)
	if err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	row.MetaID = id
	return nil
}

// ListMeta returns the rows stored under key for the item, oldest first.
func (s *SQLite) ListMeta(ctx context.Context, itemID int64, key string) ([]model.MetaRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meta_id, item_id, meta_key, COALESCE(meta_value, '')
		 FROM item_meta WHERE item_id = ? AND meta_key = ? ORDER BY meta_id`,
		itemID, key,
	)
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MetaRow
	for rows.Next() {
		var m model.MetaRow
		if err := rows.Scan(&m.MetaID, &m.ItemID, &m.Key, &m.Value); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetOption returns the value stored under name.
func (s *SQLite) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get option %s: %w", name, err)
	}
	return value, true, nil
}

// SetOption stores value under name, replacing any previous value.
func (s *SQLite) SetOption(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO options (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("set option %s: %w", name, err)
	}
	return nil
}

// Package storage defines the persistence interfaces and their SQLite implementation.
package storage

import (
	"context"

	"cleanmeta/internal/model"
)

// MetaStore reads and deletes item metadata rows.
type MetaStore interface {
	CountMeta(ctx context.Context, itemID int64, key string) (int64, error)
	// MaxMetaID returns the highest meta_id for the pair. ok is false when
	// the store has no row to report.
	MaxMetaID(ctx context.Context, itemID int64, key string) (id int64, ok bool, err error)
	DeleteMetaBefore(ctx context.Context, itemID int64, key string, keepID int64) (int64, error)
	ListItemIDs(ctx context.Context, itemType, status string) ([]int64, error)
}

// OptionStore is a process-wide key/value configuration store.
type OptionStore interface {
	// GetOption returns the stored value; ok is false when name was never set.
	GetOption(ctx context.Context, name string) (value string, ok bool, err error)
	SetOption(ctx context.Context, name, value string) error
}

// Storage is the interface for all persistence operations.
type Storage interface {
	MetaStore
	OptionStore

	CreateItem(ctx context.Context, item *model.Item) error
	AddMeta(ctx context.Context, row *model.MetaRow) error
	ListMeta(ctx context.Context, itemID int64, key string) ([]model.MetaRow, error)

	Close() error
}

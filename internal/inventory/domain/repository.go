package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Item) error
	FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Item, error)

	// FindItem is unscoped: the low-stock handler holds only an item id
	// from an event payload.
	FindItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Item, error)
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*Item, error)

	// DecrementIfSufficient applies a single conditional UPDATE:
	// quantity = quantity - n only where quantity >= n. Returns the number
	// of rows affected; 0 means the item is missing or stock insufficient.
	DecrementIfSufficient(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID, quantity int) (int64, error)

	InsertUsage(ctx context.Context, db *gorm.DB, usage *Usage) error
}

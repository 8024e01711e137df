package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/inventory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Item) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO inventory_items (id, workspace_id, name, quantity, low_stock_threshold, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.WorkspaceID,
		item.Name,
		item.Quantity,
		item.LowStockThreshold,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, quantity, low_stock_threshold, created_at, updated_at
		 FROM inventory_items WHERE workspace_id = ? AND id = ?`,
		workspaceID,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, quantity, low_stock_threshold, created_at, updated_at
		 FROM inventory_items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*domain.Item, error) {
	var items []*domain.Item
	err := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("workspace_id = ?", workspaceID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DecrementIfSufficient(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID, quantity int) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE inventory_items
		 SET quantity = quantity - ?, updated_at = ?
		 WHERE workspace_id = ? AND id = ? AND quantity >= ?`,
		quantity,
		time.Now().UTC(),
		workspaceID,
		id,
		quantity,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, usage *domain.Usage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO inventory_usage (id, item_id, booking_id, quantity, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		usage.ID,
		usage.ItemID,
		usage.BookingID,
		usage.Quantity,
		usage.CreatedAt,
	).Error
}

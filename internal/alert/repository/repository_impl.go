package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/alert/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, alert *domain.Alert) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO alerts (id, workspace_id, type, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID,
		alert.WorkspaceID,
		alert.Type,
		alert.Message,
		alert.IsRead,
		alert.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, unreadOnly bool) ([]*domain.Alert, error) {
	query := db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var alerts []*domain.Alert
	if err := query.Order("created_at desc, id desc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE alerts SET is_read = ? WHERE workspace_id = ? AND id = ?`,
		true,
		workspaceID,
		id,
	)
	return result.RowsAffected, result.Error
}

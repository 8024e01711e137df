package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ws *domain.Workspace) error {
	return db.WithContext(ctx).Create(ws).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := db.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

func (r *repo) UpdateSettings(ctx context.Context, db *gorm.DB, ws *domain.Workspace) error {
	return db.WithContext(ctx).
		Model(&domain.Workspace{}).
		Where("id = ?", ws.ID).
		Updates(map[string]any{
			"settings":   ws.Settings,
			"updated_at": ws.UpdatedAt,
		}).Error
}

func (r *repo) ActivateIfDraft(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE workspaces SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.StatusActive,
		time.Now().UTC(),
		id,
		domain.StatusDraft,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertIntegrationLog(ctx context.Context, db *gorm.DB, log *domain.IntegrationLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO integration_logs (id, workspace_id, channel, status, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.WorkspaceID,
		log.Channel,
		log.Status,
		log.Details,
		log.CreatedAt,
	).Error
}

func (r *repo) ListIntegrationLogs(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*domain.IntegrationLog, error) {
	var logs []*domain.IntegrationLog
	err := db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at desc, id desc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

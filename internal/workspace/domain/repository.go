package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, ws *Workspace) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Workspace, error)
	UpdateSettings(ctx context.Context, db *gorm.DB, ws *Workspace) error

	// ActivateIfDraft flips status to active only from draft. Returns rows
	// affected so a lost race surfaces as 0.
	ActivateIfDraft(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)

	InsertIntegrationLog(ctx context.Context, db *gorm.DB, log *IntegrationLog) error
	ListIntegrationLogs(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*IntegrationLog, error)
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, alert *Alert) error
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, unreadOnly bool) ([]*Alert, error)
	MarkRead(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (int64, error)
}

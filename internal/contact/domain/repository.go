package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *Contact) error
	FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Contact, error)
	FindByEmail(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, email string) (*Contact, error)
	FindByPhone(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, phone string) (*Contact, error)
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, page pagination.Pagination) ([]*Contact, error)
}

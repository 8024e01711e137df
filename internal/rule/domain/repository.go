package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *Rule) error
	FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Rule, error)
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*Rule, error)

	// ListActiveByTemplate feeds the evaluator: active rules only, matched
	// on the submission's template.
	ListActiveByTemplate(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]*Rule, error)

	Update(ctx context.Context, db *gorm.DB, rule *Rule) error
	Delete(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) error
}

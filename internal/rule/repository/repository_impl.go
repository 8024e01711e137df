package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/rule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *domain.Rule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Rule, error) {
	var rule domain.Rule
	err := db.WithContext(ctx).
		Where("workspace_id = ? AND id = ?", workspaceID, id).
		First(&rule).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*domain.Rule, error) {
	var rules []*domain.Rule
	err := db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at asc, id asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) ListActiveByTemplate(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]*domain.Rule, error) {
	var rules []*domain.Rule
	err := db.WithContext(ctx).
		Where("form_template_id = ? AND is_active = ?", templateID, true).
		Order("created_at asc, id asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *domain.Rule) error {
	return db.WithContext(ctx).
		Model(&domain.Rule{}).
		Where("workspace_id = ? AND id = ?", rule.WorkspaceID, rule.ID).
		Updates(map[string]any{
			"name":          rule.Name,
			"action_config": rule.ActionConfig,
			"is_active":     rule.IsActive,
			"updated_at":    rule.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("workspace_id = ? AND id = ?", workspaceID, id).
		Delete(&domain.Rule{}).Error
}

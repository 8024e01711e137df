package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/form/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertTemplate(ctx context.Context, db *gorm.DB, tpl *domain.Template) error {
	return db.WithContext(ctx).Create(tpl).Error
}

func (r *repo) FindTemplateByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Template, error) {
	var tpl domain.Template
	err := db.WithContext(ctx).
		Where("workspace_id = ? AND id = ?", workspaceID, id).
		First(&tpl).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *repo) ListTemplates(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*domain.Template, error) {
	var tpls []*domain.Template
	err := db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at asc, id asc").
		Find(&tpls).Error
	if err != nil {
		return nil, err
	}
	return tpls, nil
}

func (r *repo) InsertSubmission(ctx context.Context, db *gorm.DB, sub *domain.Submission) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repo) FindSubmissionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Submission, error) {
	var sub domain.Submission
	err := db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) ListSubmissions(ctx context.Context, db *gorm.DB, workspaceID, templateID snowflake.ID) ([]*domain.Submission, error) {
	query := db.WithContext(ctx).
		Table("form_submissions s").
		Select("s.*").
		Joins("JOIN form_templates t ON t.id = s.template_id").
		Where("t.workspace_id = ?", workspaceID)
	if templateID != 0 {
		query = query.Where("s.template_id = ?", templateID)
	}

	var subs []*domain.Submission
	if err := query.Order("s.created_at desc, s.id desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repo) ListPendingPastDue(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.OverdueSubmission, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []domain.OverdueSubmission
	err := db.WithContext(ctx).Raw(
		`SELECT s.id AS submission_id,
		        s.template_id AS template_id,
		        t.workspace_id AS workspace_id,
		        t.name AS template_name,
		        s.contact_id AS contact_id,
		        s.due_at AS due_at
		   FROM form_submissions s
		   JOIN form_templates t ON t.id = s.template_id
		  WHERE s.status = ? AND s.due_at IS NOT NULL AND s.due_at <= ?
		  ORDER BY s.due_at ASC, s.id ASC
		  LIMIT ?`,
		domain.SubmissionPending,
		now,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) MarkOverdueIfPending(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE form_submissions SET status = ? WHERE id = ? AND status = ?`,
		domain.SubmissionOverdue,
		id,
		domain.SubmissionPending,
	)
	return result.RowsAffected, result.Error
}

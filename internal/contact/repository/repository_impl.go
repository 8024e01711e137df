package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/contact/domain"
	"github.com/smallbiznis/opsdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO contacts (id, workspace_id, name, email, phone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		contact.ID,
		contact.WorkspaceID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Contact, error) {
	var contact domain.Contact
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, email, phone, created_at
		 FROM contacts WHERE workspace_id = ? AND id = ?`,
		workspaceID,
		id,
	).Scan(&contact).Error
	if err != nil {
		return nil, err
	}
	if contact.ID == 0 {
		return nil, nil
	}
	return &contact, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, email string) (*domain.Contact, error) {
	var contact domain.Contact
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, email, phone, created_at
		 FROM contacts WHERE workspace_id = ? AND email = ?`,
		workspaceID,
		email,
	).Scan(&contact).Error
	if err != nil {
		return nil, err
	}
	if contact.ID == 0 {
		return nil, nil
	}
	return &contact, nil
}

func (r *repo) FindByPhone(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, phone string) (*domain.Contact, error) {
	var contact domain.Contact
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, email, phone, created_at
		 FROM contacts WHERE workspace_id = ? AND phone = ?`,
		workspaceID,
		phone,
	).Scan(&contact).Error
	if err != nil {
		return nil, err
	}
	if contact.ID == 0 {
		return nil, nil
	}
	return &contact, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, page pagination.Pagination) ([]*domain.Contact, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("workspace_id = ?", workspaceID)

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor != nil && cursor.CreatedAt != "" {
			if createdAt, parseErr := time.Parse(time.RFC3339, cursor.CreatedAt); parseErr == nil {
				stmt = stmt.Where("created_at < ?", createdAt)
			}
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}

	var contacts []*domain.Contact
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, workspace_id, email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.WorkspaceID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, email, password_hash, role, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, email, password_hash, role, created_at
		 FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) ListByWorkspace(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID, role domain.Role) ([]*domain.User, error) {
	var users []*domain.User
	stmt := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("workspace_id = ?", workspaceID)
	if role != "" {
		stmt = stmt.Where("role = ?", role)
	}
	if err := stmt.Order("created_at asc, id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT u.id, u.workspace_id, u.email, u.password_hash, u.role, u.created_at
		 FROM users u JOIN api_tokens t ON t.user_id = u.id
		 WHERE t.token = ?`,
		token,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) InsertToken(ctx context.Context, db *gorm.DB, token *domain.APIToken) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO api_tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		token.Token,
		token.UserID,
		token.CreatedAt,
	).Error
}

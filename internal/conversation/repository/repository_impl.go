package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/conversation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, conversation *domain.Conversation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO conversations (id, workspace_id, contact_id, status, last_message_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conversation.ID,
		conversation.WorkspaceID,
		conversation.ContactID,
		conversation.Status,
		conversation.LastMessageAt,
		conversation.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, contact_id, status, last_message_at, created_at
		 FROM conversations WHERE workspace_id = ? AND id = ?`,
		workspaceID,
		id,
	).Scan(&conversation).Error
	if err != nil {
		return nil, err
	}
	if conversation.ID == 0 {
		return nil, nil
	}
	return &conversation, nil
}

func (r *repo) FindByContact(ctx context.Context, db *gorm.DB, contactID snowflake.ID) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, contact_id, status, last_message_at, created_at
		 FROM conversations WHERE contact_id = ? ORDER BY created_at ASC LIMIT 1`,
		contactID,
	).Scan(&conversation).Error
	if err != nil {
		return nil, err
	}
	if conversation.ID == 0 {
		return nil, nil
	}
	return &conversation, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*domain.Conversation, error) {
	var conversations []*domain.Conversation
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("workspace_id = ?", workspaceID).
		Order("last_message_at desc, id desc").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.ConversationStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE conversations SET status = ? WHERE id = ?`,
		status,
		id,
	).Error
}

func (r *repo) InsertMessage(ctx context.Context, db *gorm.DB, message *domain.Message) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`INSERT INTO messages (id, conversation_id, direction, type, content, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			message.ID,
			message.ConversationID,
			message.Direction,
			message.Type,
			message.Content,
			message.CreatedAt,
		).Error
		if err != nil {
			return err
		}
		return tx.Exec(
			`UPDATE conversations SET last_message_at = ? WHERE id = ?`,
			message.CreatedAt,
			message.ConversationID,
		).Error
	})
}

func (r *repo) ListMessages(ctx context.Context, db *gorm.DB, conversationID snowflake.ID) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

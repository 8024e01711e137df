package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, conversation *Conversation) error
	FindByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Conversation, error)
	FindByContact(ctx context.Context, db *gorm.DB, contactID snowflake.ID) (*Conversation, error)
	List(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*Conversation, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ConversationStatus) error

	InsertMessage(ctx context.Context, db *gorm.DB, message *Message) error
	ListMessages(ctx context.Context, db *gorm.DB, conversationID snowflake.ID) ([]*Message, error)
}

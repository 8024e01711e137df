package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ConversationStatus string

const (
	// StatusActive means automation may post into the conversation.
	StatusActive ConversationStatus = "active"
	// StatusPaused is set after a staff reply; automation stands down.
	StatusPaused ConversationStatus = "paused"
)

type Conversation struct {
	ID            snowflake.ID       `gorm:"primaryKey" json:"id"`
	WorkspaceID   snowflake.ID       `gorm:"not null;index" json:"workspace_id"`
	ContactID     snowflake.ID       `gorm:"not null;index" json:"contact_id"`
	Status        ConversationStatus `gorm:"not null" json:"status"`
	LastMessageAt time.Time          `gorm:"not null" json:"last_message_at"`
	CreatedAt     time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

type MessageType string

const (
	TypeEmail  MessageType = "email"
	TypeSMS    MessageType = "sms"
	TypeSystem MessageType = "system"
)

type Message struct {
	ID             snowflake.ID     `gorm:"primaryKey" json:"id"`
	ConversationID snowflake.ID     `gorm:"not null;index" json:"conversation_id"`
	Direction      MessageDirection `gorm:"not null" json:"direction"`
	Type           MessageType      `gorm:"not null" json:"type"`
	Content        string           `gorm:"not null" json:"content"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

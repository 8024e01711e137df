package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Contact struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Name        string       `gorm:"not null" json:"name"`
	Email       string       `gorm:"index" json:"email,omitempty"`
	Phone       string       `gorm:"index" json:"phone,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

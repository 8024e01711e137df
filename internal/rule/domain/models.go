package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActionType string

const (
	ActionSendEmail ActionType = "send_email"
	ActionSendSMS   ActionType = "send_sms"
)

// Rule binds a form template to an outbound action. The evaluator reads
// rules but never mutates them.
type Rule struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	WorkspaceID    snowflake.ID      `gorm:"not null;index" json:"workspace_id"`
	Name           string            `gorm:"not null" json:"name"`
	FormTemplateID snowflake.ID      `gorm:"not null;index" json:"form_template_id"`
	ActionType     ActionType        `gorm:"not null" json:"action_type"`
	ActionConfig   datatypes.JSONMap `gorm:"type:json" json:"action_config"`
	IsActive       bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Rule) TableName() string { return "automation_rules" }

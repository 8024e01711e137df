package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
)

// Workspace is a tenant. Settings holds integration channel config keyed
// by channel name ("email", "sms"); a non-empty recognized key counts as a
// configured channel for the activation gate.
type Workspace struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"not null" json:"name"`
	Slug         string            `gorm:"not null;uniqueIndex" json:"slug"`
	Address      string            `json:"address,omitempty"`
	Timezone     string            `gorm:"not null;default:UTC" json:"timezone"`
	ContactEmail string            `gorm:"not null" json:"contact_email"`
	Status       Status            `gorm:"not null;default:draft" json:"status"`
	Settings     datatypes.JSONMap `gorm:"type:json" json:"settings"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Workspace) TableName() string { return "workspaces" }

// IntegrationLog records a channel test-send attempt.
type IntegrationLog struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Channel     string       `gorm:"not null" json:"channel"`
	Status      string       `gorm:"not null" json:"status"`
	Details     string       `json:"details,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (IntegrationLog) TableName() string { return "integration_logs" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records a sensitive operation: workspace activation, rule
// changes, staff invites, integration updates. Append only.
type AuditLog struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID      `gorm:"not null;index" json:"workspace_id"`
	ActorID     snowflake.ID      `json:"actor_id,omitempty"`
	Action      string            `gorm:"not null" json:"action"`
	EntityType  string            `gorm:"not null" json:"entity_type"`
	EntityID    string            `json:"entity_id,omitempty"`
	Detail      datatypes.JSONMap `gorm:"type:json" json:"detail,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

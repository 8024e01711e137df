package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type AlertType string

const (
	AlertInventoryLow AlertType = "inventory_low"
	AlertFormOverdue  AlertType = "form_overdue"
)

// Alert is an append-only dashboard notification row.
type Alert struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Type        AlertType    `gorm:"not null" json:"type"`
	Message     string       `gorm:"not null" json:"message"`
	IsRead      bool         `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Alert) TableName() string { return "alerts" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Item struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID       snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Name              string       `gorm:"not null" json:"name"`
	Quantity          int          `gorm:"not null" json:"quantity"`
	LowStockThreshold int          `gorm:"not null" json:"low_stock_threshold"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Item) TableName() string { return "inventory_items" }

// Usage is an append-only consumption record, optionally tied to the
// booking that consumed the stock.
type Usage struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	ItemID    snowflake.ID  `gorm:"not null;index" json:"item_id"`
	BookingID *snowflake.ID `gorm:"index" json:"booking_id,omitempty"`
	Quantity  int           `gorm:"not null" json:"quantity"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Usage) TableName() string { return "inventory_usage" }

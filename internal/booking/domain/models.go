package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Offering is a bookable service a workspace sells, e.g. a haircut or a
// consultation slot. Named Offering to avoid colliding with the service
// layer naming convention.
type Offering struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Name        string       `gorm:"not null" json:"name"`
	DurationMin int          `gorm:"not null" json:"duration_min"`
	Location    string       `json:"location,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Availabilities []Availability `gorm:"foreignKey:OfferingID" json:"availabilities,omitempty"`
}

func (Offering) TableName() string { return "offerings" }

// Availability is a weekly recurring window during which an offering can
// be booked. DayOfWeek: 0 = Monday through 6 = Sunday.
type Availability struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OfferingID snowflake.ID `gorm:"not null;index" json:"offering_id"`
	DayOfWeek  int          `gorm:"not null" json:"day_of_week"`
	StartTime  string       `gorm:"not null" json:"start_time"`
	EndTime    string       `gorm:"not null" json:"end_time"`
}

func (Availability) TableName() string { return "availabilities" }

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID  `gorm:"not null;index" json:"workspace_id"`
	OfferingID  snowflake.ID  `gorm:"not null;index" json:"offering_id"`
	ContactID   snowflake.ID  `gorm:"not null;index" json:"contact_id"`
	StartTime   time.Time     `gorm:"not null" json:"start_time"`
	EndTime     time.Time     `gorm:"not null" json:"end_time"`
	Status      BookingStatus `gorm:"not null" json:"status"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

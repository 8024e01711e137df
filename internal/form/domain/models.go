package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCompleted SubmissionStatus = "completed"
	SubmissionOverdue   SubmissionStatus = "overdue"
)

// Template describes the fields a workspace collects from a contact.
// The schema is an opaque JSON document rendered by the public form page.
type Template struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID      `gorm:"not null;index" json:"workspace_id"`
	Name        string            `gorm:"not null" json:"name"`
	Schema      datatypes.JSONMap `gorm:"type:json" json:"schema"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Template) TableName() string { return "form_templates" }

type Submission struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	TemplateID  snowflake.ID      `gorm:"not null;index" json:"template_id"`
	ContactID   snowflake.ID      `gorm:"not null;index" json:"contact_id"`
	Data        datatypes.JSONMap `gorm:"type:json" json:"data"`
	Status      SubmissionStatus  `gorm:"not null;default:pending" json:"status"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	DueAt       *time.Time        `json:"due_at,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Submission) TableName() string { return "form_submissions" }

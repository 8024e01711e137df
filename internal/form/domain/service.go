package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateTemplateRequest struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// SubmitRequest is the public form submission. WorkspaceID and TemplateID
// come from the public URL; the contact fields identify or create the
// submitting contact.
type SubmitRequest struct {
	WorkspaceID  snowflake.ID
	TemplateID   string
	ContactName  string         `json:"contact_name"`
	ContactEmail string         `json:"contact_email"`
	ContactPhone string         `json:"contact_phone"`
	Data         map[string]any `json:"data"`
}

// AssignRequest hands a form to an existing contact to fill in later. The
// submission starts out pending and the overdue sweep flips it once DueAt
// passes without a submission.
type AssignRequest struct {
	TemplateID string     `json:"template_id"`
	ContactID  string     `json:"contact_id"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

type ListSubmissionsRequest struct {
	TemplateID string
}

type Service interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (Template, error)
	ListTemplates(ctx context.Context) ([]Template, error)

	// Submit resolves the submitting contact through contact intake (which
	// deduplicates and emits NEW_CONTACT for new contacts), records the
	// submission as completed, and emits FORM_SUBMITTED.
	Submit(ctx context.Context, req SubmitRequest) (Submission, error)
	Assign(ctx context.Context, req AssignRequest) (Submission, error)
	ListSubmissions(ctx context.Context, req ListSubmissionsRequest) ([]Submission, error)
}

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)

package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/pkg/db/pagination"
)

// IntakeRequest is the public contact form submission. WorkspaceID comes
// from the public URL, not from an authenticated session.
type IntakeRequest struct {
	WorkspaceID snowflake.ID
	Name        string
	Email       string
	Phone       string
	Message     string
}

type IntakeResult struct {
	Contact Contact `json:"contact"`
	Created bool    `json:"created"`
}

type ListContactRequest struct {
	PageToken string
	PageSize  int
}

type ListContactResponse struct {
	pagination.PageInfo
	Contacts []Contact `json:"contacts"`
}

type Service interface {
	// Intake deduplicates by email then phone within the workspace, creates
	// the contact when new (emitting NEW_CONTACT), and appends an inbound
	// message to the contact's conversation when one is provided.
	Intake(ctx context.Context, req IntakeRequest) (IntakeResult, error)
	List(ctx context.Context, req ListContactRequest) (ListContactResponse, error)
}

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidName      = errors.New("invalid_name")
	ErrMissingChannel   = errors.New("missing_contact_channel")
	ErrNotFound         = errors.New("not_found")
)

package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// CreateRequest carries an explicit WorkspaceID because alerts are mostly
// written by event handlers, which run outside a request context.
type CreateRequest struct {
	WorkspaceID snowflake.ID
	Type        AlertType
	Message     string
}

type ListRequest struct {
	UnreadOnly bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Alert, error)
	List(ctx context.Context, req ListRequest) ([]Alert, error)
	MarkRead(ctx context.Context, id string) error
}

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidType      = errors.New("invalid_type")
	ErrInvalidMessage   = errors.New("invalid_message")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)

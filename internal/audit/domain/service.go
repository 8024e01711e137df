package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// RecordRequest carries an explicit WorkspaceID so callers that run outside
// a request context (event handlers, schedulers) can still write entries.
// ActorID is optional; Record also falls back to the authenticated user in
// the context when it is zero.
type RecordRequest struct {
	WorkspaceID snowflake.ID
	ActorID     snowflake.ID
	Action      string
	EntityType  string
	EntityID    string
	Detail      map[string]any
}

type ListRequest struct {
	Action     string
	EntityType string
	Limit      int
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) error
	List(ctx context.Context, req ListRequest) ([]AuditLog, error)
}

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidEntity    = errors.New("invalid_entity")
)

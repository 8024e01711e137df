package domain

import (
	"context"
	"errors"
)

// CreateRequest provisions a workspace together with its owner account.
// It is unauthenticated signup, so it carries everything explicitly.
type CreateRequest struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Timezone      string `json:"timezone"`
	ContactEmail  string `json:"contact_email"`
	OwnerEmail    string `json:"owner_email"`
	OwnerPassword string `json:"owner_password"`
}

// UpdateIntegrationsRequest merges channel config into workspace settings.
// Existing keys not present in Channels are preserved.
type UpdateIntegrationsRequest struct {
	Channels map[string]any `json:"channels"`
}

type TestIntegrationRequest struct {
	Channel string `json:"channel"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Workspace, error)
	Get(ctx context.Context) (Workspace, error)
	UpdateIntegrations(ctx context.Context, req UpdateIntegrationsRequest) (Workspace, error)

	// TestIntegration performs a test send on a configured channel and
	// records the outcome as an IntegrationLog row.
	TestIntegration(ctx context.Context, req TestIntegrationRequest) (IntegrationLog, error)
	ListIntegrationLogs(ctx context.Context) ([]IntegrationLog, error)

	// Activate transitions draft to active. Owner only. The readiness
	// predicates run in a fixed order and the first failure wins:
	// a configured channel, then at least one offering, then at least one
	// offering with an availability window.
	Activate(ctx context.Context) (Workspace, error)
}

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidChannel   = errors.New("invalid_channel")
	ErrChannelNotSet    = errors.New("channel_not_configured")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyActive    = errors.New("workspace_already_active")
	ErrNoChannel        = errors.New("no_channel_configured")
	ErrNoOfferings      = errors.New("no_offerings_defined")
	ErrNoAvailability   = errors.New("no_offering_availability")
)

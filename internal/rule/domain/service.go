package domain

import (
	"context"
	"errors"
)

type CreateRuleRequest struct {
	Name           string         `json:"name"`
	FormTemplateID string         `json:"form_template_id"`
	ActionType     ActionType     `json:"action_type"`
	ActionConfig   map[string]any `json:"action_config"`
	IsActive       *bool          `json:"is_active,omitempty"`
}

type UpdateRuleRequest struct {
	ID           string
	Name         *string        `json:"name,omitempty"`
	ActionConfig map[string]any `json:"action_config,omitempty"`
	IsActive     *bool          `json:"is_active,omitempty"`
}

type Service interface {
	// Create rejects templates that belong to another workspace.
	Create(ctx context.Context, req CreateRuleRequest) (Rule, error)
	List(ctx context.Context) ([]Rule, error)
	Update(ctx context.Context, req UpdateRuleRequest) (Rule, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidAction    = errors.New("invalid_action_type")
	ErrTemplateNotFound = errors.New("template_not_found")
	ErrNotFound         = errors.New("not_found")
)

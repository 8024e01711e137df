package domain

import (
	"context"
	"errors"
)

type InviteStaffRequest struct {
	Email    string
	Password string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"access_token"`
	User  User   `json:"user"`
}

type Service interface {
	// Login exchanges credentials for an opaque bearer token.
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)

	// InviteStaff creates a staff user in the caller's workspace. Owner only.
	InviteStaff(ctx context.Context, req InviteStaffRequest) (User, error)
	ListStaff(ctx context.Context) ([]User, error)
}

// Verifier resolves a bearer token to a user. Token issuance is an
// external collaborator; this is the only surface the backend depends on.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

var (
	ErrInvalidWorkspace   = errors.New("invalid_workspace")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserExists         = errors.New("user_exists")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrNotFound           = errors.New("not_found")
)
